// Package store persists session snapshots so a session's final state can be
// read after the live session is gone.
package store

import (
	"context"
	"sync"

	"mockview/internal/proctor/models"
	"mockview/pkg/platform/sentinel"
)

// InMemorySnapshotStore keeps snapshots in process.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]models.Snapshot
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snapshots: make(map[string]models.Snapshot)}
}

func (s *InMemorySnapshotStore) Save(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.SessionID] = snap
	return nil
}

func (s *InMemorySnapshotStore) Get(_ context.Context, sessionID string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &snap, nil
}

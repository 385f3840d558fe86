package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mockview/internal/proctor/models"
	"mockview/pkg/platform/sentinel"
)

const (
	keyPrefix  = "mockview:session:"
	DefaultTTL = 24 * time.Hour
)

// RedisSnapshotStore keeps snapshots in Redis with a TTL so finished
// sessions age out without a sweeper.
type RedisSnapshotStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSnapshotStore(client redis.Cmdable, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+snap.SessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Get(ctx context.Context, sessionID string) (*models.Snapshot, error) {
	payload, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

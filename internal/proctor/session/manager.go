package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports"
	"mockview/pkg/platform/sentinel"
)

// Manager is the registry of live sessions. Finished sessions leave the
// registry on their own; their final snapshot stays in the snapshot store.
type Manager struct {
	base        context.Context
	persister   ports.AnswerPersister
	snapshots   SnapshotStore
	sessionOpts []Option
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	closing  bool
	wg       sync.WaitGroup
}

type ManagerOption func(*Manager)

func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSessionOptions sets the options applied to every new session.
func WithSessionOptions(opts ...Option) ManagerOption {
	return func(m *Manager) { m.sessionOpts = append(m.sessionOpts, opts...) }
}

// WithSnapshotReader lets Snapshot fall back to persisted state. The same
// store is handed to every session.
func WithSnapshotReader(store SnapshotStore) ManagerOption {
	return func(m *Manager) { m.snapshots = store }
}

// NewManager creates a registry whose sessions live as long as base.
func NewManager(base context.Context, persister ports.AnswerPersister, opts ...ManagerOption) (*Manager, error) {
	if base == nil {
		return nil, errors.New("base context is required")
	}
	if persister == nil {
		return nil, errors.New("answer persister is required")
	}
	m := &Manager{
		base:      base,
		persister: persister,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create builds, starts and registers a session. It fails with
// sentinel.ErrUnavailable once Shutdown has begun.
func (m *Manager) Create(ctx context.Context, p Params) (*Session, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	opts := append([]Option{WithLogger(m.logger)}, m.sessionOpts...)
	if m.snapshots != nil {
		opts = append(opts, WithSnapshotStore(m.snapshots))
	}
	s, err := New(p, m.persister, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil, sentinel.ErrUnavailable
	}
	if _, exists := m.sessions[p.ID]; exists {
		m.mu.Unlock()
		return nil, sentinel.ErrConflict
	}
	m.sessions[p.ID] = s
	m.mu.Unlock()

	s.Start(m.base)
	m.logger.InfoContext(ctx, "proctored session started",
		"session_id", p.ID,
		"interview_id", p.InterviewID,
		"questions", len(p.Questions),
	)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		<-s.Done()
		m.mu.Lock()
		delete(m.sessions, p.ID)
		m.mu.Unlock()
	}()
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s, nil
}

// Snapshot returns the live state, or the last persisted state of a finished session.
func (m *Manager) Snapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	if s, err := m.Get(id); err == nil {
		snap := s.State()
		return &snap, nil
	}
	if m.snapshots == nil {
		return nil, sentinel.ErrNotFound
	}
	return m.snapshots.Get(ctx, id)
}

func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown abandons every live session and waits for teardown. Sessions are
// aborted concurrently; ending a session closes its event streams.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	var (
		aborts sync.WaitGroup
		errMu  sync.Mutex
		errs   []error
	)
	for _, s := range live {
		aborts.Go(func() {
			if err := s.Abort(ctx); err != nil {
				m.logger.WarnContext(ctx, "session did not finish before shutdown deadline",
					"session_id", s.ID(),
					"error", err,
				)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		})
	}
	aborts.Wait()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

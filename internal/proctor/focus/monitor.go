// Package focus turns browser focus signals into budget deductions.
//
// The browser reports visibility, blur and fullscreen changes. Leaving
// fullscreen costs points immediately and arms a one-shot grace timer; if the
// candidate has not returned when it fires, a second deduction is made. A
// backup poll re-applies the fullscreen rule to the last reported state
// because fullscreenchange delivery is unreliable across browsers.
package focus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports"
)

const (
	DefaultPoints       = 2
	DefaultGracePeriod  = 10 * time.Second
	DefaultPollInterval = time.Second
)

type Config struct {
	Points      int
	GracePeriod time.Duration
	// PollInterval of zero disables the backup poll.
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Points:       DefaultPoints,
		GracePeriod:  DefaultGracePeriod,
		PollInterval: DefaultPollInterval,
	}
}

// Monitor must not be re-entered from the Deductor: deductions are made while
// the monitor lock is held so that none can land after Stop returns.
type Monitor struct {
	mu       sync.Mutex
	cfg      Config
	deductor ports.Deductor
	logger   *slog.Logger

	base       context.Context
	reported   bool
	fullscreen bool
	timer      *time.Timer
	timerGen   uint64
	stopped    bool
	done       chan struct{}
	stopOnce   sync.Once
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(deductor ports.Deductor, cfg Config, opts ...Option) *Monitor {
	if cfg.Points <= 0 {
		cfg.Points = DefaultPoints
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	m := &Monitor{
		cfg:      cfg,
		deductor: deductor,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		base:     context.Background(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Visibility records a visibilitychange. Only hiding the page costs points.
func (m *Monitor) Visibility(ctx context.Context, hidden bool) {
	if !hidden {
		return
	}
	m.deduct(ctx, models.ReasonTabSwitched)
}

// Blur records the window losing focus.
func (m *Monitor) Blur(ctx context.Context) {
	m.deduct(ctx, models.ReasonWindowBlur)
}

// Fullscreen records the current fullscreen state and applies the rule.
func (m *Monitor) Fullscreen(ctx context.Context, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.reported = true
	m.fullscreen = active
	m.applyLocked(ctx)
}

// Run drives the backup poll until ctx is done or Stop is called. Timer
// callbacks made after Run starts use ctx for logging and deductions.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	m.base = ctx
	m.mu.Unlock()

	if m.cfg.PollInterval <= 0 {
		select {
		case <-ctx.Done():
		case <-m.done:
		}
		m.Stop()
		return nil
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return nil
		case <-m.done:
			return nil
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// Stop cancels the poll and any pending grace timer. No deduction is made
// by this monitor after Stop returns.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		m.mu.Unlock()
		close(m.done)
	})
}

// GracePending reports whether a grace timer is armed.
func (m *Monitor) GracePending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

func (m *Monitor) poll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || !m.reported {
		return
	}
	m.applyLocked(ctx)
}

func (m *Monitor) applyLocked(ctx context.Context) {
	if m.fullscreen {
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
			m.logger.DebugContext(ctx, "fullscreen restored, grace timer cancelled")
		}
		return
	}

	m.deductor.Deduct(ctx, m.cfg.Points, models.ReasonExitedFullscreen)
	if m.timer == nil {
		m.timerGen++
		gen := m.timerGen
		m.timer = time.AfterFunc(m.cfg.GracePeriod, func() { m.graceExpired(gen) })
	}
}

func (m *Monitor) graceExpired(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || gen != m.timerGen || m.timer == nil {
		return
	}
	m.timer = nil
	if m.fullscreen {
		return
	}
	m.logger.InfoContext(m.base, "fullscreen grace period expired", "grace", m.cfg.GracePeriod)
	m.deductor.Deduct(m.base, m.cfg.Points, models.FullscreenGraceReason(m.cfg.GracePeriod))
}

func (m *Monitor) deduct(ctx context.Context, reason models.Reason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.deductor.Deduct(ctx, m.cfg.Points, reason)
}

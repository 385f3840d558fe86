// Package examclock counts an exam down and charges the whole budget when it runs out.
package examclock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports"
)

const (
	DefaultDuration = 10 * time.Minute
	DefaultTick     = time.Second
)

// Clock decrements one unit per tick. A unit is one second of exam time,
// independent of the tick length, so tests can run a full exam quickly.
type Clock struct {
	mu        sync.Mutex
	remaining int
	tick      time.Duration
	points    int
	deductor  ports.Deductor
	expired   bool
	logger    *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

type Option func(*Clock)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Clock) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTick(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.tick = d
		}
	}
}

// New creates a clock for duration. points must be at least the full budget
// so that expiry always exhausts it.
func New(duration time.Duration, points int, deductor ports.Deductor, opts ...Option) *Clock {
	if duration <= 0 {
		duration = DefaultDuration
	}
	c := &Clock{
		remaining: int(duration / time.Second),
		tick:      DefaultTick,
		points:    points,
		deductor:  deductor,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run ticks until the clock expires, ctx is done or Stop is called.
func (c *Clock) Run(ctx context.Context) error {
	if c.expireIfDue(ctx) {
		return nil
	}
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-ticker.C:
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			c.mu.Unlock()
			if c.expireIfDue(ctx) {
				return nil
			}
		}
	}
}

func (c *Clock) expireIfDue(ctx context.Context) bool {
	c.mu.Lock()
	if c.remaining > 0 || c.expired {
		fired := c.expired
		c.mu.Unlock()
		return fired
	}
	c.expired = true
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "exam time over")
	c.deductor.Deduct(ctx, c.points, models.ReasonTimeOver)
	return true
}

func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Remaining returns the seconds left.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Clock) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Format renders remaining time as m:ss.
func Format(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

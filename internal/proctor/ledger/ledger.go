// Package ledger holds the shared violation budget for one exam session.
//
// Every monitor reports through Deduct. The cooldown check, the budget check,
// the budget write and the terminal latch all happen in one critical section,
// so concurrent reporters cannot double-count a reason or fire the terminal
// handler twice.
package ledger

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"mockview/internal/proctor/models"
	"mockview/pkg/requestcontext"
)

const (
	DefaultInitialBudget = 10
	DefaultCooldown      = 3 * time.Second
)

// Notifier receives a notification for every applied deduction. Notifiers run
// outside the ledger lock, so concurrent deductions may arrive out of order;
// Seq gives the order in which they were applied.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n models.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) { f(ctx, n) }

// ExhaustedFunc is invoked once, when the budget first reaches zero.
type ExhaustedFunc func(ctx context.Context)

type Ledger struct {
	mu        sync.Mutex
	initial   int
	remaining int
	cooldown  time.Duration
	last      map[models.Reason]time.Time
	latched   bool
	seq       uint64

	notifier    Notifier
	onExhausted ExhaustedFunc
	logger      *slog.Logger
}

type Option func(*Ledger)

func WithInitialBudget(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.initial = n
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(l *Ledger) {
		if d >= 0 {
			l.cooldown = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

func WithExhaustedHandler(fn ExhaustedFunc) Option {
	return func(l *Ledger) { l.onExhausted = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		initial:  DefaultInitialBudget,
		cooldown: DefaultCooldown,
		last:     make(map[models.Reason]time.Time),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.remaining = l.initial
	return l
}

// Deduct removes points from the budget for reason. A repeat of the same
// reason inside the cooldown window is ignored without touching state. Once
// the budget is zero every call is a no-op.
func (l *Ledger) Deduct(ctx context.Context, points int, reason models.Reason) models.Outcome {
	if points <= 0 {
		return models.OutcomeIgnored
	}
	now := requestcontext.Now(ctx)

	l.mu.Lock()
	if last, ok := l.last[reason]; ok && now.Sub(last) < l.cooldown {
		l.mu.Unlock()
		return models.OutcomeCooldown
	}
	l.last[reason] = now
	if l.remaining <= 0 {
		l.mu.Unlock()
		return models.OutcomeExhausted
	}
	next := max(l.remaining-points, 0)
	l.remaining = next
	fireTerminal := next == 0 && !l.latched
	if fireTerminal {
		l.latched = true
	}
	l.seq++
	n := models.Notification{Seq: l.seq, Reason: reason, Points: points, Remaining: next, At: now}
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "violation recorded",
		"reason", string(reason),
		"points", points,
		"remaining", next,
		"request_id", requestcontext.RequestID(ctx),
	)
	if l.notifier != nil {
		l.notifier.Notify(ctx, n)
	}
	if fireTerminal && l.onExhausted != nil {
		l.onExhausted(ctx)
	}
	return models.OutcomeApplied
}

func (l *Ledger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

func (l *Ledger) Initial() int { return l.initial }

func (l *Ledger) Exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining == 0
}

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mockview/internal/proctor/examclock"
	"mockview/internal/proctor/focus"
	"mockview/internal/proctor/gaze"
	"mockview/internal/proctor/ledger"
	"mockview/internal/proctor/metrics"
	"mockview/internal/proctor/models"
	"mockview/internal/proctor/observability"
	"mockview/internal/proctor/ports"
	dErrors "mockview/pkg/domain-errors"
)

// SnapshotStore persists session snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Get(ctx context.Context, sessionID string) (*models.Snapshot, error)
}

type Config struct {
	InitialBudget int
	Cooldown      time.Duration
	Focus         focus.Config
	Gaze          gaze.Config
	ExamDuration  time.Duration
	ClockTick     time.Duration
	FrameBuffer   int
	SubmitTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialBudget: ledger.DefaultInitialBudget,
		Cooldown:      ledger.DefaultCooldown,
		Focus:         focus.DefaultConfig(),
		Gaze:          gaze.DefaultConfig(),
		ExamDuration:  examclock.DefaultDuration,
		ClockTick:     examclock.DefaultTick,
		FrameBuffer:   32,
		SubmitTimeout: time.Minute,
	}
}

// Params identifies one exam attempt.
type Params struct {
	ID           string
	InterviewID  string
	UserEmail    string
	Browser      string
	Questions    []models.Question
	// ExamDuration overrides the configured duration when positive.
	ExamDuration time.Duration
}

// Session is one live proctored exam. The ledger is shared by the focus
// monitor, the gaze monitor and the exam clock; whichever of budget
// exhaustion, a candidate submit or an abort comes first ends the session,
// exactly once.
type Session struct {
	params Params
	cfg    Config

	ledger *ledger.Ledger
	focus  *focus.Monitor
	gaze   *gaze.Monitor
	clock  *examclock.Clock
	coord  *Coordinator
	source *gaze.ChannelSource
	hub    *Hub

	persister ports.AnswerPersister
	navigator ports.Navigator
	screen    ports.ScreenController
	publisher ports.EventPublisher
	snapshots SnapshotStore
	detector  gaze.Detector
	metrics   *metrics.Metrics
	logger    *slog.Logger

	startOnce sync.Once
	started   chan struct{}
	cancel    context.CancelFunc
	group     *errgroup.Group
	dirty     chan struct{}

	endOnce   sync.Once
	endSignal chan struct{}
	finished  chan struct{}

	mu         sync.Mutex
	terminated bool
	endReason  models.EndReason
	report     *models.SubmitReport
	submitErr  error
}

type Option func(*Session)

func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Session) { s.publisher = p }
}

func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Session) { s.snapshots = store }
}

func WithDetector(d gaze.Detector) Option {
	return func(s *Session) { s.detector = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithNavigator replaces the event-stream navigator.
func WithNavigator(n ports.Navigator) Option {
	return func(s *Session) { s.navigator = n }
}

// WithScreenController replaces the event-stream fullscreen controller.
func WithScreenController(sc ports.ScreenController) Option {
	return func(s *Session) { s.screen = sc }
}

func New(params Params, persister ports.AnswerPersister, opts ...Option) (*Session, error) {
	if params.ID == "" {
		return nil, errors.New("session id is required")
	}
	s := &Session{
		params:    params,
		cfg:       DefaultConfig(),
		persister: persister,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		started:   make(chan struct{}),
		dirty:     make(chan struct{}, 1),
		endSignal: make(chan struct{}),
		finished:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if params.ExamDuration > 0 {
		s.cfg.ExamDuration = params.ExamDuration
	}
	monitorLogger := s.logger.With("session_id", params.ID, "interview_id", params.InterviewID)

	s.hub = NewHub(0)
	if s.navigator == nil {
		s.navigator = s.hub
	}
	if s.screen == nil {
		s.screen = s.hub
	}

	coord, err := NewCoordinator(params.InterviewID, params.UserEmail, params.Questions, persister, s.navigator, monitorLogger)
	if err != nil {
		return nil, err
	}
	s.coord = coord

	s.ledger = ledger.New(
		ledger.WithInitialBudget(s.cfg.InitialBudget),
		ledger.WithCooldown(s.cfg.Cooldown),
		ledger.WithNotifier(ledger.NotifierFunc(s.onNotification)),
		ledger.WithExhaustedHandler(s.onExhausted),
		ledger.WithLogger(monitorLogger),
	)
	deductor := &observedDeductor{ledger: s.ledger, metrics: s.metrics}
	s.focus = focus.New(deductor, s.cfg.Focus, focus.WithLogger(monitorLogger))
	s.gaze = gaze.New(deductor, s.cfg.Gaze,
		gaze.WithLogger(monitorLogger),
		gaze.WithDetector(s.detector),
		gaze.WithStatusFunc(s.onGazeStatus),
	)
	// Expiry charges the full budget so it always exhausts what is left.
	s.clock = examclock.New(s.cfg.ExamDuration, s.ledger.Initial(), deductor,
		examclock.WithTick(s.cfg.ClockTick),
		examclock.WithLogger(monitorLogger),
	)
	s.source = gaze.NewChannelSource(s.cfg.FrameBuffer)
	return s, nil
}

func (s *Session) ID() string          { return s.params.ID }
func (s *Session) InterviewID() string { return s.params.InterviewID }
func (s *Session) UserEmail() string   { return s.params.UserEmail }

// Done is closed once the session has ended and its submission, if any, is finished.
func (s *Session) Done() <-chan struct{} { return s.finished }

// Start launches the monitors. base should outlive any single request; if it
// is cancelled the session is abandoned without submitting.
func (s *Session) Start(base context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(base)
		s.cancel = cancel
		g, gctx := errgroup.WithContext(ctx)
		s.group = g
		g.Go(func() error { return s.focus.Run(gctx) })
		g.Go(func() error { return s.gaze.Run(gctx, s.source) })
		g.Go(func() error { return s.clock.Run(gctx) })
		g.Go(func() error { return s.snapshotLoop(gctx) })
		close(s.started)

		s.metrics.SessionStarted()
		s.audit(ctx, models.EventSessionStarted, "remaining", s.ledger.Remaining(), "browser", s.params.Browser)
		s.markDirty()
		go s.supervise(ctx)
	})
}

func (s *Session) Visibility(ctx context.Context, hidden bool) { s.focus.Visibility(ctx, hidden) }
func (s *Session) Blur(ctx context.Context)                    { s.focus.Blur(ctx) }
func (s *Session) Fullscreen(ctx context.Context, active bool) { s.focus.Fullscreen(ctx, active) }

// PushFrame queues a camera frame for the gaze monitor.
func (s *Session) PushFrame(frame models.Frame) bool {
	ok := s.source.Push(frame)
	if !ok {
		s.metrics.IncrementFramesDropped()
	}
	return ok
}

// CameraError degrades gaze monitoring after the browser lost the camera.
func (s *Session) CameraError(ctx context.Context, message string) {
	s.gaze.Fail(ctx, message)
}

func (s *Session) Next() int     { return s.coord.GoToNext() }
func (s *Session) Previous() int { return s.coord.GoToPrevious() }

func (s *Session) RecordAnswer(index int, text string) error {
	if err := s.coord.RecordAnswer(index, text); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// AppendAnswer adds transcribed speech to the answer for index.
func (s *Session) AppendAnswer(index int, text string) (string, error) {
	combined, err := s.coord.AppendAnswer(index, text)
	if err != nil {
		return "", err
	}
	s.markDirty()
	return combined, nil
}

func (s *Session) Answer(index int) (string, bool) { return s.coord.Answer(index) }

func (s *Session) Question(index int) (string, error) { return s.coord.Question(index) }

func (s *Session) Subscribe() (<-chan Command, func()) { return s.hub.Subscribe() }

// Submit ends the session on the candidate's request and waits for the
// submission. If the budget ran out first, the auto-submit report is returned.
func (s *Session) Submit(ctx context.Context) (*models.SubmitReport, error) {
	if err := s.requireStarted(); err != nil {
		return nil, err
	}
	s.requestEnd(models.EndSubmitted)
	select {
	case <-s.finished:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "submission still in progress")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endReason == models.EndAbandoned {
		return nil, dErrors.New(dErrors.CodeConflict, "session was abandoned")
	}
	return s.report, s.submitErr
}

// Abort ends the session without submitting and waits for teardown.
func (s *Session) Abort(ctx context.Context) error {
	if err := s.requireStarted(); err != nil {
		return err
	}
	s.requestEnd(models.EndAbandoned)
	select {
	case <-s.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the end state once Done is closed.
func (s *Session) Result() (models.EndReason, *models.SubmitReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason, s.report
}

// State returns the current display snapshot.
func (s *Session) State() models.Snapshot {
	status, message := s.gaze.Snapshot()
	s.mu.Lock()
	reason, terminated := s.endReason, s.terminated
	s.mu.Unlock()
	remaining := s.clock.Remaining()
	return models.Snapshot{
		SessionID:       s.params.ID,
		InterviewID:     s.params.InterviewID,
		UserEmail:       s.params.UserEmail,
		RemainingBudget: s.ledger.Remaining(),
		InitialBudget:   s.ledger.Initial(),
		GazeStatus:      status,
		GazeMessage:     message,
		TimeRemaining:   remaining,
		TimeDisplay:     examclock.Format(remaining),
		ActiveIndex:     s.coord.Active(),
		QuestionCount:   s.coord.QuestionCount(),
		Answered:        s.coord.Answered(),
		Browser:         s.params.Browser,
		Terminated:      terminated,
		EndReason:       reason,
		UpdatedAt:       time.Now(),
	}
}

func (s *Session) requireStarted() error {
	select {
	case <-s.started:
		return nil
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "session not started")
	}
}

// requestEnd records the first end reason. Later requests are ignored. It
// never blocks, so it is safe to call from inside a monitor's deduction.
func (s *Session) requestEnd(reason models.EndReason) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.endReason = reason
		s.mu.Unlock()
		close(s.endSignal)
	})
}

func (s *Session) supervise(ctx context.Context) {
	select {
	case <-s.endSignal:
	case <-ctx.Done():
		s.requestEnd(models.EndAbandoned)
	}
	s.mu.Lock()
	reason := s.endReason
	s.mu.Unlock()

	s.teardown(ctx)

	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
	defer cancel()

	var (
		report *models.SubmitReport
		err    error
	)
	switch reason {
	case models.EndBudgetExhausted:
		s.audit(submitCtx, models.EventAutoSubmit, "remaining", 0)
		if ferr := s.screen.ExitFullscreen(submitCtx); ferr != nil {
			s.metrics.IncrementFullscreenExitErrors()
			s.logger.WarnContext(submitCtx, "could not exit fullscreen before auto-submit", "error", ferr)
			s.audit(submitCtx, models.EventFullscreenError, "reason", ferr.Error(), "remaining", 0)
		}
		report, err = s.coord.Submit(submitCtx, true)
	case models.EndSubmitted:
		report, err = s.coord.Submit(submitCtx, false)
	default:
		s.audit(submitCtx, models.EventSessionAbandon, "remaining", s.ledger.Remaining())
	}

	if report != nil {
		s.metrics.AddSubmitFailures(len(report.Failed))
		event := models.EventSubmitted
		if len(report.Failed) > 0 {
			event = models.EventSubmitFailed
		}
		s.audit(submitCtx, event, "remaining", s.ledger.Remaining(), "persisted", report.Persisted, "failed", len(report.Failed))
	}

	s.mu.Lock()
	s.report = report
	s.submitErr = err
	s.terminated = true
	s.mu.Unlock()

	s.saveSnapshot(submitCtx)
	s.hub.Broadcast(Command{Type: CommandEnded, Data: s.State()})
	s.hub.Close()
	s.metrics.SessionEnded(string(reason))
	close(s.finished)
}

// teardown stops every monitor, releases the camera and waits for the
// monitor goroutines to exit.
func (s *Session) teardown(ctx context.Context) {
	s.cancel()
	s.focus.Stop()
	s.gaze.Stop()
	s.clock.Stop()
	if err := s.source.Close(); err != nil {
		s.logger.WarnContext(ctx, "failed to release camera", "error", err)
	}
	if err := s.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "monitor exited with error", "error", err)
	}
	s.hub.Broadcast(Command{Type: CommandCameraRelease})
	s.audit(context.WithoutCancel(ctx), models.EventCameraReleased, "remaining", s.ledger.Remaining())
}

func (s *Session) onNotification(ctx context.Context, n models.Notification) {
	s.hub.Broadcast(Command{Type: CommandNotification, Data: NotificationPayload{
		Seq:       n.Seq,
		Message:   n.Message(),
		Reason:    string(n.Reason),
		Points:    n.Points,
		Remaining: n.Remaining,
	}})
	s.metrics.ObserveDeduction(string(n.Reason), n.Points)
	s.audit(ctx, models.EventDeduction, "reason", string(n.Reason), "points", n.Points, "remaining", n.Remaining)
	s.markDirty()
}

func (s *Session) onExhausted(context.Context) {
	s.requestEnd(models.EndBudgetExhausted)
}

func (s *Session) onGazeStatus(ctx context.Context, status models.GazeStatus, message string) {
	s.hub.Broadcast(Command{Type: CommandStatus, Data: StatusPayload{Status: status, Message: message}})
	s.metrics.ObserveGazeStatus(string(status))
	s.audit(ctx, models.EventGazeStatus, "reason", message, "remaining", s.ledger.Remaining())
	s.markDirty()
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) snapshotLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.dirty:
			s.saveSnapshot(ctx)
		}
	}
}

func (s *Session) saveSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, s.State()); err != nil {
		s.logger.WarnContext(ctx, "failed to save session snapshot", "error", err)
	}
}

func (s *Session) audit(ctx context.Context, event models.EventType, attrList ...any) {
	attrList = append(attrList,
		"session_id", s.params.ID,
		"interview_id", s.params.InterviewID,
		"user_email", s.params.UserEmail,
	)
	observability.LogAudit(ctx, s.logger, s.publisher, event, attrList...)
}

type NotificationPayload struct {
	Seq       uint64 `json:"seq"`
	Message   string `json:"message"`
	Reason    string `json:"reason"`
	Points    int    `json:"points"`
	Remaining int    `json:"remaining"`
}

type StatusPayload struct {
	Status  models.GazeStatus `json:"status"`
	Message string            `json:"message"`
}

// observedDeductor records deductions that did not change the budget.
type observedDeductor struct {
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
}

func (d *observedDeductor) Deduct(ctx context.Context, points int, reason models.Reason) models.Outcome {
	out := d.ledger.Deduct(ctx, points, reason)
	if out != models.OutcomeApplied {
		d.metrics.ObserveSuppressed(out.String())
	}
	return out
}

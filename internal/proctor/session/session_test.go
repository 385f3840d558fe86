package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockview/internal/proctor/metrics"
	"mockview/internal/proctor/models"
	"mockview/internal/proctor/publisher"
	"mockview/internal/proctor/store"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/sentinel"
	"mockview/pkg/requestcontext"
)

type fakePersister struct {
	mu      sync.Mutex
	records []models.AnswerRecord
	failOn  map[string]error
}

func (f *fakePersister) PersistAnswer(_ context.Context, rec models.AnswerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[rec.Question]; err != nil {
		return err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakePersister) Records() []models.AnswerRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AnswerRecord(nil), f.records...)
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Focus.PollInterval = 0
	cfg.Focus.GracePeriod = 60 * time.Millisecond
	cfg.ClockTick = time.Hour
	cfg.SubmitTimeout = 5 * time.Second
	return cfg
}

type harness struct {
	session   *Session
	persister *fakePersister
	events    *publisher.Memory
	snapshots *store.InMemorySnapshotStore
	metrics   *metrics.Metrics
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		persister: &fakePersister{},
		events:    publisher.NewMemory(),
		snapshots: store.NewInMemorySnapshotStore(),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	s, err := New(Params{
		ID:          "session-1",
		InterviewID: "iv-1",
		UserEmail:   "candidate@example.com",
		Questions:   testQuestions,
	}, h.persister,
		WithConfig(cfg),
		WithPublisher(h.events),
		WithSnapshotStore(h.snapshots),
		WithMetrics(h.metrics),
	)
	require.NoError(t, err)
	h.session = s
	return h
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
}

// drain collects commands until the hub closes the stream.
func drain(t *testing.T, ch <-chan Command) []Command {
	t.Helper()
	var out []Command
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, cmd)
		case <-timeout:
			t.Fatal("command stream did not close")
		}
	}
}

func commandTypes(cmds []Command) []CommandType {
	out := make([]CommandType, len(cmds))
	for i, c := range cmds {
		out[i] = c.Type
	}
	return out
}

func TestNewRequiresID(t *testing.T) {
	_, err := New(Params{InterviewID: "iv"}, &fakePersister{})
	assert.ErrorContains(t, err, "session id is required")
}

func TestSubmitBeforeStartIsRejected(t *testing.T) {
	h := newHarness(t, quietConfig())
	_, err := h.session.Submit(context.Background())
	assert.True(t, dErrors.Is(err, dErrors.CodeInvariantViolation))
}

func TestFullscreenExitThenRestore(t *testing.T) {
	h := newHarness(t, quietConfig())
	events, cancel := h.session.Subscribe()
	defer cancel()
	h.session.Start(context.Background())
	ctx := context.Background()

	h.session.Fullscreen(ctx, true)
	h.session.Fullscreen(ctx, false)
	assert.Equal(t, 8, h.session.State().RemainingBudget)

	h.session.Fullscreen(ctx, true)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 8, h.session.State().RemainingBudget)

	var warning *NotificationPayload
	for warning == nil {
		select {
		case cmd := <-events:
			if p, ok := cmd.Data.(NotificationPayload); ok {
				warning = &p
			}
		case <-time.After(time.Second):
			t.Fatal("no notification delivered")
		}
	}
	assert.Equal(t, "⚠ Exited fullscreen (-2) | Remaining: 8", warning.Message)

	require.NoError(t, h.session.Abort(ctx))
	assert.Empty(t, h.persister.Records())
}

func TestClockExpiryAutoSubmitsOnce(t *testing.T) {
	cfg := quietConfig()
	cfg.ExamDuration = 3 * time.Second
	cfg.ClockTick = 5 * time.Millisecond
	h := newHarness(t, cfg)
	require.NoError(t, h.session.RecordAnswer(0, "goroutines are cheap"))

	stream, cancel := h.session.Subscribe()
	defer cancel()
	h.session.Start(context.Background())
	waitDone(t, h.session)

	reason, report := h.session.Result()
	assert.Equal(t, models.EndBudgetExhausted, reason)
	require.NotNil(t, report)
	assert.True(t, report.AutoSubmit)
	assert.Equal(t, 3, report.Persisted)
	assert.Equal(t, "/dashboard/interview/iv-1/feedback", report.RedirectTo)

	records := h.persister.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "goroutines are cheap", records[0].Answer)
	assert.Equal(t, "", records[1].Answer)
	assert.Equal(t, "", records[2].Answer)

	cmds := commandTypes(drain(t, stream))
	assert.Contains(t, cmds, CommandExitFullscreen)
	assert.Contains(t, cmds, CommandNavigate)
	assert.Contains(t, cmds, CommandCameraRelease)
	assert.Equal(t, CommandEnded, cmds[len(cmds)-1])

	state := h.session.State()
	assert.Equal(t, 0, state.RemainingBudget)
	assert.Equal(t, 0, state.TimeRemaining)
	assert.True(t, state.Terminated)
	assert.True(t, h.session.source.Closed())

	snap, err := h.snapshots.Get(context.Background(), "session-1")
	require.NoError(t, err)
	assert.True(t, snap.Terminated)
	assert.Equal(t, models.EndBudgetExhausted, snap.EndReason)

	types := h.events.Types()
	assert.Contains(t, types, models.EventAutoSubmit)
	assert.NotContains(t, types, models.EventFullscreenError)
	count := 0
	for _, ty := range types {
		if ty == models.EventSubmitted {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBudgetExhaustionRacesManualSubmit(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.session.Start(context.Background())

	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	reports := make([]*models.SubmitReport, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], _ = h.session.Submit(context.Background())
		}(i)
	}
	for i := range 5 {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*3*time.Second))
		h.session.Blur(ctx)
	}
	wg.Wait()
	waitDone(t, h.session)

	assert.Len(t, h.persister.Records(), 3, "answers are persisted by exactly one submission")
	assert.Same(t, reports[0], reports[1])
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.SessionsEnded.WithLabelValues(string(h.session.State().EndReason))))
}

func TestExhaustionWithoutClientStillSubmits(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.session.Start(context.Background())

	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		h.session.Visibility(requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*3*time.Second)), true)
	}
	waitDone(t, h.session)

	reason, report := h.session.Result()
	assert.Equal(t, models.EndBudgetExhausted, reason)
	assert.Equal(t, 3, report.Persisted)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.FullscreenExitErrors))
	assert.Equal(t, "/dashboard/interview/iv-1/feedback", h.session.hub.LastNavigation())

	var fullscreenErr *models.Event
	for _, e := range h.events.Events() {
		if e.Type == models.EventFullscreenError {
			fullscreenErr = &e
		}
	}
	require.NotNil(t, fullscreenErr, "fullscreen exit failure is published")
	assert.Equal(t, ErrNoClient.Error(), fullscreenErr.Reason)

	h.session.Blur(context.Background())
	assert.Equal(t, 0, h.session.State().RemainingBudget)
}

func TestPartialPersistFailureIsReported(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.persister.failOn = map[string]error{testQuestions[1].Question: errors.New("db down")}
	h.session.Start(context.Background())

	report, err := h.session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Persisted)
	assert.Equal(t, []models.SubmitFailure{{Index: 1, Error: "db down"}}, report.Failed)
	assert.Contains(t, h.events.Types(), models.EventSubmitFailed)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.SubmitFailures))
}

func TestAbortSkipsSubmission(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.session.Start(context.Background())
	require.NoError(t, h.session.Abort(context.Background()))

	reason, report := h.session.Result()
	assert.Equal(t, models.EndAbandoned, reason)
	assert.Nil(t, report)
	assert.Empty(t, h.persister.Records())

	_, err := h.session.Submit(context.Background())
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestBaseContextCancelAbandons(t *testing.T) {
	h := newHarness(t, quietConfig())
	ctx, cancel := context.WithCancel(context.Background())
	h.session.Start(ctx)
	cancel()
	waitDone(t, h.session)

	reason, _ := h.session.Result()
	assert.Equal(t, models.EndAbandoned, reason)
}

func TestCameraErrorDegradesGaze(t *testing.T) {
	h := newHarness(t, quietConfig())
	h.session.Start(context.Background())
	defer func() { _ = h.session.Abort(context.Background()) }()

	assert.Eventually(t, func() bool {
		return h.session.State().GazeStatus == models.GazeCalibrating
	}, time.Second, 5*time.Millisecond)

	h.session.CameraError(context.Background(), "")
	state := h.session.State()
	assert.Equal(t, models.GazeError, state.GazeStatus)
	assert.Equal(t, "Camera Access Failed", state.GazeMessage)
}

func TestManagerLifecycle(t *testing.T) {
	snapshots := store.NewInMemorySnapshotStore()
	m, err := NewManager(context.Background(), &fakePersister{},
		WithSnapshotReader(snapshots),
		WithSessionOptions(WithConfig(quietConfig())),
	)
	require.NoError(t, err)

	s, err := m.Create(context.Background(), Params{InterviewID: "iv-9", Questions: testQuestions})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Create(context.Background(), Params{ID: s.ID(), InterviewID: "iv-9", Questions: testQuestions})
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.Active() == 0 }, time.Second, 5*time.Millisecond)
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	snap, err := m.Snapshot(context.Background(), s.ID())
	require.NoError(t, err)
	assert.True(t, snap.Terminated)
	assert.Equal(t, models.EndSubmitted, snap.EndReason)

	_, err = m.Snapshot(context.Background(), "unknown")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestManagerShutdownAbandonsLiveSessions(t *testing.T) {
	persister := &fakePersister{}
	m, err := NewManager(context.Background(), persister, WithSessionOptions(WithConfig(quietConfig())))
	require.NoError(t, err)

	for range 3 {
		_, err := m.Create(context.Background(), Params{InterviewID: "iv", Questions: testQuestions})
		require.NoError(t, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.Equal(t, 0, m.Active())
	assert.Empty(t, persister.Records())

	_, err = m.Create(context.Background(), Params{InterviewID: "iv", Questions: testQuestions})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestManagerShutdownClosesEventStreams(t *testing.T) {
	events := publisher.NewMemory()
	m, err := NewManager(context.Background(), &fakePersister{},
		WithSessionOptions(WithConfig(quietConfig()), WithPublisher(events)),
	)
	require.NoError(t, err)

	var streams []<-chan Command
	for range 2 {
		s, err := m.Create(context.Background(), Params{InterviewID: "iv", Questions: testQuestions})
		require.NoError(t, err)
		ch, cancel := s.Subscribe()
		defer cancel()
		streams = append(streams, ch)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	for _, ch := range streams {
		cmds := commandTypes(drain(t, ch))
		assert.Equal(t, CommandEnded, cmds[len(cmds)-1])
		assert.Contains(t, cmds, CommandCameraRelease)
	}

	abandoned := 0
	for _, ty := range events.Types() {
		if ty == models.EventSessionAbandon {
			abandoned++
		}
	}
	assert.Equal(t, 2, abandoned)
}

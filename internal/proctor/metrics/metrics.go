package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DeductionsTotal      *prometheus.CounterVec
	SuppressedTotal      *prometheus.CounterVec
	PointsDeducted       prometheus.Counter
	ActiveSessions       prometheus.Gauge
	SessionsEnded        *prometheus.CounterVec
	SubmitFailures       prometheus.Counter
	GazeTransitions      *prometheus.CounterVec
	FramesDropped        prometheus.Counter
	EventsDropped        prometheus.Counter
	FullscreenExitErrors prometheus.Counter
}

// New registers the proctoring metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DeductionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_proctor_deductions_total",
			Help: "Applied budget deductions by reason",
		}, []string{"reason"}),
		SuppressedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_proctor_deductions_suppressed_total",
			Help: "Deduction attempts that did not change the budget, by outcome",
		}, []string{"outcome"}),
		PointsDeducted: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_proctor_points_deducted_total",
			Help: "Total budget points deducted across sessions",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "mockview_proctor_active_sessions",
			Help: "Number of live proctored sessions",
		}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_proctor_sessions_ended_total",
			Help: "Finished sessions by end reason",
		}, []string{"end_reason"}),
		SubmitFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_proctor_submit_answer_failures_total",
			Help: "Answers that failed to persist during submission",
		}),
		GazeTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_proctor_gaze_transitions_total",
			Help: "Gaze monitor status transitions",
		}, []string{"status"}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_proctor_frames_dropped_total",
			Help: "Uploaded frames dropped because the session buffer was full or closed",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_proctor_events_dropped_total",
			Help: "Session events dropped by the publisher buffer",
		}),
		FullscreenExitErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_proctor_fullscreen_exit_errors_total",
			Help: "Auto-submits where fullscreen could not be released",
		}),
	}
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) ObserveDeduction(reason string, points int) {
	if m == nil {
		return
	}
	m.DeductionsTotal.WithLabelValues(reason).Inc()
	m.PointsDeducted.Add(float64(points))
}

func (m *Metrics) ObserveSuppressed(outcome string) {
	if m == nil {
		return
	}
	m.SuppressedTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.SessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddSubmitFailures(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SubmitFailures.Add(float64(n))
}

func (m *Metrics) ObserveGazeStatus(status string) {
	if m == nil {
		return
	}
	m.GazeTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementFramesDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

func (m *Metrics) AddEventsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EventsDropped.Add(float64(n))
}

func (m *Metrics) IncrementFullscreenExitErrors() {
	if m == nil {
		return
	}
	m.FullscreenExitErrors.Inc()
}

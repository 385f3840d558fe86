package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	InterviewsCreated prometheus.Counter
	ValidationRejects *prometheus.CounterVec
	AnswersRecorded   *prometheus.CounterVec
	LLMFailures       *prometheus.CounterVec
	FeedbackExports   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InterviewsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_interviews_created_total",
			Help: "Mock interviews generated",
		}),
		ValidationRejects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_interview_validation_rejects_total",
			Help: "Job profiles rejected by the validation prompt, by code",
		}, []string{"code"}),
		AnswersRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_answers_recorded_total",
			Help: "Stored answers, by whether the model rated them",
		}, []string{"rated"}),
		LLMFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_interview_llm_failures_total",
			Help: "Model calls or responses that could not be used, by step",
		}, []string{"step"}),
		FeedbackExports: f.NewCounter(prometheus.CounterOpts{
			Name: "mockview_feedback_exports_total",
			Help: "Feedback workbooks generated",
		}),
	}
}

func (m *Metrics) IncrementInterviewsCreated() {
	if m == nil {
		return
	}
	m.InterviewsCreated.Inc()
}

func (m *Metrics) IncrementValidationReject(code string) {
	if m == nil {
		return
	}
	m.ValidationRejects.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementAnswersRecorded(rated bool) {
	if m == nil {
		return
	}
	label := "false"
	if rated {
		label = "true"
	}
	m.AnswersRecorded.WithLabelValues(label).Inc()
}

func (m *Metrics) IncrementLLMFailure(step string) {
	if m == nil {
		return
	}
	m.LLMFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) IncrementFeedbackExports() {
	if m == nil {
		return
	}
	m.FeedbackExports.Inc()
}

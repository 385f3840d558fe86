package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/requestcontext"
)

// Coordinator owns the question list, the active question and the answer
// cache, and runs the one submission a session is allowed.
type Coordinator struct {
	mu          sync.Mutex
	interviewID string
	userEmail   string
	questions   []models.Question
	active      int
	answers     map[int]string
	submitted   bool

	persister ports.AnswerPersister
	navigator ports.Navigator
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewCoordinator(
	interviewID, userEmail string,
	questions []models.Question,
	persister ports.AnswerPersister,
	navigator ports.Navigator,
	logger *slog.Logger,
) (*Coordinator, error) {
	if interviewID == "" {
		return nil, errors.New("interview id is required")
	}
	if len(questions) == 0 {
		return nil, errors.New("at least one question is required")
	}
	if persister == nil {
		return nil, errors.New("answer persister is required")
	}
	if navigator == nil {
		return nil, errors.New("navigator is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		interviewID: interviewID,
		userEmail:   userEmail,
		questions:   append([]models.Question(nil), questions...),
		answers:     make(map[int]string),
		persister:   persister,
		navigator:   navigator,
		logger:      logger,
		tracer:      otel.Tracer("mockview/internal/proctor/session"),
	}, nil
}

func (c *Coordinator) GoToNext() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = min(c.active+1, len(c.questions)-1)
	return c.active
}

func (c *Coordinator) GoToPrevious() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = max(c.active-1, 0)
	return c.active
}

func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Coordinator) QuestionCount() int {
	return len(c.questions)
}

// Question returns the prompt at index without its reference answer.
func (c *Coordinator) Question(index int) (string, error) {
	if index < 0 || index >= len(c.questions) {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("question index %d out of range", index))
	}
	return c.questions[index].Question, nil
}

// RecordAnswer upserts the answer for index.
func (c *Coordinator) RecordAnswer(index int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.questions) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("question index %d out of range", index))
	}
	if c.submitted {
		return dErrors.New(dErrors.CodeInvariantViolation, "session already submitted")
	}
	c.answers[index] = text
	return nil
}

// AppendAnswer adds dictated text to the answer for index, separated by a
// space, and returns the combined answer.
func (c *Coordinator) AppendAnswer(index int, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.questions) {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("question index %d out of range", index))
	}
	if c.submitted {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "session already submitted")
	}
	combined := c.answers[index]
	switch {
	case text == "":
	case combined == "":
		combined = text
	default:
		combined += " " + text
	}
	c.answers[index] = combined
	return combined, nil
}

func (c *Coordinator) Answer(index int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.answers[index]
	return a, ok
}

func (c *Coordinator) Answered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.answers)
}

func (c *Coordinator) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// Submit persists every question's answer in index order, substituting "" for
// unanswered ones. A failed answer is reported and skipped; the loop always
// finishes and the candidate is always sent to the results view.
func (c *Coordinator) Submit(ctx context.Context, auto bool) (*models.SubmitReport, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeConflict, "session already submitted")
	}
	c.submitted = true
	answers := make([]string, len(c.questions))
	for i := range c.questions {
		answers[i] = c.answers[i]
	}
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "proctor.session.submit", trace.WithAttributes(
		attribute.String("interview.id", c.interviewID),
		attribute.Int("answers.count", len(answers)),
		attribute.Bool("submit.auto", auto),
	))
	defer span.End()

	report := &models.SubmitReport{
		RedirectTo: models.ResultsPath(c.interviewID),
		AutoSubmit: auto,
	}
	for i, q := range c.questions {
		err := c.persister.PersistAnswer(ctx, models.AnswerRecord{
			InterviewID: c.interviewID,
			Question:    q.Question,
			Reference:   q.Answer,
			Answer:      answers[i],
			UserEmail:   c.userEmail,
		})
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to persist answer",
				"interview_id", c.interviewID,
				"index", i,
				"error", err,
			)
			report.Failed = append(report.Failed, models.SubmitFailure{Index: i, Error: err.Error()})
			continue
		}
		report.Persisted++
	}

	if len(report.Failed) > 0 {
		span.SetStatus(codes.Error, "some answers were not saved")
		c.logger.WarnContext(ctx, "submission finished with failures",
			"interview_id", c.interviewID,
			"failed", len(report.Failed),
			"persisted", report.Persisted,
		)
	}

	if err := c.navigator.NavigateTo(ctx, report.RedirectTo); err != nil {
		c.logger.WarnContext(ctx, "failed to navigate to results", "error", err, "path", report.RedirectTo)
	}
	report.CompletedAt = requestcontext.Now(ctx)
	return report, nil
}

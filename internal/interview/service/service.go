// Package service generates mock interviews, rates answers and assembles feedback.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mockview/internal/ai"
	"mockview/internal/interview/metrics"
	"mockview/internal/interview/models"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/sentinel"
	"mockview/pkg/requestcontext"
)

// NoAnswerFeedback is stored for questions left unanswered at submission.
const NoAnswerFeedback = "No answer recorded."

const msgUnknown = "Something went wrong. Please try again."

var validationMessages = map[int]string{
	-1: "Job role does not appear to be a real-world role.",
	-2: "Job description does not logically match the job role.",
	-3: "Years of experience must be between 0 and 50.",
	0:  "Job role, description, and experience are all invalid.",
}

type Service struct {
	interviews InterviewStore
	answers    AnswerStore
	generator  Generator
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGenerator enables interview generation and answer rating.
func WithGenerator(g Generator) Option {
	return func(s *Service) { s.generator = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(interviews InterviewStore, answers AnswerStore, opts ...Option) (*Service, error) {
	if interviews == nil {
		return nil, errors.New("interview store is required")
	}
	if answers == nil {
		return nil, errors.New("answer store is required")
	}
	s := &Service{
		interviews: interviews,
		answers:    answers,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type CreateRequest struct {
	JobPosition   string `json:"job_position"`
	JobDesc       string `json:"job_desc"`
	JobExperience string `json:"job_experience"`
}

// Create validates the job profile with the model, generates the questions
// and stores the interview for the authenticated candidate.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Interview, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}
	job := ai.JobProfile{
		Position:   strings.TrimSpace(req.JobPosition),
		Desc:       strings.TrimSpace(req.JobDesc),
		Experience: strings.TrimSpace(req.JobExperience),
	}
	if job.Position == "" || job.Desc == "" || job.Experience == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "job position, description and experience are required")
	}
	gen, err := s.requireGenerator()
	if err != nil {
		return nil, err
	}

	verdict, err := gen.GenerateContent(ctx, ai.ValidationPrompt(job))
	if err != nil {
		s.metrics.IncrementLLMFailure("validate")
		return nil, s.modelError(ctx, "validation call failed", err)
	}
	code, ok := ai.ParseValidationCode(verdict)
	if !ok {
		s.metrics.IncrementLLMFailure("validate")
		s.logger.WarnContext(ctx, "unreadable validation verdict", "verdict", verdict)
		return nil, dErrors.New(dErrors.CodeUnavailable, msgUnknown)
	}
	if code != 1 {
		s.metrics.IncrementValidationReject(strconv.Itoa(code))
		msg, known := validationMessages[code]
		if !known {
			return nil, dErrors.New(dErrors.CodeUnavailable, msgUnknown)
		}
		return nil, dErrors.New(dErrors.CodeValidation, msg)
	}

	raw, err := gen.GenerateContent(ctx, ai.GenerationPrompt(job))
	if err != nil {
		s.metrics.IncrementLLMFailure("generate")
		return nil, s.modelError(ctx, "generation call failed", err)
	}
	generated, err := ai.ParseQuestions(raw)
	if err != nil {
		s.metrics.IncrementLLMFailure("generate")
		s.logger.WarnContext(ctx, "unusable generated questions", "error", err)
		return nil, dErrors.New(dErrors.CodeUnavailable, msgUnknown)
	}

	iv := &models.Interview{
		MockID:        uuid.NewString(),
		Questions:     make([]models.Question, len(generated)),
		JobPosition:   job.Position,
		JobDesc:       job.Desc,
		JobExperience: job.Experience,
		CreatedBy:     email,
		CreatedAt:     requestcontext.Now(ctx),
	}
	for i, q := range generated {
		iv.Questions[i] = models.Question{Question: strings.TrimSpace(q.Question), Answer: strings.TrimSpace(q.Answer)}
	}
	if err := s.interviews.Create(ctx, iv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store interview")
	}
	s.metrics.IncrementInterviewsCreated()
	s.logger.InfoContext(ctx, "interview created",
		"interview_id", iv.MockID,
		"questions", len(iv.Questions),
		"request_id", requestcontext.RequestID(ctx),
	)
	return iv, nil
}

// Get returns one of the candidate's interviews. Other candidates' interviews
// are reported as not found.
func (s *Service) Get(ctx context.Context, mockID string) (*models.Interview, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}
	iv, err := s.interviews.FindByID(ctx, mockID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "interview not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load interview")
	}
	if iv.CreatedBy != email {
		return nil, dErrors.New(dErrors.CodeNotFound, "interview not found")
	}
	return iv, nil
}

// List returns the candidate's interviews, newest first, with answer counts.
func (s *Service) List(ctx context.Context) ([]models.Summary, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}
	ivs, err := s.interviews.ListByCreator(ctx, email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list interviews")
	}
	ids := make([]string, len(ivs))
	for i, iv := range ivs {
		ids[i] = iv.MockID
	}
	counts, err := s.answers.CountByInterviews(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count answers")
	}
	out := make([]models.Summary, len(ivs))
	for i, iv := range ivs {
		out[i] = models.Summary{Interview: *iv, AnswerCount: counts[iv.MockID]}
	}
	return out, nil
}

type SaveAnswerRequest struct {
	MockID     string `json:"mock_id"`
	Question   string `json:"question"`
	CorrectAns string `json:"correct_answer"`
	UserAnswer string `json:"user_answer"`
}

// SaveAnswer rates and stores a single answer for the authenticated candidate.
func (s *Service) SaveAnswer(ctx context.Context, req SaveAnswerRequest) (*models.Answer, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}
	if req.MockID == "" || strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.UserAnswer) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Missing required fields")
	}
	if _, err := s.Get(ctx, req.MockID); err != nil {
		return nil, err
	}
	return s.RecordAnswer(ctx, AnswerInput{
		MockID:     req.MockID,
		Question:   req.Question,
		CorrectAns: req.CorrectAns,
		UserAnswer: req.UserAnswer,
		UserEmail:  email,
	})
}

// AnswerInput is one answer to rate and store.
type AnswerInput struct {
	MockID     string
	Question   string
	CorrectAns string
	UserAnswer string
	UserEmail  string
}

// RecordAnswer stores in. A blank answer is stored with rating 0 and
// NoAnswerFeedback without calling the model.
func (s *Service) RecordAnswer(ctx context.Context, in AnswerInput) (*models.Answer, error) {
	if in.MockID == "" || in.Question == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "interview id and question are required")
	}
	answer := &models.Answer{
		MockIDRef:  in.MockID,
		Question:   in.Question,
		CorrectAns: in.CorrectAns,
		UserAns:    in.UserAnswer,
		UserEmail:  in.UserEmail,
		CreatedAt:  requestcontext.Now(ctx),
	}
	rated := strings.TrimSpace(in.UserAnswer) != ""
	if rated {
		rating, err := s.rate(ctx, in.Question, in.UserAnswer)
		if err != nil {
			return nil, err
		}
		answer.Rating = rating.Rating
		answer.Feedback = rating.Feedback
	} else {
		answer.Feedback = NoAnswerFeedback
	}

	if err := s.answers.Append(ctx, answer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store answer")
	}
	s.metrics.IncrementAnswersRecorded(rated)
	return answer, nil
}

func (s *Service) rate(ctx context.Context, question, answer string) (ai.Rating, error) {
	gen, err := s.requireGenerator()
	if err != nil {
		return ai.Rating{}, err
	}
	raw, err := gen.GenerateContent(ctx, ai.RatingPrompt(question, answer))
	if err != nil {
		s.metrics.IncrementLLMFailure("rate")
		return ai.Rating{}, s.modelError(ctx, "rating call failed", err)
	}
	rating, err := ai.ParseRating(raw)
	if err != nil {
		s.metrics.IncrementLLMFailure("rate")
		s.logger.WarnContext(ctx, "unusable rating", "error", err)
		return ai.Rating{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "Failed to process answer")
	}
	return rating, nil
}

// Feedback returns the stored answers in insertion order and the overall rating.
func (s *Service) Feedback(ctx context.Context, mockID string) (*models.Feedback, error) {
	iv, err := s.Get(ctx, mockID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByInterview(ctx, mockID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch feedback")
	}
	return &models.Feedback{
		InterviewID:   mockID,
		JobPosition:   iv.JobPosition,
		OverallRating: models.OverallRating(answers),
		Answers:       answers,
	}, nil
}

func (s *Service) requireGenerator() (Generator, error) {
	if s.generator == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "AI service is not configured")
	}
	return s.generator, nil
}

// modelError keeps coded errors from the AI client and hides anything else.
func (s *Service) modelError(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msgUnknown)
}

func requireEmail(ctx context.Context) (string, error) {
	email := requestcontext.UserEmail(ctx)
	if email == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return email, nil
}

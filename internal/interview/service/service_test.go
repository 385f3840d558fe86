package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mockview/internal/interview/metrics"
	"mockview/internal/interview/models"
	"mockview/internal/interview/service/mocks"
	"mockview/internal/interview/store"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/requestcontext"
)

// =============================================================================
// Interview Service Test Suite
// =============================================================================
// Justification: the model is the only nondeterministic collaborator, so it is
// mocked; stores are the in-memory implementations used in development.

const generatedQuestions = "```json\n" + `[
  {"Question": "What is a goroutine?", "Answer": "A lightweight thread."},
  {"Question": "What is a channel?", "Answer": "A typed conduit."}
]` + "\n```"

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	generator  *mocks.MockGenerator
	interviews *store.InMemoryInterviewStore
	answers    *store.InMemoryAnswerStore
	metrics    *metrics.Metrics
	service    *Service
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.generator = mocks.NewMockGenerator(s.ctrl)
	s.interviews = store.NewInMemoryInterviewStore()
	s.answers = store.NewInMemoryAnswerStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	svc, err := New(s.interviews, s.answers, WithGenerator(s.generator), WithMetrics(s.metrics))
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) as(email string) context.Context {
	ctx := requestcontext.WithUserEmail(context.Background(), email)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ServiceSuite) validRequest() CreateRequest {
	return CreateRequest{JobPosition: " Backend Engineer ", JobDesc: "Go, Postgres", JobExperience: "4"}
}

func (s *ServiceSuite) seedInterview(ctx context.Context) *models.Interview {
	s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("1", nil)
	s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return(generatedQuestions, nil)
	iv, err := s.service.Create(ctx, s.validRequest())
	s.Require().NoError(err)
	return iv
}

func (s *ServiceSuite) TestNewRequiresStores() {
	_, err := New(nil, s.answers)
	s.Error(err)
	_, err = New(s.interviews, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCreate() {
	s.Run("stores generated questions for the candidate", func() {
		ctx := s.as("ada@example.com")
		gomock.InOrder(
			s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, prompt string) (string, error) {
					s.Contains(prompt, "Backend Engineer")
					return " 1\n", nil
				}),
			s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return(generatedQuestions, nil),
		)

		iv, err := s.service.Create(ctx, s.validRequest())
		s.Require().NoError(err)
		s.NotEmpty(iv.MockID)
		s.Equal("Backend Engineer", iv.JobPosition)
		s.Equal("ada@example.com", iv.CreatedBy)
		s.Equal(s.now, iv.CreatedAt)
		s.Require().Len(iv.Questions, 2)
		s.Equal("What is a channel?", iv.Questions[1].Question)

		stored, err := s.interviews.FindByID(ctx, iv.MockID)
		s.Require().NoError(err)
		s.Equal(iv.Questions, stored.Questions)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.InterviewsCreated))
	})

	s.Run("maps validation codes to messages", func() {
		cases := map[string]string{
			"-1": "Job role does not appear to be a real-world role.",
			"-2": "Job description does not logically match the job role.",
			"-3": "Years of experience must be between 0 and 50.",
			"0":  "Job role, description, and experience are all invalid.",
		}
		for verdict, msg := range cases {
			s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return(verdict, nil)
			_, err := s.service.Create(s.as("ada@example.com"), s.validRequest())
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), verdict)
			s.Contains(err.Error(), msg)
		}
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.ValidationRejects.WithLabelValues("-3")))
	})

	s.Run("unknown verdict is a generic failure", func() {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("7", nil)
		_, err := s.service.Create(s.as("ada@example.com"), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(err.Error(), msgUnknown)
	})

	s.Run("unparseable verdict is a generic failure", func() {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("valid!", nil)
		_, err := s.service.Create(s.as("ada@example.com"), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("unusable generation is not stored", func() {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("1", nil)
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("here are your questions", nil)
		before, err := s.interviews.ListByCreator(context.Background(), "grace@example.com")
		s.Require().NoError(err)

		_, err = s.service.Create(s.as("grace@example.com"), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		after, err := s.interviews.ListByCreator(context.Background(), "grace@example.com")
		s.Require().NoError(err)
		s.Len(after, len(before))
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.LLMFailures.WithLabelValues("generate")))
	})

	s.Run("model errors are hidden behind a generic message", func() {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("", errors.New("socket closed"))
		_, err := s.service.Create(s.as("ada@example.com"), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(err.Error(), msgUnknown)
	})

	s.Run("coded model errors pass through", func() {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeTimeout, "model call timed out"))
		_, err := s.service.Create(s.as("ada@example.com"), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	s.Run("blank fields are rejected before the model is called", func() {
		_, err := s.service.Create(s.as("ada@example.com"), CreateRequest{JobPosition: "  ", JobDesc: "x", JobExperience: "1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires authentication", func() {
		_, err := s.service.Create(context.Background(), s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestCreateWithoutGenerator() {
	svc, err := New(s.interviews, s.answers)
	s.Require().NoError(err)
	_, err = svc.Create(s.as("ada@example.com"), s.validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestGetIsOwnerOnly() {
	iv := s.seedInterview(s.as("ada@example.com"))

	got, err := s.service.Get(s.as("ada@example.com"), iv.MockID)
	s.Require().NoError(err)
	s.Equal(iv.MockID, got.MockID)

	_, err = s.service.Get(s.as("mallory@example.com"), iv.MockID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(s.as("ada@example.com"), "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListIncludesAnswerCounts() {
	ctx := s.as("ada@example.com")
	first := s.seedInterview(ctx)
	s.now = s.now.Add(time.Hour)
	ctx = s.as("ada@example.com")
	second := s.seedInterview(ctx)

	_, err := s.service.RecordAnswer(ctx, AnswerInput{MockID: first.MockID, Question: "q1", UserEmail: "ada@example.com"})
	s.Require().NoError(err)

	list, err := s.service.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(second.MockID, list[0].MockID)
	s.Equal(0, list[0].AnswerCount)
	s.Equal(first.MockID, list[1].MockID)
	s.Equal(1, list[1].AnswerCount)

	other, err := s.service.List(s.as("grace@example.com"))
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *ServiceSuite) TestSaveAnswer() {
	ctx := s.as("ada@example.com")
	iv := s.seedInterview(ctx)

	s.Run("rates and stores the answer", func() {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, prompt string) (string, error) {
				s.Contains(prompt, "What is a goroutine?")
				s.Contains(prompt, "a cheap thread")
				return `{"rating": 7.6, "feedback": " Mention the scheduler. "}`, nil
			})
		a, err := s.service.SaveAnswer(ctx, SaveAnswerRequest{
			MockID:     iv.MockID,
			Question:   "What is a goroutine?",
			CorrectAns: "A lightweight thread.",
			UserAnswer: "a cheap thread",
		})
		s.Require().NoError(err)
		s.Equal(8, a.Rating)
		s.Equal("Mention the scheduler.", a.Feedback)
		s.Equal("ada@example.com", a.UserEmail)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.AnswersRecorded.WithLabelValues("true")))
	})

	s.Run("missing fields", func() {
		_, err := s.service.SaveAnswer(ctx, SaveAnswerRequest{MockID: iv.MockID, Question: "q"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "Missing required fields")
	})

	s.Run("someone else's interview", func() {
		_, err := s.service.SaveAnswer(s.as("mallory@example.com"), SaveAnswerRequest{
			MockID: iv.MockID, Question: "q", UserAnswer: "a",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unusable rating is not stored", func() {
		before, err := s.answers.ListByInterview(ctx, iv.MockID)
		s.Require().NoError(err)
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return("great answer", nil)
		_, err = s.service.SaveAnswer(ctx, SaveAnswerRequest{MockID: iv.MockID, Question: "q", UserAnswer: "a"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		after, err := s.answers.ListByInterview(ctx, iv.MockID)
		s.Require().NoError(err)
		s.Len(after, len(before))
	})
}

func (s *ServiceSuite) TestRecordBlankAnswerSkipsModel() {
	ctx := s.as("ada@example.com")
	a, err := s.service.RecordAnswer(ctx, AnswerInput{
		MockID:     "iv-1",
		Question:   "What is a goroutine?",
		UserAnswer: "   ",
		UserEmail:  "ada@example.com",
	})
	s.Require().NoError(err)
	s.Equal(0, a.Rating)
	s.Equal(NoAnswerFeedback, a.Feedback)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.AnswersRecorded.WithLabelValues("false")))
}

func (s *ServiceSuite) TestFeedback() {
	ctx := s.as("ada@example.com")
	iv := s.seedInterview(ctx)

	empty, err := s.service.Feedback(ctx, iv.MockID)
	s.Require().NoError(err)
	s.Equal(float64(0), empty.OverallRating)
	s.NotNil(empty.Answers)

	for _, raw := range []string{`{"rating": 8, "feedback": "ok"}`, `{"rating": 7, "feedback": "fine"}`} {
		s.generator.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).Return(raw, nil)
	}
	for i, q := range iv.Questions {
		_, err := s.service.RecordAnswer(ctx, AnswerInput{
			MockID: iv.MockID, Question: q.Question, CorrectAns: q.Answer,
			UserAnswer: strings.Repeat("x", i+1), UserEmail: "ada@example.com",
		})
		s.Require().NoError(err)
	}
	_, err = s.service.RecordAnswer(ctx, AnswerInput{MockID: iv.MockID, Question: "skipped", UserEmail: "ada@example.com"})
	s.Require().NoError(err)

	fb, err := s.service.Feedback(ctx, iv.MockID)
	s.Require().NoError(err)
	s.Equal(iv.MockID, fb.InterviewID)
	s.Equal("Backend Engineer", fb.JobPosition)
	s.Require().Len(fb.Answers, 3)
	s.Equal("What is a goroutine?", fb.Answers[0].Question)
	s.Equal("skipped", fb.Answers[2].Question)
	s.Equal(5.0, fb.OverallRating)

	_, err = s.service.Feedback(s.as("mallory@example.com"), iv.MockID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

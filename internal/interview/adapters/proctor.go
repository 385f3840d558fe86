// Package adapters connects the proctoring engine to the interview module.
package adapters

import (
	"context"

	"mockview/internal/interview/models"
	"mockview/internal/interview/service"
	proctormodels "mockview/internal/proctor/models"
	dErrors "mockview/pkg/domain-errors"
)

// InterviewService is the subset of the interview service the proctor needs.
type InterviewService interface {
	Get(ctx context.Context, mockID string) (*models.Interview, error)
	RecordAnswer(ctx context.Context, in service.AnswerInput) (*models.Answer, error)
}

// Interviews implements ports.AnswerPersister and supplies session questions.
type Interviews struct {
	svc InterviewService
}

func NewInterviews(svc InterviewService) *Interviews {
	return &Interviews{svc: svc}
}

// PersistAnswer rates and stores one submitted answer.
func (a *Interviews) PersistAnswer(ctx context.Context, rec proctormodels.AnswerRecord) error {
	_, err := a.svc.RecordAnswer(ctx, service.AnswerInput{
		MockID:     rec.InterviewID,
		Question:   rec.Question,
		CorrectAns: rec.Reference,
		UserAnswer: rec.Answer,
		UserEmail:  rec.UserEmail,
	})
	return err
}

// Questions loads the caller's interview as proctor questions.
func (a *Interviews) Questions(ctx context.Context, mockID string) ([]proctormodels.Question, error) {
	iv, err := a.svc.Get(ctx, mockID)
	if err != nil {
		return nil, err
	}
	if len(iv.Questions) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "interview has no questions")
	}
	out := make([]proctormodels.Question, len(iv.Questions))
	for i, q := range iv.Questions {
		out[i] = proctormodels.Question{Question: q.Question, Answer: q.Answer}
	}
	return out, nil
}

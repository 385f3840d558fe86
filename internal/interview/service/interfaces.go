//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

package service

import (
	"context"

	"mockview/internal/interview/models"
)

// InterviewStore persists generated interviews.
type InterviewStore interface {
	Create(ctx context.Context, iv *models.Interview) error
	FindByID(ctx context.Context, mockID string) (*models.Interview, error)
	ListByCreator(ctx context.Context, email string) ([]*models.Interview, error)
}

// AnswerStore persists rated answers in insertion order.
type AnswerStore interface {
	Append(ctx context.Context, a *models.Answer) error
	ListByInterview(ctx context.Context, mockID string) ([]models.Answer, error)
	CountByInterviews(ctx context.Context, mockIDs []string) (map[string]int, error)
}

// Generator is a text-in, text-out language model.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

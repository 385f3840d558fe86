//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Package ports declares the capabilities the proctoring engine needs from
// the outside world. Adapters live with the transport and interview modules.
package ports

import (
	"context"

	"mockview/internal/proctor/models"
)

// Deductor is the ledger's single mutating operation as seen by monitors.
type Deductor interface {
	Deduct(ctx context.Context, points int, reason models.Reason) models.Outcome
}

// AnswerPersister stores one answer. Called once per question on submit.
type AnswerPersister interface {
	PersistAnswer(ctx context.Context, rec models.AnswerRecord) error
}

// Navigator moves the candidate's view.
type Navigator interface {
	NavigateTo(ctx context.Context, path string) error
}

// ScreenController releases the browser from fullscreen.
type ScreenController interface {
	ExitFullscreen(ctx context.Context) error
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// EventPublisher receives session events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

package gaze

import (
	"context"

	"mockview/internal/proctor/models"
)

// Detector produces face landmarks for a frame. found is false when no face is visible.
type Detector interface {
	Init(ctx context.Context) error
	Detect(ctx context.Context, frame models.Frame) (landmarks []models.Point, found bool, err error)
}

// PassthroughDetector trusts landmarks computed by the client's in-page model.
type PassthroughDetector struct{}

func (PassthroughDetector) Init(context.Context) error { return nil }

func (PassthroughDetector) Detect(_ context.Context, frame models.Frame) ([]models.Point, bool, error) {
	if len(frame.Landmarks) < MinLandmarks {
		return nil, false, nil
	}
	return frame.Landmarks, true, nil
}

package gaze

import (
	"math"

	"mockview/internal/proctor/models"
)

// Face mesh landmark indices.
const (
	landmarkNoseTip     = 1
	landmarkLeftEyeOut  = 33
	landmarkChin        = 152
	landmarkRightEyeOut = 263

	// MinLandmarks is the shortest landmark slice that carries every index used.
	MinLandmarks = landmarkRightEyeOut + 1
)

// Pose is the head-pose heuristic derived from a single face. Values are in
// percent of the normalised image size.
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Width float64 `json:"width"`
}

// PoseFromLandmarks computes yaw from the horizontal eye span, pitch from the
// nose-to-chin drop and width from the eye-to-eye distance. ok is false when
// the slice is too short to contain a face.
func PoseFromLandmarks(lm []models.Point) (Pose, bool) {
	if len(lm) < MinLandmarks {
		return Pose{}, false
	}
	left, right := lm[landmarkLeftEyeOut], lm[landmarkRightEyeOut]
	nose, chin := lm[landmarkNoseTip], lm[landmarkChin]
	return Pose{
		Yaw:   (right.X - left.X) * 100,
		Pitch: (chin.Y - nose.Y) * 100,
		Width: math.Hypot(right.X-left.X, right.Y-left.Y) * 100,
	}, true
}

func meanPose(samples []Pose) Pose {
	var sum Pose
	for _, s := range samples {
		sum.Yaw += s.Yaw
		sum.Pitch += s.Pitch
		sum.Width += s.Width
	}
	n := float64(len(samples))
	return Pose{Yaw: sum.Yaw / n, Pitch: sum.Pitch / n, Width: sum.Width / n}
}

// ema blends raw into prev with weight alpha.
func ema(prev, raw Pose, alpha float64) Pose {
	return Pose{
		Yaw:   raw.Yaw*alpha + prev.Yaw*(1-alpha),
		Pitch: raw.Pitch*alpha + prev.Pitch*(1-alpha),
		Width: raw.Width*alpha + prev.Width*(1-alpha),
	}
}

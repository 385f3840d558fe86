// Package gaze watches head pose over a stream of face landmarks and charges
// the violation budget for sustained looking away, leaning out of range or
// leaving the frame.
//
// After Start the monitor calibrates a baseline pose from consecutive
// face-bearing frames, then compares an exponentially smoothed pose against
// it. Short glances are absorbed by a violation buffer; sustained violations
// deduct on a fixed cadence and recovery drains the counter faster than
// violations fill it.
package gaze

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports"
	"mockview/pkg/requestcontext"
)

const (
	MessageLoading     = "Loading Neural Net..."
	MessageCalibrating = "Sit comfortably & look at screen..."
	MessageActive      = "Monitoring Active"
	MessageFocused     = "Focused"
	MessageCameraError = "Camera Access Failed"
)

type Config struct {
	DetectionInterval time.Duration
	CalibrationFrames int
	ViolationBuffer   int
	DeductEvery       int
	Points            int
	RecoveryStep      int
	EMAAlpha          float64
	YawThreshold      float64
	PitchThreshold    float64
	DistanceMin       float64
	DistanceMax       float64
}

func DefaultConfig() Config {
	return Config{
		DetectionInterval: 100 * time.Millisecond,
		CalibrationFrames: 30,
		ViolationBuffer:   15,
		DeductEvery:       20,
		Points:            2,
		RecoveryStep:      2,
		EMAAlpha:          0.2,
		YawThreshold:      12,
		PitchThreshold:    15,
		DistanceMin:       0.7,
		DistanceMax:       1.4,
	}
}

// StatusFunc observes status or message changes.
type StatusFunc func(ctx context.Context, status models.GazeStatus, message string)

// Monitor must not be re-entered from the Deductor or StatusFunc.
type Monitor struct {
	mu       sync.Mutex
	cfg      Config
	deductor ports.Deductor
	detector Detector
	onStatus StatusFunc
	logger   *slog.Logger

	status   models.GazeStatus
	message  string
	lastRun  time.Time
	hasRun   bool
	calib    []Pose
	baseline Pose
	smooth   Pose
	counter  int
	stopped  bool
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithDetector(d Detector) Option {
	return func(m *Monitor) {
		if d != nil {
			m.detector = d
		}
	}
}

func WithStatusFunc(fn StatusFunc) Option {
	return func(m *Monitor) { m.onStatus = fn }
}

func New(deductor ports.Deductor, cfg Config, opts ...Option) *Monitor {
	def := DefaultConfig()
	if cfg.CalibrationFrames <= 0 {
		cfg.CalibrationFrames = def.CalibrationFrames
	}
	if cfg.DeductEvery <= 0 {
		cfg.DeductEvery = def.DeductEvery
	}
	if cfg.EMAAlpha <= 0 || cfg.EMAAlpha > 1 {
		cfg.EMAAlpha = def.EMAAlpha
	}
	if cfg.Points <= 0 {
		cfg.Points = def.Points
	}
	if cfg.RecoveryStep <= 0 {
		cfg.RecoveryStep = def.RecoveryStep
	}
	m := &Monitor{
		cfg:      cfg,
		deductor: deductor,
		detector: PassthroughDetector{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		status:   models.GazeInitializing,
		message:  MessageLoading,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start initialises the detector and enters calibration. A failed
// initialisation leaves the monitor in the error state; the session goes on
// without gaze checks.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.detector.Init(ctx); err != nil {
		m.logger.WarnContext(ctx, "gaze detector unavailable, monitoring disabled", "error", err)
		m.Fail(ctx, MessageCameraError)
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.status == models.GazeError {
		return nil
	}
	m.setStatusLocked(ctx, models.GazeCalibrating, MessageCalibrating)
	return nil
}

// Fail puts the monitor in the degraded error state.
func (m *Monitor) Fail(ctx context.Context, message string) {
	if message == "" {
		message = MessageCameraError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusLocked(ctx, models.GazeError, message)
}

// Stop disables the monitor. Frames processed afterwards have no effect.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Snapshot returns the current status and message.
func (m *Monitor) Snapshot() (models.GazeStatus, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.message
}

// Baseline returns the calibrated pose and whether calibration has finished.
func (m *Monitor) Baseline() (Pose, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline, m.calibratedLocked()
}

// Run processes frames from src until ctx is done or src is drained. The
// source is closed on return.
func (m *Monitor) Run(ctx context.Context, src FrameSource) error {
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.WarnContext(ctx, "failed to release frame source", "error", err)
		}
	}()
	if err := m.Start(ctx); err != nil {
		return nil
	}
	frames := src.Frames()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			m.Process(ctx, frame)
		}
	}
}

// Process evaluates a single frame and returns the resulting status.
func (m *Monitor) Process(ctx context.Context, frame models.Frame) models.GazeStatus {
	ts := frame.CapturedAt
	if ts.IsZero() {
		ts = requestcontext.Now(ctx)
	}

	landmarks, found, err := m.detector.Detect(ctx, frame)
	if err != nil {
		m.logger.DebugContext(ctx, "frame detection failed", "error", err)
		found = false
	}
	pose, hasFace := Pose{}, false
	if found {
		pose, hasFace = PoseFromLandmarks(landmarks)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || m.status == models.GazeInitializing || m.status == models.GazeError {
		return m.status
	}
	if m.hasRun && ts.Sub(m.lastRun) < m.cfg.DetectionInterval {
		return m.status
	}
	m.lastRun = ts
	m.hasRun = true

	if !m.calibratedLocked() {
		m.calibrateLocked(ctx, pose, hasFace)
		return m.status
	}

	if !hasFace {
		m.violationLocked(ctx, models.ReasonFaceNotVisible)
		return m.status
	}

	m.smooth = ema(m.smooth, pose, m.cfg.EMAAlpha)
	if reason, bad := m.classifyLocked(); bad {
		m.violationLocked(ctx, reason)
		return m.status
	}

	m.counter = max(0, m.counter-m.cfg.RecoveryStep)
	if m.counter == 0 {
		m.setStatusLocked(ctx, models.GazeFocused, MessageFocused)
	}
	return m.status
}

func (m *Monitor) calibratedLocked() bool {
	return m.status == models.GazeFocused || m.status == models.GazeViolation
}

// calibrateLocked needs CalibrationFrames consecutive face frames; a frame
// without a face starts the count again.
func (m *Monitor) calibrateLocked(ctx context.Context, pose Pose, hasFace bool) {
	if !hasFace {
		m.calib = m.calib[:0]
		return
	}
	m.calib = append(m.calib, pose)
	if len(m.calib) < m.cfg.CalibrationFrames {
		return
	}
	m.baseline = meanPose(m.calib)
	m.smooth = m.baseline
	m.calib = nil
	m.counter = 0
	m.logger.InfoContext(ctx, "gaze calibrated",
		"yaw", m.baseline.Yaw,
		"pitch", m.baseline.Pitch,
		"width", m.baseline.Width,
	)
	m.setStatusLocked(ctx, models.GazeFocused, MessageActive)
}

// classifyLocked applies the checks in precedence order: side, up/down,
// too far, too close. Distance checks are skipped without a usable baseline width.
func (m *Monitor) classifyLocked() (models.Reason, bool) {
	if math.Abs(m.smooth.Yaw-m.baseline.Yaw) > m.cfg.YawThreshold {
		return models.ReasonLookingAwaySide, true
	}
	if math.Abs(m.smooth.Pitch-m.baseline.Pitch) > m.cfg.PitchThreshold {
		return models.ReasonLookingAwayUpDown, true
	}
	if m.baseline.Width == 0 {
		return "", false
	}
	ratio := m.smooth.Width / m.baseline.Width
	switch {
	case ratio < m.cfg.DistanceMin:
		return models.ReasonTooFar, true
	case ratio > m.cfg.DistanceMax:
		return models.ReasonTooClose, true
	}
	return "", false
}

func (m *Monitor) violationLocked(ctx context.Context, reason models.Reason) {
	m.counter++
	if m.counter <= m.cfg.ViolationBuffer {
		return
	}
	m.setStatusLocked(ctx, models.GazeViolation, string(reason))
	if m.counter%m.cfg.DeductEvery == 0 {
		m.deductor.Deduct(ctx, m.cfg.Points, reason)
	}
}

func (m *Monitor) setStatusLocked(ctx context.Context, status models.GazeStatus, message string) {
	if m.status == status && m.message == message {
		return
	}
	m.status = status
	m.message = message
	if m.onStatus != nil {
		m.onStatus(ctx, status, message)
	}
}

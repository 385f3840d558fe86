package models

import (
	"fmt"
	"time"
)

// Reason labels a violation. Cooldowns are tracked per reason.
type Reason string

const (
	ReasonTabSwitched       Reason = "Tab switched"
	ReasonWindowBlur        Reason = "Window lost focus"
	ReasonExitedFullscreen  Reason = "Exited fullscreen"
	ReasonTimeOver          Reason = "Time over"
	ReasonFaceNotVisible    Reason = "Face not visible"
	ReasonLookingAwaySide   Reason = "Looking Away (Side)"
	ReasonLookingAwayUpDown Reason = "Looking Away (Up/Down)"
	ReasonTooFar            Reason = "Too Far Back"
	ReasonTooClose          Reason = "Too Close"
)

// FullscreenGraceReason is the reason recorded when the grace period after
// leaving fullscreen expires.
func FullscreenGraceReason(grace time.Duration) Reason {
	return Reason(fmt.Sprintf("Browser not in fullscreen for %d seconds", int(grace.Round(time.Second)/time.Second)))
}

// Outcome is the result of a single deduction attempt.
type Outcome int

const (
	// OutcomeApplied means the budget was reduced.
	OutcomeApplied Outcome = iota
	// OutcomeCooldown means the same reason fired within the cooldown window.
	OutcomeCooldown
	// OutcomeExhausted means the budget was already at zero.
	OutcomeExhausted
	// OutcomeIgnored means the points were not positive.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "ignored"
	}
}

// Notification is emitted for every applied deduction. Seq increases by one
// per deduction of the same ledger.
type Notification struct {
	Seq       uint64    `json:"seq"`
	Reason    Reason    `json:"reason"`
	Points    int       `json:"points"`
	Remaining int       `json:"remaining"`
	At        time.Time `json:"at"`
}

// Message renders the user-facing warning line.
func (n Notification) Message() string {
	return fmt.Sprintf("⚠ %s (-%d) | Remaining: %d", n.Reason, n.Points, n.Remaining)
}

// GazeStatus is the externally visible state of the gaze monitor.
type GazeStatus string

const (
	GazeInitializing GazeStatus = "initializing"
	GazeCalibrating  GazeStatus = "calibrating"
	GazeFocused      GazeStatus = "focused"
	GazeViolation    GazeStatus = "violation"
	GazeError        GazeStatus = "error"
)

// Point is a normalised face landmark. X and Y are in [0,1] image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Frame is one camera sample. A nil or short Landmarks slice means no face was found.
type Frame struct {
	CapturedAt time.Time `json:"captured_at"`
	Landmarks  []Point   `json:"landmarks"`
}

// Question is one interview prompt with its reference answer.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// EndReason records why a session stopped.
type EndReason string

const (
	EndNone            EndReason = ""
	EndSubmitted       EndReason = "submitted"
	EndBudgetExhausted EndReason = "budget_exhausted"
	EndAbandoned       EndReason = "abandoned"
)

// Snapshot is the display state of a session.
type Snapshot struct {
	SessionID       string     `json:"session_id"`
	InterviewID     string     `json:"interview_id"`
	UserEmail       string     `json:"user_email"`
	RemainingBudget int        `json:"remaining_budget"`
	InitialBudget   int        `json:"initial_budget"`
	GazeStatus      GazeStatus `json:"gaze_status"`
	GazeMessage     string     `json:"gaze_message"`
	TimeRemaining   int        `json:"time_remaining_seconds"`
	TimeDisplay     string     `json:"time_display"`
	ActiveIndex     int        `json:"active_index"`
	QuestionCount   int        `json:"question_count"`
	Answered        int        `json:"answered"`
	Browser         string     `json:"browser,omitempty"`
	Terminated      bool       `json:"terminated"`
	EndReason       EndReason  `json:"end_reason,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EventType classifies published session events.
type EventType string

const (
	EventSessionStarted  EventType = "session_started"
	EventDeduction       EventType = "deduction"
	EventGazeStatus      EventType = "gaze_status"
	EventAutoSubmit      EventType = "auto_submit"
	EventSubmitted       EventType = "submitted"
	EventSubmitFailed    EventType = "submit_partial_failure"
	EventSessionAbandon  EventType = "session_abandoned"
	EventCameraReleased  EventType = "camera_released"
	EventFullscreenError EventType = "fullscreen_exit_failed"
)

// Event is the record published to the event stream for every notable
// session transition.
type Event struct {
	Type        EventType `json:"type"`
	SessionID   string    `json:"session_id"`
	InterviewID string    `json:"interview_id"`
	UserEmail   string    `json:"user_email,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Points      int       `json:"points,omitempty"`
	Remaining   int       `json:"remaining"`
	Timestamp   time.Time `json:"timestamp"`
}

// AnswerRecord is what the session hands to the answer persister on submit.
type AnswerRecord struct {
	InterviewID string
	Question    string
	Reference   string
	Answer      string
	UserEmail   string
}

// SubmitFailure describes one answer that could not be persisted.
type SubmitFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// SubmitReport summarises a submission pass.
type SubmitReport struct {
	Persisted   int             `json:"persisted"`
	Failed      []SubmitFailure `json:"failed,omitempty"`
	RedirectTo  string          `json:"redirect_to"`
	AutoSubmit  bool            `json:"auto_submit"`
	CompletedAt time.Time       `json:"completed_at"`
}

// ResultsPath is where the candidate is sent after a submission.
func ResultsPath(interviewID string) string {
	return "/dashboard/interview/" + interviewID + "/feedback"
}

// Package handler exposes proctored exam sessions over HTTP. Browser signals
// come in as JSON posts; commands for the browser go out over an event stream.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mockview/internal/ai"
	aihandler "mockview/internal/ai/handler"
	"mockview/internal/platform/middleware"
	"mockview/internal/proctor/models"
	"mockview/internal/proctor/session"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/httputil"
	"mockview/pkg/platform/middleware/metadata"
	"mockview/pkg/platform/sentinel"
	"mockview/pkg/requestcontext"
)

// Sessions is the live session registry.
type Sessions interface {
	Create(ctx context.Context, p session.Params) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Snapshot(ctx context.Context, id string) (*models.Snapshot, error)
}

// QuestionSource loads the questions of one of the caller's interviews.
type QuestionSource interface {
	Questions(ctx context.Context, interviewID string) ([]models.Question, error)
}

type Config struct {
	// AllowClientMinutes honours exam_minutes from the create request.
	AllowClientMinutes bool
	MaxExamDuration    time.Duration
	SubmitTimeout      time.Duration
	Heartbeat          time.Duration
}

type Handler struct {
	sessions    Sessions
	questions   QuestionSource
	transcriber aihandler.Transcriber
	cfg         Config
	logger      *slog.Logger
}

func New(sessions Sessions, questions QuestionSource, transcriber aihandler.Transcriber, cfg Config, logger *slog.Logger) *Handler {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = time.Minute
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 15 * time.Second
	}
	return &Handler{
		sessions:    sessions,
		questions:   questions,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logger,
	}
}

// Register mounts the session routes. The caller applies authentication.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.With(middleware.ContentTypeJSON).Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleAbort)
			r.Get("/events", h.handleEvents)
			r.Get("/questions/{index}", h.handleQuestion)
			r.Post("/next", h.handleNext)
			r.Post("/previous", h.handlePrevious)
			r.Post("/submit", h.handleSubmit)
			r.Post("/answers/{index}/audio", h.handleAnswerAudio)

			r.Group(func(r chi.Router) {
				r.Use(middleware.ContentTypeJSON)
				r.Post("/signals", h.handleSignal)
				r.Post("/frames", h.handleFrame)
				r.Post("/camera-error", h.handleCameraError)
				r.Put("/answers/{index}", h.handleAnswer)
			})
		})
	})
}

type CreateRequest struct {
	InterviewID string `json:"interview_id"`
	ExamMinutes int    `json:"exam_minutes,omitempty"`
}

// SessionResponse is a snapshot plus the active question's prompt.
type SessionResponse struct {
	models.Snapshot
	Question string `json:"question,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := requestcontext.UserEmail(ctx)
	if email == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.InterviewID = strings.TrimSpace(req.InterviewID)
	if req.InterviewID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "interview_id is required"))
		return
	}
	duration, err := h.examDuration(req.ExamMinutes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	questions, err := h.questions.Questions(ctx, req.InterviewID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	s, err := h.sessions.Create(ctx, session.Params{
		InterviewID:  req.InterviewID,
		UserEmail:    email,
		Browser:      metadata.Browser(ctx),
		Questions:    questions,
		ExamDuration: duration,
	})
	if errors.Is(err, sentinel.ErrUnavailable) {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "server is shutting down"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start session",
			"error", err,
			"interview_id", req.InterviewID,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session"))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse(s))
}

func (h *Handler) examDuration(minutes int) (time.Duration, error) {
	if minutes == 0 || !h.cfg.AllowClientMinutes {
		return 0, nil
	}
	d := time.Duration(minutes) * time.Minute
	if minutes < 0 || (h.cfg.MaxExamDuration > 0 && d > h.cfg.MaxExamDuration) {
		return 0, dErrors.New(dErrors.CodeValidation, "exam_minutes is out of range")
	}
	return d, nil
}

func sessionResponse(s *session.Session) SessionResponse {
	snap := s.State()
	q, _ := s.Question(snap.ActiveIndex)
	return SessionResponse{Snapshot: snap, Question: q}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if s, err := h.session(r); err == nil {
		httputil.WriteJSON(w, http.StatusOK, sessionResponse(s))
		return
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		httputil.WriteError(w, err)
		return
	}
	snap, err := h.sessions.Snapshot(ctx, id)
	if err != nil || snap.UserEmail != requestcontext.UserEmail(ctx) {
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.ErrorContext(ctx, "failed to load snapshot", "error", err, "session_id", id)
		}
		httputil.WriteError(w, errSessionNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{Snapshot: *snap})
}

var errSessionNotFound = dErrors.New(dErrors.CodeNotFound, "session not found")

// session resolves the live session owned by the caller. Other candidates'
// sessions are reported as not found.
func (h *Handler) session(r *http.Request) (*session.Session, error) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errSessionNotFound
	}
	if s.UserEmail() != requestcontext.UserEmail(r.Context()) {
		return nil, errSessionNotFound
	}
	return s, nil
}

const (
	signalVisibility = "visibility"
	signalBlur       = "blur"
	signalFullscreen = "fullscreen"
)

type SignalRequest struct {
	Type   string `json:"type"`
	Hidden bool   `json:"hidden,omitempty"`
	Active bool   `json:"active,omitempty"`
}

func (h *Handler) handleSignal(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req SignalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ctx := r.Context()
	switch req.Type {
	case signalVisibility:
		s.Visibility(ctx, req.Hidden)
	case signalBlur:
		s.Blur(ctx)
	case signalFullscreen:
		s.Fullscreen(ctx, req.Active)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "type must be visibility, blur or fullscreen"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type FrameResponse struct {
	Accepted bool `json:"accepted"`
}

func (h *Handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var frame models.Frame
	if err := httputil.DecodeJSON(r, &frame); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = requestcontext.Now(r.Context())
	}
	httputil.WriteJSON(w, http.StatusAccepted, FrameResponse{Accepted: s.PushFrame(frame)})
}

type CameraErrorRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleCameraError(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req CameraErrorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.CameraError(r.Context(), req.Message)
	w.WriteHeader(http.StatusAccepted)
}

type QuestionResponse struct {
	ActiveIndex int    `json:"active_index"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
}

func questionResponse(s *session.Session, index int) QuestionResponse {
	q, _ := s.Question(index)
	a, _ := s.Answer(index)
	return QuestionResponse{ActiveIndex: index, Question: q, Answer: a}
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, questionResponse(s, s.Next()))
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, questionResponse(s, s.Previous()))
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	s, index, err := h.sessionAndIndex(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if _, err := s.Question(index); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, questionResponse(s, index))
}

func (h *Handler) sessionAndIndex(r *http.Request) (*session.Session, int, error) {
	s, err := h.session(r)
	if err != nil {
		return nil, 0, err
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return nil, 0, dErrors.New(dErrors.CodeBadRequest, "question index must be an integer")
	}
	return s, index, nil
}

type AnswerRequest struct {
	Text string `json:"text"`
}

type AnswerResponse struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Transcript string `json:"transcript,omitempty"`
	Understood *bool  `json:"understood,omitempty"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	s, index, err := h.sessionAndIndex(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req AnswerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := s.RecordAnswer(index, req.Text); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AnswerResponse{Index: index, Text: req.Text})
}

// handleAnswerAudio transcribes a recorded clip and appends it to the answer.
// A clip the model could not make out is reported but not recorded.
func (h *Handler) handleAnswerAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, index, err := h.sessionAndIndex(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if _, err := s.Question(index); err != nil {
		httputil.WriteError(w, err)
		return
	}
	audio, mimeType, err := aihandler.ReadAudio(r, "audio")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	transcript, err := aihandler.Transcribe(ctx, h.transcriber, audio, mimeType)
	if err != nil {
		h.logger.ErrorContext(ctx, "answer transcription failed",
			"error", err,
			"session_id", s.ID(),
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	understood := ai.Understood(transcript)
	text, _ := s.Answer(index)
	if understood {
		if text, err = s.AppendAnswer(index, transcript); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, AnswerResponse{
		Index:      index,
		Text:       text,
		Transcript: transcript,
		Understood: &understood,
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.SubmitTimeout)
	defer cancel()
	report, err := s.Submit(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAbort(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := s.Abort(r.Context()); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeTimeout, "session teardown still in progress"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mockview/internal/interview/export"
	"mockview/internal/interview/metrics"
	"mockview/internal/interview/models"
	"mockview/internal/interview/service"
	"mockview/internal/platform/middleware"
	"mockview/pkg/platform/httputil"
	"mockview/pkg/requestcontext"
)

// Service is the interview application service.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.Interview, error)
	Get(ctx context.Context, mockID string) (*models.Interview, error)
	List(ctx context.Context) ([]models.Summary, error)
	SaveAnswer(ctx context.Context, req service.SaveAnswerRequest) (*models.Answer, error)
	Feedback(ctx context.Context, mockID string) (*models.Feedback, error)
}

type Handler struct {
	service Service
	metrics *metrics.Metrics
	logger  *slog.Logger
	// generation and rating wait on the model
	modelTimeout time.Duration
}

func New(svc Service, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{service: svc, metrics: m, logger: logger, modelTimeout: 90 * time.Second}
}

// Register mounts the interview routes. The caller applies authentication.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/interviews", func(r chi.Router) {
		r.With(middleware.ContentTypeJSON, middleware.Timeout(h.modelTimeout)).Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.With(middleware.ContentTypeJSON, middleware.Timeout(h.modelTimeout)).Post("/answers", h.handleSaveAnswer)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/feedback", h.handleFeedback)
		r.Get("/{id}/feedback/export", h.handleExport)
	})
}

type listResponse struct {
	Interviews []models.Summary `json:"interviews"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	iv, err := h.service.Create(ctx, req)
	if err != nil {
		h.logFailure(ctx, "failed to create interview", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, iv)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "failed to list interviews", err)
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Summary{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Interviews: list})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	iv, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, iv)
}

func (h *Handler) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.SaveAnswerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	answer, err := h.service.SaveAnswer(ctx, req)
	if err != nil {
		h.logFailure(ctx, "failed to save answer", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, answer)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	fb, err := h.service.Feedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fb)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	fb, err := h.service.Feedback(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// Rendered into memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteFeedback(&buf, fb, requestcontext.Now(ctx)); err != nil {
		h.logFailure(ctx, "failed to render feedback workbook", err)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.IncrementFeedbackExports()
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(id)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
}

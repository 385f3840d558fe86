package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mockview/internal/ai"
	"mockview/internal/platform/middleware"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/httputil"
)

// MaxAudioBytes bounds one recorded answer upload.
const MaxAudioBytes = 10 << 20

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type Handler struct {
	transcriber Transcriber
	logger      *slog.Logger
	timeout     time.Duration
}

// New returns a handler. A nil transcriber makes every request answer 503.
func New(transcriber Transcriber, logger *slog.Logger) *Handler {
	return &Handler{transcriber: transcriber, logger: logger, timeout: 60 * time.Second}
}

// Register mounts the AI routes. Uploads are multipart, so ContentTypeJSON is not applied.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.Timeout(h.timeout)).Post("/api/ai/transcribe", h.handleTranscribe)
}

type TranscribeResponse struct {
	Text       string `json:"text"`
	Understood bool   `json:"understood"`
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	audio, mimeType, err := ReadAudio(r, "audio")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	text, err := Transcribe(ctx, h.transcriber, audio, mimeType)
	if err != nil {
		h.logger.ErrorContext(ctx, "transcription failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TranscribeResponse{Text: text, Understood: ai.Understood(text)})
}

// Transcribe guards against a missing transcriber.
func Transcribe(ctx context.Context, t Transcriber, audio []byte, mimeType string) (string, error) {
	if t == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "transcription is not configured")
	}
	return t.Transcribe(ctx, audio, mimeType)
}

// ReadAudio reads the named multipart file field.
func ReadAudio(r *http.Request, field string) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxAudioBytes+1<<10)
	file, header, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", dErrors.New(dErrors.CodeValidation, "audio file is too large")
		}
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "No audio file provided")
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, MaxAudioBytes+1))
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read audio file")
	}
	if len(audio) > MaxAudioBytes {
		return nil, "", dErrors.New(dErrors.CodeValidation, "audio file is too large")
	}
	if len(audio) == 0 {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "No audio file provided")
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = ai.DefaultAudioMIME
	}
	return audio, mimeType, nil
}

// Package ai talks to Gemini on Vertex AI for interview generation, answer
// rating and speech transcription.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"mockview/internal/platform/config"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/circuit"
)

// Model is the slice of *genai.GenerativeModel the client uses.
type Model interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

// VertexClient wraps a Gemini model behind a circuit breaker.
type VertexClient struct {
	model   Model
	closer  io.Closer
	breaker *circuit.Breaker
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*VertexClient)

func WithLogger(logger *slog.Logger) Option {
	return func(c *VertexClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *VertexClient) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithTimeout bounds each model call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *VertexClient) { c.timeout = d }
}

// New wraps an existing model.
func New(model Model, opts ...Option) (*VertexClient, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	c := &VertexClient{
		model:   model,
		breaker: circuit.New("vertexai"),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  otel.Tracer("mockview/internal/ai"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewVertexClient connects to Vertex AI. It returns nil when no project is configured.
func NewVertexClient(ctx context.Context, cfg config.VertexAI, opts ...Option) (*VertexClient, error) {
	if cfg.Project == "" {
		return nil, nil
	}
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := genai.NewClient(ctx, cfg.Project, cfg.Location, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.4)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(2048)

	c, err := New(model, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	c.closer = client
	return c, nil
}

// GenerateContent sends a text prompt and returns the concatenated text parts.
func (c *VertexClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "ai.generate", genai.Text(prompt))
}

// Transcribe returns the speech in audio as text. Silence yields "".
func (c *VertexClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "audio is empty")
	}
	if mimeType == "" {
		mimeType = DefaultAudioMIME
	}
	text, err := c.call(ctx, "ai.transcribe", genai.Text(TranscribePrompt), genai.Blob{MIMEType: mimeType, Data: audio})
	if errors.Is(err, ErrEmptyResponse) {
		return "", nil
	}
	return strings.TrimSpace(text), err
}

func (c *VertexClient) call(ctx context.Context, op string, parts ...genai.Part) (string, error) {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int("parts", len(parts))))
	defer span.End()

	if !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		return "", dErrors.New(dErrors.CodeUnavailable, "AI service is temporarily unavailable")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "circuit breaker opened", "breaker", c.breaker.Name(), "op", op)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "AI request timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "AI request failed")
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "circuit breaker closed", "breaker", c.breaker.Name(), "op", op)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// Close releases the underlying Vertex client, if any.
func (c *VertexClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

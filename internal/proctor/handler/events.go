package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/session"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/httputil"
	"mockview/pkg/requestcontext"
)

// handleEvents streams session commands as server-sent events. A browser that
// connects after its session ended gets the results redirect and the stream
// closes.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	var (
		commands    <-chan session.Command
		unsubscribe = func() {}
	)
	s, err := h.session(r)
	if err == nil {
		commands, unsubscribe = s.Subscribe()
	} else {
		snap, snapErr := h.sessions.Snapshot(ctx, chi.URLParam(r, "id"))
		if snapErr != nil || snap.UserEmail != requestcontext.UserEmail(ctx) || !snap.Terminated {
			httputil.WriteError(w, errSessionNotFound)
			return
		}
		ch := make(chan session.Command, 1)
		ch <- session.Command{Type: session.CommandNavigate, Data: session.NavigatePayload{Path: models.ResultsPath(snap.InterviewID)}}
		close(ch)
		commands = ch
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.cfg.Heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case cmd, open := <-commands:
			if !open {
				return
			}
			if err := writeEvent(w, cmd); err != nil {
				h.logger.DebugContext(ctx, "event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, cmd session.Command) error {
	data := []byte("{}")
	if cmd.Data != nil {
		var err error
		if data, err = json.Marshal(cmd.Data); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", cmd.Type, data)
	return err
}

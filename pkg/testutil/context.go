package testutil

import (
	"net/http"
	"time"

	"mockview/pkg/requestcontext"
)

// WithUserEmail marks the request as authenticated for email.
// This simulates what the auth middleware would do for a valid bearer token.
func WithUserEmail(req *http.Request, email string) *http.Request {
	if email == "" {
		return req
	}
	return req.WithContext(requestcontext.WithUserEmail(req.Context(), email))
}

// WithRequestTime pins the request time so time-dependent handlers are deterministic.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

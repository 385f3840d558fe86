package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. There is no
// WriteTimeout because session event streams stay open for the whole exam;
// JSON routes are bounded by the Timeout middleware instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

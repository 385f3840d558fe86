package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"mockview/pkg/platform/httputil"
	"mockview/pkg/requestcontext"
)

// TokenValidator resolves a bearer token to the candidate's email.
type TokenValidator interface {
	Email(token string) (string, error)
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
		Error:            "unauthorized",
		ErrorDescription: desc,
	})
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated email in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			email, err := validator.Email(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserEmail(ctx, email)))
		})
	}
}

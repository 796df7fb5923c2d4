package http

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
)

// userEmailHeader carries the acting user's identity, injected by the
// authenticating reverse proxy in front of this service.
const userEmailHeader = "X-User-Email"

// RequireUser resolves the principal from the identity header and rejects
// requests without a valid one.
func RequireUser(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.TrimSpace(r.Header.Get(userEmailHeader))
			if email == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingUserEmail)
				return
			}
			if _, err := mail.ParseAddress(email); err != nil {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingUserEmail)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), application.Principal{Email: strings.ToLower(email)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger carrying a request id and
// logs the request lifecycle.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", uuid.NewString(),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

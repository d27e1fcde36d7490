package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"messease/internal/domain/auth"
	"messease/internal/transport/http/api"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Session, error)
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Auth attaches the session for a valid bearer token. Requests without one pass through anonymously.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			session, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrSessionExpired) {
					slog.Warn("session lookup failed", "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

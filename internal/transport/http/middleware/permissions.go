package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"messease/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// RequirePermission admits the request only when the session role grants
// permission. Denials are logged with the admin and the permission asked for.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			session, ok := GetSession(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			allowed, err := store.HasPermission(r.Context(), session.Role, permission)
			switch {
			case err != nil:
				slog.Error("permission check failed", "permission", permission, "role", session.Role, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", reqID)
			case !allowed:
				slog.Info("permission denied", "adminId", session.AdminID, "role", session.Role, "permission", permission, "path", r.URL.Path)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

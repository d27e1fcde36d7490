package dashboardhandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/auth"
	"messease/internal/domain/dashboard"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
)

type Handler struct {
	Service *dashboard.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *dashboard.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermDashboardRead, h.Perms)).Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		slog.Warn("dashboard stats failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

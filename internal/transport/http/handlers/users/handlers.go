package usershandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/users"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

type Handler struct {
	Service *users.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *users.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/{userID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Patch("/{userID}", h.handleUpdate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 500)
	result, err := h.Service.List(r.Context(), users.Filter{
		Search:      r.URL.Query().Get("q"),
		Designation: r.URL.Query().Get("designation"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.List(w, result.Users, result.Total, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "user_get_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload users.Update
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "userID")
	before, after, err := h.Service.Edit(r.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, users.ErrEmptyUpdate):
			api.Fail(w, http.StatusBadRequest, "empty_update", err.Error(), middleware.GetRequestID(r.Context()))
		case errors.Is(err, users.ErrInvalidEmail):
			shared.FailField(w, middleware.GetRequestID(r.Context()), "email", "must be a valid email address")
		case errors.Is(err, users.ErrEmptyName):
			shared.FailField(w, middleware.GetRequestID(r.Context()), "name", err.Error())
		default:
			api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     audit.ActionUserEdit,
		EntityType: "user",
		EntityID:   id,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit user.edit failed", "err", err)
	}
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

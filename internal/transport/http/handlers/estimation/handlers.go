package estimationhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/estimation"
	"messease/internal/domain/menu"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

type Handler struct {
	Service *estimation.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *estimation.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/estimation", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEstimationRun, h.Perms)).Get("/preview", h.handlePreview)
		r.With(middleware.RequirePermission(auth.PermEstimationRun, h.Perms)).Get("/state", h.handleState)
		r.With(middleware.RequirePermission(auth.PermEstimationRun, h.Perms)).Post("/runs", h.handleRun)
		r.With(middleware.RequirePermission(auth.PermEstimationRun, h.Perms)).Delete("/runs/current", h.handleCancel)
	})
}

type runRequest struct {
	MealSlot string `json:"mealSlot"`
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	slot, ok := menu.ParseMealSlot(r.URL.Query().Get("slot"))
	if !ok {
		shared.FailField(w, middleware.GetRequestID(r.Context()), "slot", "must be one of Breakfast, Lunch, Snacks, Dinner")
		return
	}
	inputs, err := h.Service.Preview(r.Context(), slot)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "estimation_preview_failed", "failed to build estimation inputs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, inputs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Service.State(session.SessionID), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload runRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	slot, ok := menu.ParseMealSlot(payload.MealSlot)
	if !ok {
		shared.FailField(w, middleware.GetRequestID(r.Context()), "mealSlot", "must be one of Breakfast, Lunch, Snacks, Dinner")
		return
	}

	view, err := h.Service.Run(r.Context(), session.SessionID, slot)
	if err != nil {
		if errors.Is(err, estimation.ErrInvalidSlot) {
			shared.FailField(w, middleware.GetRequestID(r.Context()), "mealSlot", "unknown meal slot")
			return
		}
		status := statusFor(err)
		message := err.Error()
		if view.Error != nil {
			message = view.Error.Message
		}
		api.FailWithDetails(w, status, estimation.ErrorCode(err), message, view, middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), audit.Entry{
			ActorID:    session.AdminID,
			Action:     audit.ActionEstimationRun,
			EntityType: "estimation",
			EntityID:   string(slot),
			RequestID:  middleware.GetRequestID(r.Context()),
			IP:         middleware.ClientIP(r),
			After:      map[string]any{"mealSlot": slot, "expected": view.Inputs.Projection.Expected, "items": len(view.Manifest.Estimates)},
		}); err != nil {
			slog.Warn("audit estimation.run failed", "err", err)
		}
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	cancelled := h.Service.Cancel(session.SessionID)
	api.Success(w, map[string]bool{"cancelled": cancelled}, middleware.GetRequestID(r.Context()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, estimation.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, estimation.ErrSuperseded), errors.Is(err, estimation.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, estimation.ErrTransport), errors.Is(err, estimation.ErrEmptyResponse), errors.Is(err, estimation.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package leavehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/leave"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/pending/count", h.handlePendingCount)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{leaveID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/{leaveID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/{leaveID}/reject", h.handleReject)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	filter := leave.Filter{
		Status: r.URL.Query().Get("status"),
		Date:   r.URL.Query().Get("date"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	if filter.Date != "" {
		v := shared.NewValidator()
		v.Date("date", filter.Date)
		if v.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}
	}

	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, leave.ErrInvalidStatus) {
			shared.FailField(w, middleware.GetRequestID(r.Context()), "status", "must be one of All, Pending, Approved, Rejected")
			return
		}
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave records", middleware.GetRequestID(r.Context()))
		return
	}
	api.List(w, result.Records, result.Total, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.PendingCount(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_count_failed", "failed to count pending leaves", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"pending": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "leaveID"))
	if err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave record not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "leave_get_failed", "failed to load leave record", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, audit.ActionLeaveApprove, h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, audit.ActionLeaveReject, h.Service.Reject)
}

type decideFunc func(ctx context.Context, id, deciderID string) (leave.Decision, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, apply decideFunc) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "leaveID")
	decision, err := apply(r.Context(), id, session.AdminID)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "leave record not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrInvalidState):
			api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "leave_update_failed", "failed to update leave record", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     action,
		EntityType: "mess_leave",
		EntityID:   id,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     map[string]string{"status": decision.FromStatus},
		After:      map[string]string{"status": decision.Record.Status},
	}); err != nil {
		slog.Warn("audit leave decision failed", "action", action, "err", err)
	}
	api.Success(w, decision.Record, middleware.GetRequestID(r.Context()))
}

package audithandler

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

const (
	exportPageSize = 500
	maxExportRows  = 10000
)

var exportHeader = []string{"id", "created_at", "actor_id", "action", "entity_type", "entity_id", "request_id", "ip"}

type Reader interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service Reader
	Perms   middleware.PermissionStore
}

func NewHandler(service Reader, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAuditRead, h.Perms))
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

// parseFilter reads action, entityType, actorId and an optional from/to window.
func parseFilter(r *http.Request) (audit.Filter, *shared.Validator) {
	q := r.URL.Query()
	v := shared.NewValidator()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		Actor:      q.Get("actorId"),
	}
	filter.From, filter.To = v.Window("from", q.Get("from"), "to", q.Get("to"))
	return filter, v
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, v := parseFilter(r)
	if v.Reject(w, reqID) {
		return
	}
	page := shared.ParsePagination(r, 100, 500)

	events, err := h.Service.List(r.Context(), filter, r.URL.Query().Get("includeDetails") == "true", page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
		total = page.Offset + len(events)
	}
	api.List(w, events, total, reqID)
}

// handleExportEvents streams matching events as CSV, newest first, reading
// the trail a page at a time up to maxExportRows.
func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, v := parseFilter(r)
	if v.Reject(w, reqID) {
		return
	}

	first, err := h.Service.List(r.Context(), filter, false, exportPageSize, 0)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	out := csv.NewWriter(w)
	_ = out.Write(exportHeader)

	batch, written := first, 0
	for {
		for _, evt := range batch {
			_ = out.Write([]string{evt.ID, evt.CreatedAt.UTC().Format(time.RFC3339), evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP})
		}
		written += len(batch)
		if len(batch) < exportPageSize || written >= maxExportRows {
			break
		}
		out.Flush()
		batch, err = h.Service.List(r.Context(), filter, false, exportPageSize, written)
		if err != nil {
			slog.Warn("audit export truncated", "rows", written, "err", err)
			break
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		slog.Warn("audit export write failed", "err", err)
	}
}

package billinghandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/auth"
	"messease/internal/domain/billing"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

type Handler struct {
	Service *billing.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *billing.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/billing", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermBillingRead, h.Perms)).Get("/payments", h.handlePayments)
		r.With(middleware.RequirePermission(auth.PermBillingRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermBillingRead, h.Perms)).Get("/statement.pdf", h.handleStatement)
	})
}

// parseRange reads from/to query dates. A plain YYYY-MM-DD "to" covers that whole day.
func parseRange(r *http.Request) (billing.Filter, *shared.Validator) {
	v := shared.NewValidator()
	q := r.URL.Query()
	var filter billing.Filter
	filter.From, filter.To = v.Window("from", q.Get("from"), "to", q.Get("to"))
	return filter, v
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	filter, v := parseRange(r)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payments_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
		return
	}
	api.List(w, result.Payments, result.Total, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, v := parseRange(r)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	summary, err := h.Service.Summary(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "billing_summary_failed", "failed to summarize payments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	pdf, err := h.Service.Statement(r.Context(), month)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidMonth) {
			shared.FailField(w, middleware.GetRequestID(r.Context()), "month", "must be in YYYY-MM format")
			return
		}
		api.Fail(w, http.StatusInternalServerError, "statement_failed", "failed to render statement", middleware.GetRequestID(r.Context()))
		return
	}
	if month == "" {
		month = h.Service.Now().In(h.Service.Location).Format("2006-01")
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=statement-"+month+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

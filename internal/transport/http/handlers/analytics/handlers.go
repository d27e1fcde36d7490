package analyticshandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/attendance"
	"messease/internal/domain/auth"
	"messease/internal/platform/jobs"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
)

const (
	defaultSnapshotDays = 30
	maxSnapshotDays     = 366
)

type SnapshotReader interface {
	Recent(ctx context.Context, days int) ([]attendance.Snapshot, error)
}

type JobRunner interface {
	RecentRuns(ctx context.Context, limit int) ([]jobs.Run, error)
	TriggerSnapshot(ctx context.Context) (any, error)
}

type MetricsSource interface {
	Snapshot() map[string]any
}

type Handler struct {
	Snapshots SnapshotReader
	Jobs      JobRunner
	Metrics   MetricsSource
	Perms     middleware.PermissionStore
}

func NewHandler(snapshots SnapshotReader, jobsSvc JobRunner, metrics MetricsSource, perms middleware.PermissionStore) *Handler {
	return &Handler{Snapshots: snapshots, Jobs: jobsSvc, Metrics: metrics, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAnalyticsRead, h.Perms)).Get("/attendance", h.handleAttendance)
		r.With(middleware.RequirePermission(auth.PermAnalyticsRead, h.Perms)).Get("/jobs", h.handleJobRuns)
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Get("/runtime", h.handleRuntime)
	})
	r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Post("/jobs/attendance-snapshot", h.handleSnapshotNow)
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	days := defaultSnapshotDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			days = v
		}
	}
	if days > maxSnapshotDays {
		days = maxSnapshotDays
	}
	out, err := h.Snapshots.Recent(r.Context(), days)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "snapshots_failed", "failed to load attendance history", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Jobs.RecentRuns(r.Context(), 50)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics are disabled", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSnapshotNow(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.TriggerSnapshot(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "snapshot_failed", "failed to record attendance snapshot", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

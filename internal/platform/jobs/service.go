package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"messease/internal/domain/attendance"
	"messease/internal/platform/querier"
)

const JobAttendanceSnapshot = "attendance_snapshot"

type Projector interface {
	Today() string
	ProjectAttendance(ctx context.Context, date string) attendance.Projection
}

type SnapshotRecorder interface {
	Record(ctx context.Context, p attendance.Projection) error
}

type RunObserver interface {
	RecordSnapshotRun()
}

type Service struct {
	DB        querier.Querier
	Interval  time.Duration
	Projector Projector
	Snapshots SnapshotRecorder
	Observer  RunObserver
	queue     chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

func New(db querier.Querier, interval time.Duration, projector Projector, snapshots SnapshotRecorder, observer RunObserver) *Service {
	return &Service{
		DB:        db,
		Interval:  interval,
		Projector: projector,
		Snapshots: snapshots,
		Observer:  observer,
		queue:     make(chan job, 32),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 {
		go s.scheduleSnapshots(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// TriggerSnapshot runs the attendance snapshot synchronously and logs it as a job run.
func (s *Service) TriggerSnapshot(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobAttendanceSnapshot, s.SnapshotAttendance)
}

// SnapshotAttendance records today's projection.
func (s *Service) SnapshotAttendance(ctx context.Context) (any, error) {
	p := s.Projector.ProjectAttendance(ctx, s.Projector.Today())
	if err := s.Snapshots.Record(ctx, p); err != nil {
		return nil, err
	}
	if s.Observer != nil {
		s.Observer.RecordSnapshotRun()
	}
	return p, nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]string{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleSnapshots(ctx context.Context, interval time.Duration) {
	s.Enqueue(JobAttendanceSnapshot, s.SnapshotAttendance)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobAttendanceSnapshot, s.SnapshotAttendance)
		}
	}
}

func (s *Service) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    ORDER BY started_at DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &run.Details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

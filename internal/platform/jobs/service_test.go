package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"messease/internal/domain/attendance"
)

type idRow struct{ id string }

func (r idRow) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.id
	return nil
}

type fakeDB struct {
	mu      sync.Mutex
	updates []string
	details [][]byte
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, args[0].(string))
	f.details = append(f.details, args[1].([]byte))
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return idRow{id: "run-1"}
}

type fixedProjector struct{}

func (fixedProjector) Today() string { return "2026-10-19" }

func (fixedProjector) ProjectAttendance(_ context.Context, date string) attendance.Projection {
	return attendance.Projection{Date: date, TotalUsers: 450, ApprovedLeaves: 12, Expected: 438}
}

type snapshotSink struct {
	recorded []attendance.Projection
	err      error
}

func (s *snapshotSink) Record(_ context.Context, p attendance.Projection) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, p)
	return nil
}

type countingObserver struct{ n int }

func (c *countingObserver) RecordSnapshotRun() { c.n++ }

func TestSnapshotJobRecordsProjectionAndRun(t *testing.T) {
	db := &fakeDB{}
	sink := &snapshotSink{}
	obs := &countingObserver{}
	svc := New(db, 0, fixedProjector{}, sink, obs)

	if _, err := svc.RunNow(context.Background(), JobAttendanceSnapshot, svc.SnapshotAttendance); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.recorded) != 1 || sink.recorded[0].Expected != 438 || sink.recorded[0].Date != "2026-10-19" {
		t.Fatalf("unexpected snapshots: %+v", sink.recorded)
	}
	if obs.n != 1 {
		t.Fatalf("expected one observed run, got %d", obs.n)
	}
	if len(db.updates) != 1 || db.updates[0] != "completed" {
		t.Fatalf("unexpected job status updates: %v", db.updates)
	}
}

func TestFailedJobStoresError(t *testing.T) {
	db := &fakeDB{}
	svc := New(db, 0, fixedProjector{}, &snapshotSink{err: errors.New("disk full")}, nil)

	if _, err := svc.RunNow(context.Background(), JobAttendanceSnapshot, svc.SnapshotAttendance); err == nil {
		t.Fatal("expected error")
	}
	if db.updates[0] != "failed" {
		t.Fatalf("expected failed status, got %v", db.updates)
	}
	var details map[string]string
	if err := json.Unmarshal(db.details[0], &details); err != nil || details["error"] != "disk full" {
		t.Fatalf("unexpected details %s", db.details[0])
	}
}

package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"messease/internal/domain/leave"
)

type stubUsers struct {
	count int
	err   error
}

func (s stubUsers) CountUsers(context.Context) (int, error) { return s.count, s.err }

type stubLeaves struct {
	records []leave.Record
	err     error
	asked   string
}

func (s *stubLeaves) ListByDate(_ context.Context, date string) ([]leave.Record, error) {
	s.asked = date
	return s.records, s.err
}

func leaveFixture(today string) []leave.Record {
	var records []leave.Record
	approvedSpellings := []string{"Approved", "APPROVED", "APPROVE"}
	for i := 0; i < 12; i++ {
		records = append(records, leave.Record{ID: fmt.Sprintf("ok-%d", i), Date: today, Status: approvedSpellings[i%len(approvedSpellings)]})
	}
	records = append(records,
		leave.Record{ID: "p1", Date: today, Status: "PENDING"},
		leave.Record{ID: "p2", Date: today, Status: "Pending"},
		leave.Record{ID: "p3", Date: today, Status: "PENDING_APPROVAL"},
		leave.Record{ID: "r1", Date: today, Status: "Rejected"},
		leave.Record{ID: "d1", Date: "2026-10-18", Status: "Approved"},
		leave.Record{ID: "d2", Date: "2026-10-20", Status: "Approved"},
		leave.Record{ID: "d3", Date: "2026-10-20", Status: "APPROVED"},
		leave.Record{ID: "u1", Date: today, Status: "Cancelled"},
	)
	return records
}

func TestProjectCountsOnlyApprovedLeavesForDate(t *testing.T) {
	today := "2026-10-19"
	records := leaveFixture(today)
	if len(records) != 20 {
		t.Fatalf("fixture should hold 20 records, got %d", len(records))
	}

	got := Project(450, records, today)
	if got.ApprovedLeaves != 12 {
		t.Fatalf("expected 12 approved leaves, got %d", got.ApprovedLeaves)
	}
	if got.Expected != 438 {
		t.Fatalf("expected 438 diners, got %d", got.Expected)
	}
	if got.Clamped {
		t.Fatal("did not expect clamping")
	}
}

func TestProjectClampsAtZero(t *testing.T) {
	records := []leave.Record{
		{Date: "2026-01-01", Status: "Approved"},
		{Date: "2026-01-01", Status: "Approved"},
		{Date: "2026-01-01", Status: "Approved"},
	}
	got := Project(2, records, "2026-01-01")
	if got.Expected != 0 || !got.Clamped {
		t.Fatalf("expected clamped zero projection, got %+v", got)
	}
}

func TestProjectAttendanceUsesTodayInLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	leaves := &stubLeaves{}
	p := NewProjector(stubUsers{count: 10}, leaves, loc, 0)
	// 20:00 UTC on the 18th is already the 19th in IST.
	p.Now = func() time.Time { return time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC) }

	got := p.ProjectAttendance(context.Background(), "")
	if leaves.asked != "2026-10-19" || got.Date != "2026-10-19" {
		t.Fatalf("expected local date 2026-10-19, asked %q, got %q", leaves.asked, got.Date)
	}
	if got.Expected != 10 || got.Degraded {
		t.Fatalf("unexpected projection: %+v", got)
	}
}

func TestProjectAttendanceFallbacks(t *testing.T) {
	today := "2026-10-19"

	p := NewProjector(stubUsers{err: errors.New("db down")}, &stubLeaves{records: leaveFixture(today)}, time.UTC, 0)
	got := p.ProjectAttendance(context.Background(), today)
	if got.TotalUsers != DefaultTotalUsers || got.Expected != 438 || !got.Degraded {
		t.Fatalf("expected user-count fallback, got %+v", got)
	}

	p = NewProjector(stubUsers{count: 0}, &stubLeaves{}, time.UTC, 300)
	got = p.ProjectAttendance(context.Background(), today)
	if got.TotalUsers != 300 || !got.Degraded {
		t.Fatalf("expected empty directory to use configured fallback, got %+v", got)
	}

	p = NewProjector(stubUsers{count: 100}, &stubLeaves{err: errors.New("timeout")}, time.UTC, 0)
	got = p.ProjectAttendance(context.Background(), today)
	if got.Expected != 100 || got.ApprovedLeaves != 0 || !got.Degraded {
		t.Fatalf("expected leave fallback, got %+v", got)
	}
}

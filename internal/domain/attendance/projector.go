package attendance

import (
	"context"
	"log/slog"
	"time"

	"messease/internal/domain/leave"
)

const DateLayout = "2006-01-02"

// DefaultTotalUsers is the historical headcount used when the directory cannot be read.
const DefaultTotalUsers = 450

type Projection struct {
	Date           string `json:"date"`
	TotalUsers     int    `json:"totalUsers"`
	ApprovedLeaves int    `json:"approvedLeaves"`
	Expected       int    `json:"expected"`
	// Clamped is set when approved leaves exceeded the headcount.
	Clamped bool `json:"clamped"`
	// Degraded is set when a fallback replaced an unreadable input.
	Degraded bool `json:"degraded"`
}

// CountApproved counts leaves dated date whose normalized status is Approved.
func CountApproved(leaves []leave.Record, date string) int {
	count := 0
	for _, rec := range leaves {
		if rec.Date != date {
			continue
		}
		if leave.NormalizeStatus(rec.Status) == leave.StatusApproved {
			count++
		}
	}
	return count
}

// Project computes expected diners as totalUsers minus approved leaves for date, floored at zero.
func Project(totalUsers int, leaves []leave.Record, date string) Projection {
	approved := CountApproved(leaves, date)
	p := Projection{
		Date:           date,
		TotalUsers:     totalUsers,
		ApprovedLeaves: approved,
		Expected:       totalUsers - approved,
	}
	if p.Expected < 0 {
		p.Expected = 0
		p.Clamped = true
	}
	return p
}

type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

type LeaveLister interface {
	ListByDate(ctx context.Context, date string) ([]leave.Record, error)
}

type Projector struct {
	Users         UserCounter
	Leaves        LeaveLister
	Location      *time.Location
	FallbackUsers int
	Now           func() time.Time
}

func NewProjector(users UserCounter, leaves LeaveLister, loc *time.Location, fallbackUsers int) *Projector {
	if loc == nil {
		loc = time.Local
	}
	if fallbackUsers <= 0 {
		fallbackUsers = DefaultTotalUsers
	}
	return &Projector{Users: users, Leaves: leaves, Location: loc, FallbackUsers: fallbackUsers, Now: time.Now}
}

// Today returns the current calendar day in the mess timezone.
func (p *Projector) Today() string {
	return p.Now().In(p.Location).Format(DateLayout)
}

// ProjectAttendance never fails: unreadable inputs are replaced by fallbacks and flagged.
func (p *Projector) ProjectAttendance(ctx context.Context, date string) Projection {
	if date == "" {
		date = p.Today()
	}

	degraded := false
	total, err := p.Users.CountUsers(ctx)
	if err != nil {
		slog.Warn("attendance user count failed, using fallback", "fallback", p.FallbackUsers, "err", err)
		total = p.FallbackUsers
		degraded = true
	} else if total == 0 {
		slog.Warn("attendance user directory empty, using fallback", "fallback", p.FallbackUsers)
		total = p.FallbackUsers
		degraded = true
	}

	leaves, err := p.Leaves.ListByDate(ctx, date)
	if err != nil {
		slog.Warn("attendance leave lookup failed, assuming no approved leaves", "date", date, "err", err)
		leaves = nil
		degraded = true
	}

	projection := Project(total, leaves, date)
	projection.Degraded = degraded
	if projection.Clamped {
		slog.Warn("approved leaves exceed registered users, clamping attendance",
			"date", date,
			"totalUsers", total,
			"approvedLeaves", projection.ApprovedLeaves,
		)
	}
	return projection
}

package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"messease/internal/domain/attendance"
	"messease/internal/domain/menu"
)

// mealFactors is the share of projected attendance expected at each meal, in percent.
var mealFactors = map[menu.MealSlot]int{
	menu.Breakfast: 90,
	menu.Lunch:     100,
	menu.Snacks:    70,
	menu.Dinner:    95,
}

type AttendanceSource interface {
	Today() string
	ProjectAttendance(ctx context.Context, date string) attendance.Projection
}

type GuestMealCounter interface {
	GuestMealsToday(ctx context.Context) (int, error)
}

type PendingLeaveCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

type MealCount struct {
	Name     menu.MealSlot `json:"name"`
	Count    int           `json:"count"`
	Capacity int           `json:"capacity"`
}

type Stats struct {
	Attendance    attendance.Projection `json:"attendance"`
	TotalStudents int                   `json:"totalStudents"`
	GuestMeals    int                   `json:"guestMeals"`
	PendingLeaves int                   `json:"pendingLeaves"`
	Meals         []MealCount           `json:"meals"`
}

type Service struct {
	Attendance AttendanceSource
	Guests     GuestMealCounter
	Leaves     PendingLeaveCounter
}

func NewService(att AttendanceSource, guests GuestMealCounter, leaves PendingLeaveCounter) *Service {
	return &Service{Attendance: att, Guests: guests, Leaves: leaves}
}

// MealBreakdown scales attendance by each meal's factor, rounding down.
func MealBreakdown(expected, capacity int) []MealCount {
	out := make([]MealCount, 0, len(menu.Slots))
	for _, slot := range menu.Slots {
		out = append(out, MealCount{Name: slot, Count: expected * mealFactors[slot] / 100, Capacity: capacity})
	}
	return out
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats.Attendance = s.Attendance.ProjectAttendance(gctx, s.Attendance.Today())
		return nil
	})
	g.Go(func() error {
		n, err := s.Guests.GuestMealsToday(gctx)
		if err != nil {
			return fmt.Errorf("guest meals: %w", err)
		}
		stats.GuestMeals = n
		return nil
	})
	g.Go(func() error {
		n, err := s.Leaves.PendingCount(gctx)
		if err != nil {
			return fmt.Errorf("pending leaves: %w", err)
		}
		stats.PendingLeaves = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	stats.TotalStudents = stats.Attendance.TotalUsers
	stats.Meals = MealBreakdown(stats.Attendance.Expected, stats.TotalStudents)
	return stats, nil
}

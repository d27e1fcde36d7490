package estimation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"messease/internal/domain/attendance"
	"messease/internal/domain/menu"
)

type AttendanceSource interface {
	Today() string
	ProjectAttendance(ctx context.Context, date string) attendance.Projection
}

type MenuSource interface {
	TodayText(ctx context.Context, slot menu.MealSlot) string
}

// Observer receives the outcome of each run.
type Observer interface {
	ObserveEstimation(code string, duration time.Duration)
}

type Service struct {
	Attendance AttendanceSource
	Menu       MenuSource
	Generator  Generator
	Tracker    *Tracker
	Observer   Observer
}

func NewService(att AttendanceSource, menus MenuSource, gen Generator, observer Observer) *Service {
	return &Service{Attendance: att, Menu: menus, Generator: gen, Tracker: NewTracker(), Observer: observer}
}

// Preview gathers the inputs for slot and renders the prompt without calling the model.
func (s *Service) Preview(ctx context.Context, slot menu.MealSlot) (Inputs, error) {
	if slot.Index() < 0 {
		return Inputs{}, ErrInvalidSlot
	}
	projection := s.Attendance.ProjectAttendance(ctx, s.Attendance.Today())
	text := s.Menu.TodayText(ctx, slot)
	return Inputs{
		MealSlot:   slot,
		Projection: projection,
		MenuText:   text,
		Prompt:     BuildPrompt(slot, projection.Expected, text),
	}, nil
}

// Run executes one estimation for the session. A newer run for the same session
// supersedes this one; its result is then discarded and ErrSuperseded returned.
func (s *Service) Run(ctx context.Context, sessionKey string, slot menu.MealSlot) (View, error) {
	inputs, err := s.Preview(ctx, slot)
	if err != nil {
		return View{}, err
	}

	runCtx, gen, release := s.Tracker.Begin(ctx, sessionKey, inputs)
	defer release()

	started := time.Now()
	manifest, err := s.Generator.Estimate(runCtx, inputs.Prompt)
	if err != nil {
		if cause := context.Cause(runCtx); cause != nil {
			switch {
			case errors.Is(cause, ErrSuperseded), errors.Is(cause, ErrCancelled):
				err = cause
			case errors.Is(cause, context.Canceled):
				err = ErrCancelled
			}
		}
	}

	view, current := s.Tracker.Finish(sessionKey, gen, manifest, err)
	if !current {
		err = staleReason(runCtx)
		view = View{State: StateFailed, Generation: gen, Inputs: inputs, Error: NewViewError(err)}
	}
	s.observe(err, time.Since(started))
	if err != nil {
		if !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrCancelled) {
			slog.Warn("estimation failed", "slot", slot, "generation", gen, "err", err)
		}
		return view, err
	}
	return view, nil
}

func staleReason(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), ErrCancelled) {
		return ErrCancelled
	}
	return ErrSuperseded
}

func (s *Service) observe(err error, d time.Duration) {
	if s.Observer == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = ErrorCode(err)
	}
	s.Observer.ObserveEstimation(code, d)
}

func (s *Service) Cancel(sessionKey string) bool {
	return s.Tracker.Cancel(sessionKey)
}

func (s *Service) State(sessionKey string) View {
	return s.Tracker.View(sessionKey)
}

func (s *Service) Forget(sessionKey string) {
	s.Tracker.Forget(sessionKey)
}

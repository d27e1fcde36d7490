package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"messease/internal/domain/users"
)

var (
	ErrInvalidDay  = errors.New("day must be between 0 (Monday) and 6 (Sunday)")
	ErrInvalidMeal = errors.New("invalid meal entry")
	ErrInvalidSlot = errors.New("meal index must be between 0 and 3")
	ErrEmptyFood   = errors.New("food is required")
	ErrInvalidDate = errors.New("invalid date")
)

type Service struct {
	Store    StoreAPI
	Location *time.Location
	Now      func() time.Time
}

func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{Store: store, Location: loc, Now: time.Now}
}

func (s *Service) today() time.Time {
	return s.Now().In(s.Location)
}

// Weekly returns the stored menu padded to seven days.
func (s *Service) Weekly(ctx context.Context) (WeeklyMenu, error) {
	m, _, err := s.Store.GetMainMenu(ctx)
	if err != nil {
		return WeeklyMenu{}, err
	}
	return m.Normalize(), nil
}

type TodayMenu struct {
	DayIndex int     `json:"dayIndex"`
	Weekday  string  `json:"weekday"`
	Day      DayMenu `json:"day"`
}

func (s *Service) Today(ctx context.Context) (TodayMenu, error) {
	m, err := s.Weekly(ctx)
	if err != nil {
		return TodayMenu{}, err
	}
	now := s.today()
	idx := DayIndex(now.Weekday())
	return TodayMenu{DayIndex: idx, Weekday: now.Weekday().String(), Day: m.Days[idx]}, nil
}

// TodayText resolves today's food for slot. Load failures degrade to the sentinel.
func (s *Service) TodayText(ctx context.Context, slot MealSlot) string {
	m, _, err := s.Store.GetMainMenu(ctx)
	if err != nil {
		slog.Warn("menu lookup failed, using sentinel", "slot", slot, "err", err)
		return NoItemsScheduled
	}
	return ResolveText(m, slot, s.today().Weekday())
}

// ReplaceDay swaps one day's meal list wholesale and returns the previous list.
func (s *Service) ReplaceDay(ctx context.Context, day int, meals []MealEntry, editor users.Creator) (DayMenu, WeeklyMenu, error) {
	if day < 0 || day >= DaysPerWeek {
		return DayMenu{}, WeeklyMenu{}, ErrInvalidDay
	}
	cleaned := make([]MealEntry, 0, len(meals))
	for i, meal := range meals {
		slot, ok := ParseMealSlot(meal.Type)
		if !ok {
			return DayMenu{}, WeeklyMenu{}, fmt.Errorf("%w: entry %d has unknown type %q", ErrInvalidMeal, i, meal.Type)
		}
		cleaned = append(cleaned, MealEntry{
			Type: string(slot),
			Food: strings.TrimSpace(meal.Food),
			Time: strings.TrimSpace(meal.Time),
		})
	}

	m, _, err := s.Store.GetMainMenu(ctx)
	if err != nil {
		return DayMenu{}, WeeklyMenu{}, err
	}
	days := make([]DayMenu, DaysPerWeek)
	copy(days, m.Days)
	before := days[day]
	days[day] = DayMenu{Particulars: cleaned}
	m.Days = days
	m.Creator = editor

	id, err := s.Store.SaveMainMenu(ctx, m)
	if err != nil {
		return DayMenu{}, WeeklyMenu{}, err
	}
	m.ID = id
	m.UpdatedAt = s.Now()
	return before, m.Normalize(), nil
}

func (s *Service) SpecialMeals(ctx context.Context, limit int) ([]SpecialMeal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Store.ListSpecialMeals(ctx, limit)
}

func (s *Service) AddSpecialMeal(ctx context.Context, date time.Time, mealIndex int, food string) (SpecialMeal, error) {
	if date.IsZero() {
		return SpecialMeal{}, ErrInvalidDate
	}
	if _, ok := SlotAt(mealIndex); !ok {
		return SpecialMeal{}, ErrInvalidSlot
	}
	food = strings.TrimSpace(food)
	if food == "" {
		return SpecialMeal{}, ErrEmptyFood
	}
	meal := SpecialMeal{
		Day:       date.Day(),
		Month:     int(date.Month()),
		Year:      date.Year(),
		MealIndex: mealIndex,
		Food:      food,
		CreatedAt: s.Now(),
	}
	id, err := s.Store.AddSpecialMeal(ctx, meal)
	if err != nil {
		return SpecialMeal{}, err
	}
	meal.ID = id
	return meal, nil
}

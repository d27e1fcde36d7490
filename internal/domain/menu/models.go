package menu

import (
	"strings"
	"time"

	"messease/internal/domain/users"
)

type MealSlot string

const (
	Breakfast MealSlot = "Breakfast"
	Lunch     MealSlot = "Lunch"
	Snacks    MealSlot = "Snacks"
	Dinner    MealSlot = "Dinner"
)

// Slots is the fixed positional order of meals within a day.
var Slots = []MealSlot{Breakfast, Lunch, Snacks, Dinner}

// Index returns the positional index of the slot, or -1 for an unknown slot.
func (s MealSlot) Index() int {
	for i, slot := range Slots {
		if slot == s {
			return i
		}
	}
	return -1
}

func (s MealSlot) String() string { return string(s) }

// ParseMealSlot accepts slot names in any case.
func ParseMealSlot(raw string) (MealSlot, bool) {
	for _, slot := range Slots {
		if strings.EqualFold(strings.TrimSpace(raw), string(slot)) {
			return slot, true
		}
	}
	return "", false
}

func SlotAt(index int) (MealSlot, bool) {
	if index < 0 || index >= len(Slots) {
		return "", false
	}
	return Slots[index], true
}

type MealEntry struct {
	Type string `json:"type"`
	Food string `json:"food"`
	Time string `json:"time"`
}

type DayMenu struct {
	Particulars []MealEntry `json:"particulars"`
}

const DaysPerWeek = 7

// WeeklyMenu holds seven days, index 0 = Monday.
type WeeklyMenu struct {
	ID        string        `json:"id"`
	Creator   users.Creator `json:"creator"`
	Days      []DayMenu     `json:"menu"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

var defaultTimes = map[MealSlot]string{
	Breakfast: "8:30 AM to 10:00 AM",
	Lunch:     "12:30 PM to 2:30 PM",
	Snacks:    "5:00 PM to 6:00 PM",
	Dinner:    "7:30 PM to 9:30 PM",
}

// DefaultDayMeals returns the four slots with empty food and the usual serving windows.
func DefaultDayMeals() []MealEntry {
	meals := make([]MealEntry, 0, len(Slots))
	for _, slot := range Slots {
		meals = append(meals, MealEntry{Type: string(slot), Time: defaultTimes[slot]})
	}
	return meals
}

// Normalize pads the menu to seven days and fills empty days with the default slots.
func (m WeeklyMenu) Normalize() WeeklyMenu {
	days := make([]DayMenu, DaysPerWeek)
	copy(days, m.Days)
	for i := range days {
		if len(days[i].Particulars) == 0 {
			days[i].Particulars = DefaultDayMeals()
		}
	}
	m.Days = days
	return m
}

type SpecialMeal struct {
	ID        string    `json:"id"`
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	MealIndex int       `json:"mealIndex"`
	Food      string    `json:"food"`
	CreatedAt time.Time `json:"timestamp"`
}

package menu

import (
	"strings"
	"time"
)

const NoItemsScheduled = "No items scheduled"

// DayIndex converts Go's Sunday-first weekday into the menu's Monday-first index.
func DayIndex(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}

// ResolveText finds the food scheduled for slot on weekday. The positional entry
// is used only when its label matches; otherwise the day is scanned by label.
func ResolveText(m WeeklyMenu, slot MealSlot, weekday time.Weekday) string {
	idx := DayIndex(weekday)
	if idx >= len(m.Days) {
		return NoItemsScheduled
	}
	meals := m.Days[idx].Particulars

	if pos := slot.Index(); pos >= 0 && pos < len(meals) && sameSlot(meals[pos].Type, slot) {
		return foodOrSentinel(meals[pos].Food)
	}
	for _, meal := range meals {
		if sameSlot(meal.Type, slot) {
			return foodOrSentinel(meal.Food)
		}
	}
	return NoItemsScheduled
}

func sameSlot(label string, slot MealSlot) bool {
	return strings.EqualFold(strings.TrimSpace(label), string(slot))
}

func foodOrSentinel(food string) string {
	if strings.TrimSpace(food) == "" {
		return NoItemsScheduled
	}
	return food
}

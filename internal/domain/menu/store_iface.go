package menu

import "context"

type StoreAPI interface {
	GetMainMenu(ctx context.Context) (WeeklyMenu, bool, error)
	SaveMainMenu(ctx context.Context, m WeeklyMenu) (string, error)
	ListSpecialMeals(ctx context.Context, limit int) ([]SpecialMeal, error)
	AddSpecialMeal(ctx context.Context, meal SpecialMeal) (string, error)
}

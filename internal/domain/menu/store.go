package menu

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"messease/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// GetMainMenu loads the single menu document. A malformed menu array is logged and read as empty.
func (s *Store) GetMainMenu(ctx context.Context) (WeeklyMenu, bool, error) {
	var m WeeklyMenu
	var creatorJSON, menuJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, creator, menu, updated_at
    FROM main_menu
    ORDER BY updated_at DESC
    LIMIT 1
  `).Scan(&m.ID, &creatorJSON, &menuJSON, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return WeeklyMenu{}, false, nil
	}
	if err != nil {
		return WeeklyMenu{}, false, err
	}

	if len(creatorJSON) > 0 {
		if err := json.Unmarshal(creatorJSON, &m.Creator); err != nil {
			slog.Warn("main menu creator malformed", "menuId", m.ID, "err", err)
		}
	}
	if len(menuJSON) > 0 {
		if err := json.Unmarshal(menuJSON, &m.Days); err != nil {
			slog.Warn("main menu days malformed, treating as empty", "menuId", m.ID, "err", err)
			m.Days = nil
		}
	}
	return m, true, nil
}

func (s *Store) SaveMainMenu(ctx context.Context, m WeeklyMenu) (string, error) {
	creatorJSON, err := json.Marshal(m.Creator)
	if err != nil {
		return "", err
	}
	menuJSON, err := json.Marshal(m.Days)
	if err != nil {
		return "", err
	}

	if m.ID == "" {
		var id string
		err := s.DB.QueryRow(ctx, `
      INSERT INTO main_menu (creator, menu)
      VALUES ($1,$2)
      RETURNING id::text
    `, creatorJSON, menuJSON).Scan(&id)
		return id, err
	}

	_, err = s.DB.Exec(ctx, `
    UPDATE main_menu SET creator = $1, menu = $2, updated_at = now()
    WHERE id::text = $3
  `, creatorJSON, menuJSON, m.ID)
	return m.ID, err
}

func (s *Store) ListSpecialMeals(ctx context.Context, limit int) ([]SpecialMeal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, day, month, year, meal_index, food, created_at
    FROM special_meals
    ORDER BY year DESC, month DESC, day DESC, meal_index
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := make([]SpecialMeal, 0)
	for rows.Next() {
		var meal SpecialMeal
		if err := rows.Scan(&meal.ID, &meal.Day, &meal.Month, &meal.Year, &meal.MealIndex, &meal.Food, &meal.CreatedAt); err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}
	return meals, rows.Err()
}

func (s *Store) AddSpecialMeal(ctx context.Context, meal SpecialMeal) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO special_meals (day, month, year, meal_index, food)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id::text
  `, meal.Day, meal.Month, meal.Year, meal.MealIndex, meal.Food).Scan(&id)
	return id, err
}

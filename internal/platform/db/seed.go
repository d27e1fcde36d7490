package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"messease/internal/domain/auth"
	"messease/internal/domain/menu"
	"messease/internal/domain/users"
	"messease/internal/platform/config"
	"messease/internal/platform/querier"
)

// Seed creates the first console manager and an empty weekly menu when missing.
func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	if err := ensureAdmin(ctx, db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	return ensureMainMenu(ctx, db)
}

func ensureAdmin(ctx context.Context, db querier.Querier, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		slog.Info("seed admin skipped, SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD unset")
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	if err := auth.NewStore(db).EnsureAdmin(ctx, email, name, auth.RoleManager, hash); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func ensureMainMenu(ctx context.Context, db querier.Querier) error {
	store := menu.NewStore(db)
	if _, found, err := store.GetMainMenu(ctx); err != nil || found {
		return err
	}
	weekly := menu.WeeklyMenu{Creator: users.Creator{Name: "system", Role: auth.RoleManager}}.Normalize()
	_, err := store.SaveMainMenu(ctx, weekly)
	return err
}

package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"messease/internal/domain/audit"
	"messease/internal/domain/menu"
	"messease/internal/platform/config"
	"messease/internal/platform/db"
	"messease/migrations"
)

func TestMigrateSeedAndAuditAgainstPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, config.Config{DatabaseURL: url, DBMaxConns: 4, DBConnectAttempts: 1, DBConnLifetime: time.Minute})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			t.Fatalf("migrate pass %d: %v", i+1, err)
		}
	}
	cfg := config.Config{SeedAdminEmail: "seed@example.com", SeedAdminPassword: "seed-password"}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}
	weekly, found, err := menu.NewStore(pool).GetMainMenu(ctx)
	if err != nil || !found || len(weekly.Days) != 7 {
		t.Fatalf("expected seeded weekly menu, got found=%v days=%d err=%v", found, len(weekly.Days), err)
	}

	trail := audit.New(pool)
	action := "test.integration." + time.Now().Format("150405.000")
	if err := trail.Record(ctx, audit.Entry{ActorID: "seed", Action: action, EntityType: "test", After: map[string]int{"n": 1}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	events, err := trail.List(ctx, audit.Filter{Action: action}, true, 10, 0)
	if err != nil || len(events) != 1 || len(events[0].After) == 0 {
		t.Fatalf("unexpected events %+v err=%v", events, err)
	}
}

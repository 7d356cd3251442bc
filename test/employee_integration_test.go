//go:build integration

package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	repo "github.com/ogurasousui/codex-employee-roster/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/config"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/db/migration"
	pg "github.com/ogurasousui/codex-employee-roster/internal/platform/db/postgres"
)

const migrationsDir = "../assets/migrations"

func TestEmployeeImportPersistsAndHydrates(t *testing.T) {
	cfg, err := config.Load(configPathFromEnv())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Database.Enabled {
		t.Skip("database.enabled is false")
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database, nil)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	store := repo.NewEmployeeStore(pool)
	tx := pg.NewTransactionManager(pool)
	svc := employee.NewService(nil, store, stubClock{now: time.Now().UTC()}, tx)

	lines, err := feed.ParseCSV(strings.NewReader(
		"first_name,last_name,email,company_name,role,salary,status\n"+
			"Taro,Yamada,taro@example.com,Acme,ENGINEER,50000,ACTIVE\n"+
			"Hanako,Sato,hanako@example.com,Acme,MANAGER,70000,ACTIVE\n"+
			"Dup,User,TARO@example.com,Acme,ENGINEER,,\n",
	), feed.Options{})
	if err != nil {
		t.Fatalf("ParseCSV error: %v", err)
	}

	summary := importer.NewPipeline(svc, nil).ImportBatch(ctx, lines)
	if summary.SuccessCount != 2 || summary.Errors[4] != "duplicate email: TARO@example.com" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	newSalary := 80000
	if _, err := svc.UpdateEmployee(ctx, employee.UpdateEmployeeInput{Email: "hanako@example.com", Salary: &newSalary}); err != nil {
		t.Fatalf("UpdateEmployee error: %v", err)
	}

	restored := employee.NewService(nil, store, nil, tx)
	count, err := restored.Hydrate(ctx)
	if err != nil {
		t.Fatalf("Hydrate error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 hydrated employees, got %d", count)
	}

	stats := company.NewAggregator(restored.Registry()).ComputeFor("Acme")
	if stats.EmployeeCount != 2 || stats.HighestSalary != 80000 || stats.TopEarnerName != "Hanako Sato" {
		t.Fatalf("unexpected statistics after hydrate %+v", stats)
	}

	if err := restored.DeleteEmployee(ctx, employee.DeleteEmployeeInput{Email: "taro@example.com"}); err != nil {
		t.Fatalf("DeleteEmployee error: %v", err)
	}
	remaining, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Email != "hanako@example.com" {
		t.Fatalf("unexpected remaining employees %+v", remaining)
	}
}

func resetMigrations(dsn, dir string) error {
	migrator, err := migration.Open(dir, dsn, nil)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Reset()
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "../assets/local.yaml"
}

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

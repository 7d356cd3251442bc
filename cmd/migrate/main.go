package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/config"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/db/migration"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/logging"
)

const usage = `usage: migrate [-config path] [-dir path] [command]

commands:
  up            apply all pending migrations (default)
  down          roll back the latest migration
  steps N       apply (N > 0) or roll back (N < 0) N migrations
  reset         roll back everything and re-apply
  force V       mark version V as clean after a failed migration
  version       print the applied version
  drop          drop every table in the database
`

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing migration files")
	)
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fatal("failed to load .env", err)
	}

	cmd, err := migration.ParseCommand(flag.Args())
	if err != nil {
		flag.Usage()
		fatal("invalid command", err)
	}

	cfgPath := effectiveConfigPath(*configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal("failed to load config", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if !cfg.Database.Enabled {
		fatal("database is disabled", fmt.Errorf("set database.enabled in %s", cfgPath))
	}

	migrator, err := migration.Open(*migrationsDir, cfg.Database.DSN(), logger)
	if err != nil {
		fatal("failed to open migrations", err, "dir", *migrationsDir)
	}

	runErr := migrator.Run(cmd)
	if err := migrator.Close(); err != nil {
		logger.Warn("failed to close migrator", "error", err)
	}
	if runErr != nil {
		fatal("migration failed", runErr, "command", cmd.Name)
	}

	logger.Info("migration completed", "command", cmd.Name)
}

func fatal(msg string, err error, args ...any) {
	slog.Error(msg, append([]any{"error", err}, args...)...)
	os.Exit(1)
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

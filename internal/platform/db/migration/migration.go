// Package migration は employees テーブルのスキーマを golang-migrate で管理します。
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrUnknownCommand は未対応のコマンドが指定された場合に返却されます。
var ErrUnknownCommand = errors.New("migration: unknown command")

// Command は cmd/migrate に渡されるサブコマンドです。
type Command struct {
	Name string
	// Arg は steps の段数、force のバージョンです。
	Arg int
}

// ParseCommand は位置引数を Command に変換します。引数がない場合は up です。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Name: "up"}, nil
	}

	name := strings.ToLower(args[0])
	switch name {
	case "up", "down", "reset", "drop", "version":
		if len(args) > 1 {
			return Command{}, fmt.Errorf("migration: %s takes no arguments", name)
		}
		return Command{Name: name}, nil
	case "steps", "force":
		if len(args) != 2 {
			return Command{}, fmt.Errorf("migration: %s requires exactly one integer argument", name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return Command{}, fmt.Errorf("migration: %s: %w", name, err)
		}
		if name == "steps" && n == 0 {
			return Command{}, fmt.Errorf("migration: steps must not be zero")
		}
		return Command{Name: name, Arg: n}, nil
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
}

// Migrator は migrate.Migrate の薄いラッパーです。
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// Open は dir のマイグレーションファイルと dsn のデータベースから Migrator を生成します。
func Open(dir, dsn string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("migration: resolve path for %s: %w", dir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), dsn)
	if err != nil {
		return nil, fmt.Errorf("migration: open: %w", err)
	}
	m.Log = slogAdapter{logger: logger}

	return &Migrator{m: m, logger: logger}, nil
}

// Close はソースとデータベースの接続を閉じます。
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Run は Command を実行します。適用済みで変更がない場合は成功として扱います。
func (mg *Migrator) Run(cmd Command) error {
	var err error
	switch cmd.Name {
	case "up":
		err = mg.m.Up()
	case "down":
		err = mg.m.Steps(-1)
	case "steps":
		err = mg.m.Steps(cmd.Arg)
	case "reset":
		return mg.Reset()
	case "drop":
		err = mg.m.Drop()
	case "force":
		err = mg.m.Force(cmd.Arg)
	case "version":
		return mg.logVersion()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: %s: %w", cmd.Name, err)
	}
	return nil
}

// Reset はすべてのマイグレーションを戻してから最新まで適用し直します。
func (mg *Migrator) Reset() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: reset down: %w", err)
	}
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: reset up: %w", err)
	}
	return nil
}

func (mg *Migrator) logVersion() error {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		mg.logger.Info("no migration applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration: version: %w", err)
	}
	mg.logger.Info("migration version", "version", version, "dirty", dirty)
	return nil
}

// slogAdapter は migrate.Logger を slog に流します。
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Printf(format string, v ...any) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (a slogAdapter) Verbose() bool {
	return false
}

package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedded embed.FS

const (
	// EmbeddedDir is the migrations directory inside the compiled-in FS.
	EmbeddedDir = "migrations"
	// SourceDir is where new migrations are written during development.
	SourceDir = "internal/migrate/migrations"
)

// FS exposes the compiled-in migrations.
func FS() fs.FS {
	return embedded
}

func configure() error {
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command against the compiled-in migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := configure(); err != nil {
		return err
	}

	if err := goose.RunContext(ctx, command, db, EmbeddedDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB) error {
	return Run(ctx, db, "up")
}

// MigrateToVersion migrates up or down to the requested version.
func MigrateToVersion(ctx context.Context, db *sql.DB, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if err := configure(); err != nil {
		return err
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

// MaybeAutoMigrate applies pending migrations at startup when enabled.
func MaybeAutoMigrate(ctx context.Context, enabled bool, db *sql.DB, logger *zap.Logger) error {
	if !enabled {
		return nil
	}

	logger.Info("Running goose migrations (auto-migrate)", zap.String("dir", EmbeddedDir))
	if err := Up(ctx, db); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logger.Info("Goose migrations completed")
	return nil
}

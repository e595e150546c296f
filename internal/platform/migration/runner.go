// Copyright (c) 2026 Lorekeep. All rights reserved.

// Package migration provides a thin wrapper around golang-migrate for
// running database schema migrations.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. It enforces schema
// idempotency during application startup, ensuring the database is always
// in the correct state before traffic is served.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunUp applies all pending UP migrations and refuses to start on a dirty
// schema.
//
// # Parameters
//   - dsn: A libpq-compatible DSN or postgres:// URL.
//   - migrationsPath: Filesystem path to the migrations directory.
//   - logger: Structured logger for migration events.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+migrationsPath, pgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration_init_failed: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = &slogBridge{logger: logger}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration_version_check_failed: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration_dirty_schema: version %d requires manual intervention", version)
	}

	logger.Info("migration_started", slog.Int("current_version", int(version)))

	switch err := migrator.Up(); {
	case err == nil:
		applied, _, _ := migrator.Version()
		logger.Info("migration_successful",
			slog.Int("from_version", int(version)),
			slog.Int("to_version", int(applied)),
		)
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_already_up_to_date")
		return nil
	default:
		return fmt.Errorf("migration_up_failed: %w", err)
	}
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, dbErr := migrator.Close()
	if sourceErr != nil {
		logger.Error("migration_source_close_failed", slog.Any("error", sourceErr))
	}
	if dbErr != nil {
		logger.Error("migration_db_close_failed", slog.Any("error", dbErr))
	}
}

// pgx5DSN rewrites postgres:// style URLs to the pgx5:// scheme that the
// golang-migrate pgx/v5 driver registers under.
func pgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// slogBridge adapts golang-migrate's logger interface to slog.
type slogBridge struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (bridge *slogBridge) Printf(format string, args ...any) {
	bridge.logger.Debug(fmt.Sprintf(format, args...))
}

// Verbose implements migrate.Logger.
func (bridge *slogBridge) Verbose() bool {
	return bridge.verbose
}

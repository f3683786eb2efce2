package dbcontract

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the schema-of-record a downstream loader assumes.
// DB.EnsureSchema drives it from the probe's own connection parameters when
// a migrations path is configured; row insertion remains out of scope.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner builds a runner against the migrations/ directory.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	return &MigrationRunner{migrate: m, log: logger}, nil
}

// Up applies all pending migrations.
func (mr *MigrationRunner) Up(ctx context.Context) error {
	mr.log.Info("running schema migrations up")
	if err := mr.migrate.Up(); err != nil {
		if err == migrate.ErrNoChange {
			mr.log.Info("no pending migrations")
			return nil
		}
		return fmt.Errorf("running migrations up: %w", err)
	}
	version, dirty, err := mr.migrate.Version()
	if err != nil {
		mr.log.WithError(err).Warn("could not read migration version after up")
	} else {
		mr.log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("migrations applied")
	}
	return nil
}

// Down rolls back one migration.
func (mr *MigrationRunner) Down(ctx context.Context) error {
	mr.log.Info("rolling back one migration")
	if err := mr.migrate.Steps(-1); err != nil {
		if err == migrate.ErrNoChange {
			return nil
		}
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// Version returns the current migration version.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.migrate.Version()
}

// Close releases the migration runner's source and database handles.
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}

// EnsureSchema applies any pending migrations (when db was opened with a
// Config.MigrationsPath) and then probes that tables exist, so a caller that
// owns its own migrations directory gets both steps from one connection.
func (db *DB) EnsureSchema(ctx context.Context, tables ...string) (bool, error) {
	if db.migrationsPath != "" {
		runner, err := NewMigrationRunner(db.migrationURL, db.migrationsPath, db.log)
		if err != nil {
			return false, fmt.Errorf("preparing schema migrations: %w", err)
		}
		defer runner.Close()
		if err := runner.Up(ctx); err != nil {
			return false, fmt.Errorf("applying schema migrations: %w", err)
		}
	}
	return db.SchemaExists(ctx, tables...)
}

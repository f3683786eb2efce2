// Package dbcontract checks that an assembled patient profile satisfies the
// back-reference invariants a downstream relational loader depends on, and
// (when a DSN is configured) probes that the loader's target schema exists.
// It never writes a row; row insertion is the excluded persistence layer.
package dbcontract

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Config holds the pgxpool connection parameters for the schema probe.
type Config struct {
	Host        string
	Port        int
	Database    string
	Username    string
	Password    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	SSLMode     string
	// MigrationsPath, when non-empty, is a `file://`-relative directory of
	// golang-migrate migrations that EnsureSchema applies before probing.
	MigrationsPath string
}

// DB wraps the pgxpool.Pool used by the schema probe.
type DB struct {
	Pool *pgxpool.Pool
	log  *logrus.Logger

	migrationURL   string
	migrationsPath string
}

// NewConnection opens a connection pool against the configured schema.
func NewConnection(ctx context.Context, config Config, logger *logrus.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Host, config.Port, config.Database, config.Username, config.Password, config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolConfig.MaxConns = config.MaxConns
	poolConfig.MinConns = config.MinConns
	poolConfig.MaxConnLifetime = config.MaxConnLife
	poolConfig.MaxConnIdleTime = config.MaxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host":     config.Host,
		"port":     config.Port,
		"database": config.Database,
	}).Info("database contract probe connected")

	migrationURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(config.Username), url.QueryEscape(config.Password),
		config.Host, config.Port, config.Database, config.SSLMode,
	)

	return &DB{Pool: pool, log: logger, migrationURL: migrationURL, migrationsPath: config.MigrationsPath}, nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info("database contract probe connection closed")
	}
}

// SchemaExists checks that the tables a downstream loader expects are present.
func (db *DB) SchemaExists(ctx context.Context, tables ...string) (bool, error) {
	for _, table := range tables {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("probing table %s: %w", table, err)
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}

// Package database owns the connection to Postgres: settings from the
// environment, pool construction, health checks, error classification and
// persistence metrics. Every logical operation of the core acquires its
// statements from the pool and never shares a transaction across operations.
package database

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/heptiolabs/healthcheck"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/backoff"
)

// Settings are the Postgres connection parameters, read from POSTGRES_* vars.
type Settings struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"db"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER,required"`
	Password string `env:"POSTGRES_PASSWORD,required"`
	Database string `env:"POSTGRES_DATABASE,required"`
	SSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"require"`
}

// SettingsFromEnv parses the connection settings from the environment.
func SettingsFromEnv() (Settings, error) {
	return env.ParseAs[Settings]()
}

// ConnectionString renders the settings as a keyword/value conninfo string.
func (s Settings) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.Host, s.Port, s.User, s.Password, s.Database, s.SSLMode)
}

// PgxIface is the slice of pgxpool.Pool the core uses. pgxmock's pool
// interface satisfies it, which keeps every repository testable without a
// database.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Connect opens the pool and verifies the connection with a ping.
func Connect(ctx context.Context, settings Settings) (PgxIface, error) {
	parseConfig, err := pgxpool.ParseConfig(settings.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	parseConfig.MinConns = int32(runtime.NumCPU())
	if parseConfig.MinConns < 4 {
		parseConfig.MinConns = 4
	}
	parseConfig.MaxConnIdleTime = 5 * time.Minute
	parseConfig.MaxConnLifetime = 10 * time.Minute

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connCtx, parseConfig)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	// The database may still be starting up; back off between ping attempts.
	const maxPingRetries = 5
	for retries := int64(1); ; retries++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err == nil {
			break
		}
		if retries >= maxPingRetries {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		zap.S().Warnf("Database not reachable yet (attempt %d): %v", retries, err)
		backoff.Sleep(retries, 100*time.Millisecond, 2*time.Second)
	}

	zap.S().Infof("Connected to %s@%s:%d/%s [%s]", settings.User, settings.Host, settings.Port, settings.Database, settings.SSLMode)
	return pool, nil
}

// HealthCheck returns a healthcheck probe that pings the pool.
func HealthCheck(db PgxIface) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.Ping(ctx)
	}
}

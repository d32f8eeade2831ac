package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
	"go.uber.org/zap"

	"github.com/xela07ax/carbon-assessment/internal/infra"
)

// Open создает пул соединений. Само подключение ленивое, проверяется в Connect.
func Open(cfg infra.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(int(cfg.MinConns))
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Connect открывает пул и ждет готовности базы с экспоненциальной задержкой.
// Используется только при старте: запросы на горячем пути не ретраятся.
func Connect(ctx context.Context, cfg infra.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	err = retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database is not ready, retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	).Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return db, nil
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// The init script and the runtime queries of the previous generation of
// this service disagreed on table and column names. This is the single
// reconciled schema: it covers both the confirmation workflow (uuid,
// confirmed, confirmed_value) and the fields the out-of-band ingestion
// path writes (value, measure_datetime).
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		customer_code TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		uuid TEXT NOT NULL UNIQUE,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		measure_type TEXT NOT NULL CHECK (measure_type IN ('WATER', 'GAS')),
		value DOUBLE PRECISION,
		measure_datetime TIMESTAMPTZ NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirmed_value DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_customer_id ON readings (customer_id)`,
}

// Migrate creates the schema if it does not exist. Statements are
// idempotent, so running at every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	logger.Info("database schema is up to date")
	return nil
}

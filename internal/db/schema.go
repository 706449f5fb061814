package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The UNIQUE constraint on start_time is what finally rules out double booking.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS appointments (
		id         uuid PRIMARY KEY,
		name       text NOT NULL,
		email      text NOT NULL,
		start_time timestamptz NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT appointments_start_time_key UNIQUE (start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id             bigserial PRIMARY KEY,
		event_type     text NOT NULL,
		appointment_id uuid,
		payload        jsonb,
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS event_logs_appointment_id_idx ON event_logs (appointment_id)`,
}

// Migrate creates the tables the api-server needs. It is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

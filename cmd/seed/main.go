package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-booking/internal/config"
	"github.com/hackgods/appointment-booking/internal/db"
	"github.com/hackgods/appointment-booking/internal/logger"
)

type seedConfig struct {
	Days      int     // number of days to fill, starting tomorrow
	FillRatio float64 // share of valid hours booked per day
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: config load: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	sc := seedConfig{
		Days:      getInt("SEED_DAYS", 14),
		FillRatio: getFloat("SEED_FILL_RATIO", 0.6),
	}
	log.Info("seed starting", zap.Int("days", sc.Days), zap.Float64("fill_ratio", sc.FillRatio))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.DefaultPoolConfig)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	starts := slotStarts(time.Now().In(cfg.Location), cfg.ValidHours, sc)
	inserted, err := seedAppointments(context.Background(), pool, starts, log)
	if err != nil {
		log.Fatal("seed appointments", zap.Error(err))
	}

	log.Info("seed complete", zap.Int("candidates", len(starts)), zap.Int("inserted", inserted))
}

// slotStarts picks a random subset of the valid hours on each of the next sc.Days days.
func slotStarts(now time.Time, hours []string, sc seedConfig) []time.Time {
	var starts []time.Time
	for d := 1; d <= sc.Days; d++ {
		day := now.AddDate(0, 0, d)
		for _, h := range hours {
			if gofakeit.Float64Range(0, 1) >= sc.FillRatio {
				continue
			}
			t, err := time.Parse(config.HourLayout, h)
			if err != nil {
				continue
			}
			starts = append(starts, time.Date(day.Year(), day.Month(), day.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, now.Location()))
		}
	}
	return starts
}

// seedAppointments skips starts that are already booked, so it can be re-run.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, starts []time.Time, log *zap.Logger) (int, error) {
	const batchSize = 500

	inserted := 0
	for offset := 0; offset < len(starts); offset += batchSize {
		end := offset + batchSize
		if end > len(starts) {
			end = len(starts)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return inserted, err
		}

		for _, start := range starts[offset:end] {
			tag, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, name, email, start_time, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
				ON CONFLICT (start_time) DO NOTHING
			`, uuid.New(), gofakeit.Name(), gofakeit.Email(), start)
			if err != nil {
				_ = tx.Rollback(ctx)
				return inserted, err
			}
			inserted += int(tag.RowsAffected())
		}

		if err := tx.Commit(ctx); err != nil {
			return inserted, err
		}

		log.Info("appointments seeded", zap.Int("progress", end), zap.Int("total", len(starts)))
	}

	return inserted, nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

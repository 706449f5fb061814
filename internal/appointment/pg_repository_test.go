package appointment_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/appointment-booking/internal/appointment"
	"github.com/hackgods/appointment-booking/internal/db"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, dsn, db.DefaultPoolConfig)
	if err != nil {
		t.Fatalf("ConnectPostgres error: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE appointments, event_logs`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func TestPgRepositoryIntegration_CRUD(t *testing.T) {
	pool := newTestPool(t)
	repo := appointment.NewPgRepository(pool)
	ctx := context.Background()

	start := time.Date(2031, 3, 4, 9, 0, 0, 0, time.UTC)
	created, err := repo.CreateAppointment(ctx, appointment.Fields{Name: "Ada", Email: "ada@example.com", Start: start})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}

	got, err := repo.GetAppointmentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAppointmentByID error: %v", err)
	}
	if got.Name != "Ada" || !got.Start.Equal(start) {
		t.Fatalf("got = %+v", got)
	}

	if _, err := repo.CreateAppointment(ctx, appointment.Fields{Name: "Bob", Email: "bob@example.com", Start: start}); !errors.Is(err, appointment.ErrSlotTaken) {
		t.Fatalf("duplicate start error = %v, want %v", err, appointment.ErrSlotTaken)
	}

	moved := start.Add(time.Hour)
	updated, err := repo.UpdateAppointment(ctx, created.ID, appointment.Fields{Name: "Ada L", Email: "ada@example.com", Start: moved})
	if err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if updated.ID != created.ID || !updated.Start.Equal(moved) {
		t.Fatalf("updated = %+v", updated)
	}

	inRange, err := repo.ListAppointmentsInRange(ctx, start, moved)
	if err != nil {
		t.Fatalf("ListAppointmentsInRange error: %v", err)
	}
	if len(inRange) != 1 {
		t.Fatalf("inclusive range returned %d rows, want 1", len(inRange))
	}

	if err := repo.DeleteAppointment(ctx, created.ID); err != nil {
		t.Fatalf("DeleteAppointment error: %v", err)
	}
	if err := repo.DeleteAppointment(ctx, created.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, appointment.ErrAppointmentNotFound)
	}
	if _, err := repo.UpdateAppointment(ctx, uuid.New(), appointment.Fields{Start: moved}); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("update missing error = %v, want %v", err, appointment.ErrAppointmentNotFound)
	}
}

func TestPgRepositoryIntegration_InsertEvent(t *testing.T) {
	pool := newTestPool(t)
	repo := appointment.NewPgRepository(pool)
	ctx := context.Background()

	id := uuid.New()
	err := repo.InsertEvent(ctx, appointment.EventLog{
		EventType:     appointment.EventAppointmentCreated,
		AppointmentID: &id,
		Payload:       []byte(`{"start":"2031-03-04 09:00:00"}`),
	})
	if err != nil {
		t.Fatalf("InsertEvent error: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM event_logs WHERE appointment_id = $1`, id).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("events = %d, want 1", count)
	}
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-booking/internal/appointment"
)

// AppointmentService is implemented by *appointment.Service.
type AppointmentService interface {
	List(ctx context.Context, date string) ([]appointment.Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Summary, error)
	Create(ctx context.Context, in appointment.CreateInput) (*appointment.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, in appointment.UpdateInput) (*appointment.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AvailableHours(ctx context.Context, date string) ([]string, error)
}

type RouterConfig struct {
	Service        AppointmentService
	Postgres       Pinger
	Redis          Pinger
	Env            string
	Version        string
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Service
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", listAppointmentsHandler(svc, log))
		r.Post("/", createAppointmentHandler(svc, log))
		r.Get("/{date}/hours", availableHoursHandler(svc, log))
		r.Get("/{id}", getAppointmentHandler(svc, log))
		r.Put("/{id}", updateAppointmentHandler(svc, log))
		r.Patch("/{id}", updateAppointmentHandler(svc, log))
		r.Delete("/{id}", deleteAppointmentHandler(svc, log))
	})

	return r
}

package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("slot already has an appointment")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context) ([]Appointment, error)

	// Both bounds are inclusive.
	ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// Creation and updates return ErrSlotTaken when another appointment holds f.Start
	CreateAppointment(ctx context.Context, f Fields) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, f Fields) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DateTimeLayout is the wire format of an appointment start.
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
	HourLayout     = "15:04:05"
)

type Appointment struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Start     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the projection returned by list and get.
type Summary struct {
	ID    uuid.UUID
	Name  string
	Email string
	Start time.Time
}

func (a Appointment) Summary() Summary {
	return Summary{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Start: a.Start,
	}
}

// Fields is the writable part of an appointment, already validated.
type Fields struct {
	Name  string
	Email string
	Start time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

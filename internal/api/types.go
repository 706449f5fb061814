package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/appointment-booking/internal/appointment"
)

type CreateAppointmentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Start string `json:"start"`
}

// UpdateAppointmentRequest leaves omitted fields nil so the stored values are kept.
type UpdateAppointmentRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Start *string `json:"start"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Start     string    `json:"start"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AppointmentSummaryResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Start string    `json:"start"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Start:     a.Start.Format(appointment.DateTimeLayout),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toSummaryResponse(s appointment.Summary) AppointmentSummaryResponse {
	return AppointmentSummaryResponse{
		ID:    s.ID,
		Name:  s.Name,
		Email: s.Email,
		Start: s.Start.Format(appointment.DateTimeLayout),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func writeValidationError(w http.ResponseWriter, status int, code string, vErr *appointment.ValidationError) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: vErr.Error(), Fields: vErr.Fields})
}

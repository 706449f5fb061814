package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-booking/internal/appointment"
)

func listAppointmentsHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.List(r.Context(), r.URL.Query().Get("date"))
		if err != nil {
			handleServiceError(w, r, log, err)
			return
		}

		resp := make([]AppointmentSummaryResponse, 0, len(appts))
		for _, a := range appts {
			resp = append(resp, toSummaryResponse(a))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		appt, err := svc.Create(r.Context(), appointment.CreateInput{
			Name:  req.Name,
			Email: req.Email,
			Start: req.Start,
		})
		if err != nil {
			handleServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		summary, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toSummaryResponse(*summary))
	}
}

// updateAppointmentHandler serves both PUT and PATCH.
func updateAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		appt, err := svc.Update(r.Context(), id, appointment.UpdateInput{
			Name:  req.Name,
			Email: req.Email,
			Start: req.Start,
		})
		if err != nil {
			handleServiceError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusAccepted, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleServiceError(w, r, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func availableHoursHandler(svc AppointmentService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours, err := svc.AvailableHours(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			handleServiceError(w, r, log, err)
			return
		}

		if hours == nil {
			hours = []string{}
		}
		writeJSON(w, http.StatusOK, hours)
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody accepts an empty body as an empty request; field rules report what is missing.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var vErr *appointment.ValidationError

	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken) && errors.As(err, &vErr):
		writeValidationError(w, http.StatusConflict, "slot_already_booked", vErr)
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.As(err, &vErr):
		writeValidationError(w, http.StatusBadRequest, "validation_failed", vErr)
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

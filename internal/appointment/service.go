package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-booking/internal/config"
	redisclient "github.com/hackgods/appointment-booking/internal/redis"
)

const (
	EventAppointmentCreated = "APPOINTMENT_CREATED"
	EventAppointmentUpdated = "APPOINTMENT_UPDATED"
	EventAppointmentDeleted = "APPOINTMENT_DELETED"
)

var (
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	rules  *rules
	hours  []string
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log *zap.Logger) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}

	hours := make([]string, len(cfg.ValidHours))
	copy(hours, cfg.ValidHours)

	return &Service{
		repo:   repo,
		locker: locker,
		rules:  newRules(hours, loc),
		hours:  hours,
		loc:    loc,
		now:    time.Now,
		log:    log.Named("appointment"),
	}
}

type CreateInput struct {
	Name  string
	Email string
	Start string
}

// UpdateInput carries the submitted fields. A nil Name or Email keeps the stored value.
type UpdateInput struct {
	Name  *string
	Email *string
	Start *string
}

// List returns every appointment, or only those on date when it is not empty.
func (s *Service) List(ctx context.Context, date string) ([]Summary, error) {
	var (
		appts []Appointment
		err   error
	)

	if date == "" {
		appts, err = s.repo.ListAppointments(ctx)
		if err != nil {
			return nil, fmt.Errorf("list appointments: %w", err)
		}
	} else {
		day, perr := s.parseDate(date)
		if perr != nil {
			return nil, perr
		}
		appts, err = s.appointmentsOnDay(ctx, day)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Summary, 0, len(appts))
	for _, a := range appts {
		out = append(out, s.inZone(a).Summary())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Summary, error) {
	appt, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := appt.Summary()
	return &summary, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	start := strings.TrimSpace(in.Start)

	if err := s.rules.run(
		check{field: "name", value: name, rule: ruleName},
		check{field: "email", value: email, rule: ruleEmail},
		check{field: "start", value: start, rule: ruleStart},
	); err != nil {
		return nil, err
	}

	fields := Fields{Name: name, Email: email, Start: s.rules.parseStart(start)}

	var created *Appointment
	err := s.withSlotLock(ctx, fields.Start, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateAppointment(lockCtx, fields)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		return nil, s.writeError(err)
	}

	created = s.inZone(*created)
	s.log.Info("appointment created",
		zap.String("appointment_id", created.ID.String()),
		zap.String("start", created.Start.Format(DateTimeLayout)),
	)
	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"start": created.Start.Format(DateTimeLayout),
	})

	return created, nil
}

// Update validates the merged field set. The start rule is skipped when the
// submitted start equals the stored one, so an appointment booked on an hour
// that is no longer configured can still have its other fields edited.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	existing, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	name := existing.Name
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	email := existing.Email
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
	}
	var start string
	if in.Start != nil {
		start = strings.TrimSpace(*in.Start)
	}

	startUnchanged := in.Start != nil && s.sameStart(start, existing.Start)

	checks := []check{
		{field: "name", value: name, rule: ruleName},
		{field: "email", value: email, rule: ruleEmail},
	}
	if !startUnchanged {
		checks = append(checks, check{field: "start", value: start, rule: ruleStart})
	}
	if err := s.rules.run(checks...); err != nil {
		return nil, err
	}

	fields := Fields{Name: name, Email: email, Start: existing.Start}
	if !startUnchanged {
		fields.Start = s.rules.parseStart(start)
	}

	var updated *Appointment
	write := func(writeCtx context.Context) error {
		appt, err := s.repo.UpdateAppointment(writeCtx, id, fields)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("update appointment: %w", err)
		}
		updated = appt
		return nil
	}

	if startUnchanged {
		err = write(ctx)
	} else {
		err = s.withSlotLock(ctx, fields.Start, write)
	}
	if err != nil {
		return nil, s.writeError(err)
	}

	updated = s.inZone(*updated)
	s.log.Info("appointment updated",
		zap.String("appointment_id", updated.ID.String()),
		zap.Bool("start_changed", !startUnchanged),
	)
	s.logEvent(ctx, updated.ID, EventAppointmentUpdated, map[string]any{
		"start":         updated.Start.Format(DateTimeLayout),
		"start_changed": !startUnchanged,
	})

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.log.Info("appointment deleted", zap.String("appointment_id", id.String()))
	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{})
	return nil
}

func (s *Service) findAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return s.inZone(*appt), nil
}

// appointmentsOnDay returns appointments starting within [day 00:00:00, day 23:00:00].
// The upper bound matches the latest bookable hour; see config.HoursAfterDayRange.
func (s *Service) appointmentsOnDay(ctx context.Context, day time.Time) ([]Appointment, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	to := time.Date(day.Year(), day.Month(), day.Day(), 23, 0, 0, 0, s.loc)

	appts, err := s.repo.ListAppointmentsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments in range: %w", err)
	}
	return appts, nil
}

func (s *Service) parseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), s.loc)
	if err != nil {
		return time.Time{}, validationError("date", "date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}

func (s *Service) sameStart(submitted string, stored time.Time) bool {
	t, err := time.ParseInLocation(DateTimeLayout, submitted, s.loc)
	if err != nil {
		return false
	}
	return t.Equal(stored)
}

func (s *Service) withSlotLock(ctx context.Context, start time.Time, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithSlotLock(ctx, start, fn)
}

func (s *Service) writeError(err error) error {
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return ErrSlotBeingBooked
	case errors.Is(err, ErrSlotTaken):
		return &ValidationError{
			Fields: map[string]string{"start": "start has already been taken"},
			err:    ErrSlotTaken,
		}
	default:
		return err
	}
}

func (s *Service) inZone(a Appointment) *Appointment {
	a.Start = a.Start.In(s.loc)
	return &a
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}

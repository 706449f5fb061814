package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository enforcing the same start uniqueness as the table.
type memRepo struct {
	mu     sync.Mutex
	appts  map[uuid.UUID]Appointment
	events []EventLog

	// failWith, when set, is returned by every call
	failWith error
}

func newMemRepo() *memRepo {
	return &memRepo{appts: map[uuid.UUID]Appointment{}}
}

// put stores a record directly, bypassing validation.
func (r *memRepo) put(a Appointment) Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.appts[a.ID] = a
	return a
}

func (r *memRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *memRepo) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return r.list(func(Appointment) bool { return true })
}

func (r *memRepo) ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return r.list(func(a Appointment) bool {
		return !a.Start.Before(from) && !a.Start.After(to)
	})
}

func (r *memRepo) list(keep func(Appointment) bool) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := []Appointment{}
	for _, a := range r.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *memRepo) CreateAppointment(ctx context.Context, f Fields) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.startTaken(uuid.Nil, f.Start) {
		return nil, ErrSlotTaken
	}
	now := time.Now()
	a := Appointment{ID: uuid.New(), Name: f.Name, Email: f.Email, Start: f.Start, CreatedAt: now, UpdatedAt: now}
	r.appts[a.ID] = a
	return &a, nil
}

func (r *memRepo) UpdateAppointment(ctx context.Context, id uuid.UUID, f Fields) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if r.startTaken(id, f.Start) {
		return nil, ErrSlotTaken
	}
	a.Name, a.Email, a.Start, a.UpdatedAt = f.Name, f.Email, f.Start, time.Now()
	r.appts[id] = a
	return &a, nil
}

func (r *memRepo) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *memRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepo) startTaken(self uuid.UUID, start time.Time) bool {
	for id, a := range r.appts {
		if id != self && a.Start.Equal(start) {
			return true
		}
	}
	return false
}

type fakeLocker struct {
	withSlotLockFn func(ctx context.Context, start time.Time, fn func(ctx context.Context) error) error
	locked         []time.Time
}

func (f *fakeLocker) WithSlotLock(ctx context.Context, start time.Time, fn func(ctx context.Context) error) error {
	f.locked = append(f.locked, start)
	if f.withSlotLockFn != nil {
		return f.withSlotLockFn(ctx, start, fn)
	}
	return fn(ctx)
}

// Package memstore is an in-process appointment store with optimistic
// transactions: reads record the version of every slot they looked at and
// the commit fails with booking.ErrContention if any of them moved.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/model"
)

type slotKey struct {
	doctorID string
	unix     int64
	nanos    int
}

func keyOf(doctorID string, t time.Time) slotKey {
	return slotKey{doctorID: doctorID, unix: t.Unix(), nanos: t.Nanosecond()}
}

type Store struct {
	mu           sync.Mutex
	appointments map[string]model.Appointment
	byPatient    map[string]map[string]model.Appointment
	versions     map[slotKey]uint64
	now          func() time.Time
}

var _ booking.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		appointments: make(map[string]model.Appointment),
		byPatient:    make(map[string]map[string]model.Appointment),
		versions:     make(map[slotKey]uint64),
		now:          time.Now,
	}
}

type tx struct {
	s      *Store
	reads  map[slotKey]uint64
	writes []*model.Appointment
	done   bool
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	t := &tx{s: s, reads: make(map[slotKey]uint64)}
	defer func() { t.done = true }()

	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range t.reads {
		if s.versions[k] != v {
			return fmt.Errorf("%w: slot %s@%d changed", booking.ErrContention, k.doctorID, k.unix)
		}
	}

	now := s.now().UTC()
	for _, a := range t.writes {
		a.CreatedAt = now
		s.put(*a)
		s.versions[keyOf(a.DoctorID, a.DateTime)]++
	}
	return nil
}

func (s *Store) put(a model.Appointment) {
	s.appointments[a.ID] = a
	p, ok := s.byPatient[a.PatientID]
	if !ok {
		p = make(map[string]model.Appointment)
		s.byPatient[a.PatientID] = p
	}
	p[a.ID] = a
}

func (t *tx) AppointmentsAt(ctx context.Context, doctorID string, dateTime time.Time) ([]model.Appointment, error) {
	if t.done {
		return nil, fmt.Errorf("memstore: transaction already finished")
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	k := keyOf(doctorID, dateTime)
	if _, seen := t.reads[k]; !seen {
		t.reads[k] = t.s.versions[k]
	}

	var out []model.Appointment
	for _, a := range t.s.appointments {
		if a.DoctorID == doctorID && a.DateTime.Equal(dateTime) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *tx) Create(ctx context.Context, a *model.Appointment) error {
	if t.done {
		return fmt.Errorf("memstore: transaction already finished")
	}
	a.ID = uuid.New().String()
	t.writes = append(t.writes, a)
	return nil
}

func (s *Store) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &a, nil
}

// PatientAppointment reads the patient projection directly.
func (s *Store) PatientAppointment(patientID, id string) (*model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byPatient[patientID][id]
	if !ok {
		return nil, false
	}
	return &a, true
}

func (s *Store) DoctorAppointments(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && !a.DateTime.Before(from) && a.DateTime.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) PatientAppointments(ctx context.Context, patientID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Appointment
	for _, a := range s.byPatient[patientID] {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return booking.ErrNotFound
	}
	a.Status = status
	s.put(a)
	s.versions[keyOf(a.DoctorID, a.DateTime)]++
	return nil
}

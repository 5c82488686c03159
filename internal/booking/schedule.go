package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"medpresecure-booking/internal/metrics"
	"medpresecure-booking/internal/model"
	"medpresecure-booking/internal/slot"
)

type SlotAvailability struct {
	Label    string
	DateTime time.Time
	Booked   bool
}

// Schedule is the read side around the coordinator: availability, patient
// listings and cancellation.
type Schedule struct {
	repo    Repository
	cache   SlotCache
	policy  Policy
	loc     *time.Location
	log     *zap.Logger
	metrics *metrics.Metrics
}

type ScheduleConfig struct {
	Policy   Policy
	Location *time.Location
	// Cache may be nil.
	Cache   SlotCache
	Metrics *metrics.Metrics
}

func NewSchedule(repo Repository, log *zap.Logger, cfg ScheduleConfig) *Schedule {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{
		repo:    repo,
		cache:   cfg.Cache,
		policy:  cfg.Policy,
		loc:     loc,
		log:     log,
		metrics: cfg.Metrics,
	}
}

func (s *Schedule) Location() *time.Location { return s.loc }

// Availability lists every slot of day for doctorID and whether it is taken.
func (s *Schedule) Availability(ctx context.Context, doctorID string, day time.Time) ([]SlotAvailability, error) {
	if doctorID == "" {
		return nil, &ValidationError{Field: "DoctorID", Reason: "is required"}
	}
	start, end := slot.DayRange(day.In(s.loc))

	booked, err := s.bookedSlots(ctx, doctorID, start, end)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]bool, len(booked))
	for _, t := range booked {
		taken[t.Unix()] = true
	}

	labels := slot.Labels()
	out := make([]SlotAvailability, 0, len(labels))
	for _, l := range labels {
		at, err := slot.At(start, l)
		if err != nil {
			return nil, err
		}
		out = append(out, SlotAvailability{Label: l, DateTime: at, Booked: taken[at.Unix()]})
	}
	return out, nil
}

func (s *Schedule) bookedSlots(ctx context.Context, doctorID string, start, end time.Time) ([]time.Time, error) {
	if s.cache != nil {
		booked, ok, err := s.cache.BookedSlots(ctx, doctorID, start)
		if err != nil {
			s.log.Warn("availability cache read failed", zap.String("doctor_id", doctorID), zap.Error(err))
		} else {
			s.metrics.ObserveCache(ok)
			if ok {
				return booked, nil
			}
		}
	}

	appts, err := s.repo.DoctorAppointments(ctx, doctorID, start, end)
	if err != nil {
		return nil, &StorageError{Op: "list doctor appointments", Err: err}
	}
	booked := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		if s.policy.Blocks(a) {
			booked = append(booked, a.DateTime)
		}
	}

	if s.cache != nil {
		if err := s.cache.StoreBookedSlots(ctx, doctorID, start, booked); err != nil {
			s.log.Warn("availability cache write failed", zap.String("doctor_id", doctorID), zap.Error(err))
		}
	}
	return booked, nil
}

// Invalidate drops the cached availability of the day containing at.
// Cache failures are logged only.
func (s *Schedule) Invalidate(ctx context.Context, doctorID string, at time.Time) {
	if s.cache == nil {
		return
	}
	start, _ := slot.DayRange(at.In(s.loc))
	if err := s.cache.Invalidate(ctx, doctorID, start); err != nil {
		s.log.Warn("availability cache invalidate failed",
			zap.String("doctor_id", doctorID),
			zap.Time("day", start),
			zap.Error(err),
		)
	}
}

func (s *Schedule) Appointments(ctx context.Context, patientID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	if patientID == "" {
		return nil, &ValidationError{Field: "PatientID", Reason: "is required"}
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, &ValidationError{Field: "Status", Reason: fmt.Sprintf("unknown status %q", f.Status)}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, &ValidationError{Field: "To", Reason: "must not be before From"}
	}
	appts, err := s.repo.PatientAppointments(ctx, patientID, f)
	if err != nil {
		return nil, &StorageError{Op: "list patient appointments", Err: err}
	}
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].DateTime.Before(appts[j].DateTime) })
	return appts, nil
}

// Appointment returns ErrNotFound for appointments of other patients so
// their existence is not revealed.
func (s *Schedule) Appointment(ctx context.Context, patientID, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, &ValidationError{Field: "ID", Reason: "is required"}
	}
	a, err := s.repo.Appointment(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get appointment", Err: err}
	}
	if a.PatientID != patientID {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Schedule) Cancel(ctx context.Context, patientID, id string) (*model.Appointment, error) {
	a, err := s.Appointment(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case model.StatusCancelled:
		return a, nil
	case model.StatusCompleted:
		return nil, &ValidationError{Field: "Status", Reason: "completed appointments cannot be cancelled"}
	}

	if err := s.repo.SetStatus(ctx, id, model.StatusCancelled); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "cancel appointment", Err: err}
	}
	a.Status = model.StatusCancelled
	s.Invalidate(ctx, a.DoctorID, a.DateTime)

	s.log.Info("appointment cancelled",
		zap.String("appointment_id", a.ID),
		zap.String("patient_id", patientID),
		zap.String("doctor_id", a.DoctorID),
	)
	return a, nil
}

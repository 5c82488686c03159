package booking

import (
	"context"
	"time"

	"medpresecure-booking/internal/model"
)

// Tx is the view of the store inside one transaction.
type Tx interface {
	// AppointmentsAt returns every appointment of doctorID at exactly
	// dateTime, whatever its status. The read joins the transaction's read
	// set so a concurrent commit for the same key aborts this transaction.
	AppointmentsAt(ctx context.Context, doctorID string, dateTime time.Time) ([]model.Appointment, error)

	// Create writes the canonical record and the patient projection as one
	// unit. The store assigns a.ID, and a.CreatedAt no later than commit.
	Create(ctx context.Context, a *model.Appointment) error
}

// Transactor runs fn inside a store transaction. fn's error aborts the
// transaction and is returned unchanged. A commit lost to a concurrent
// writer is reported as an error wrapping ErrContention.
type Transactor interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Repository is the non-transactional read and status side of the store.
type Repository interface {
	Appointment(ctx context.Context, id string) (*model.Appointment, error)
	DoctorAppointments(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error)
	PatientAppointments(ctx context.Context, patientID string, f model.AppointmentFilter) ([]model.Appointment, error)
	// SetStatus updates both projections of one appointment together.
	SetStatus(ctx context.Context, id string, status model.Status) error
}

type Store interface {
	Transactor
	Repository
}

// SlotCache keeps the booked timestamps of a doctor's day.
type SlotCache interface {
	BookedSlots(ctx context.Context, doctorID string, day time.Time) ([]time.Time, bool, error)
	StoreBookedSlots(ctx context.Context, doctorID string, day time.Time, booked []time.Time) error
	Invalidate(ctx context.Context, doctorID string, day time.Time) error
}

// Policy decides which existing appointments occupy a slot.
type Policy int

const (
	// PolicyBlockAll treats every existing record as occupying its slot,
	// cancelled ones included.
	PolicyBlockAll Policy = iota
	// PolicyFreeCancelled lets a cancelled appointment's slot be booked again.
	PolicyFreeCancelled
)

func (p Policy) Blocks(a model.Appointment) bool {
	if p == PolicyFreeCancelled && a.Status == model.StatusCancelled {
		return false
	}
	return true
}

func (p Policy) String() string {
	if p == PolicyFreeCancelled {
		return "free-cancelled"
	}
	return "block-all"
}

package model

import "time"

type AppointmentType string

const (
	TypeVideo    AppointmentType = "Video"
	TypeInPerson AppointmentType = "In-person"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment is stored twice: once in the canonical collection and once
// under its patient. Both copies carry identical fields.
type Appointment struct {
	ID        string
	PatientID string
	DoctorID  string
	DateTime  time.Time
	Type      AppointmentType
	Status    Status
	Notes     string
	CreatedAt time.Time
}

// AppointmentFilter narrows a patient listing. Zero values match everything.
type AppointmentFilter struct {
	Status Status
	From   time.Time
	To     time.Time
}

func (f AppointmentFilter) Match(a Appointment) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && a.DateTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.DateTime.After(f.To) {
		return false
	}
	return true
}

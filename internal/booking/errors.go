package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSlotConflict matches every SlotConflictError.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrContention is returned (wrapped) by stores when a transaction lost
	// an optimistic-concurrency race and was aborted.
	ErrContention = errors.New("transaction aborted by concurrent writer")

	ErrNotFound = errors.New("appointment not found")
)

type SlotConflictError struct {
	DoctorID string
	DateTime time.Time
	// Contended is set when the store aborted the transaction rather than
	// the conflict query finding a record. Callers see the same error.
	Contended bool
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s with doctor %s is already booked", e.DateTime.Format(time.RFC3339), e.DoctorID)
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

package booking

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"medpresecure-booking/internal/metrics"
	"medpresecure-booking/internal/model"
)

const defaultTxTimeout = 10 * time.Second

var validate = validator.New()

type ReserveRequest struct {
	PatientID string                `validate:"required"`
	DoctorID  string                `validate:"required"`
	DateTime  time.Time             `validate:"required"`
	Type      model.AppointmentType `validate:"required,oneof=Video In-person"`
	Notes     string                `validate:"max=2000"`
}

// Coordinator commits appointments so that no two share a doctor and
// timestamp. It holds no state of its own: exclusion comes entirely from the
// store's transaction isolation.
type Coordinator struct {
	tx        Transactor
	log       *zap.Logger
	policy    Policy
	metrics   *metrics.Metrics
	txTimeout time.Duration
}

type Option func(*Coordinator)

func WithPolicy(p Policy) Option {
	return func(c *Coordinator) { c.policy = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithTxTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.txTimeout = d
		}
	}
}

func NewCoordinator(tx Transactor, log *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{tx: tx, log: log, txTimeout: defaultTxTimeout}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Coordinator) Policy() Policy { return c.policy }

// ReserveSlot books req.DateTime with req.DoctorID for req.PatientID.
// It returns a *ValidationError before touching the store, a
// *SlotConflictError when the slot is taken (including lost races), or a
// *StorageError for any other store failure. None of them are retried.
func (c *Coordinator) ReserveSlot(ctx context.Context, req ReserveRequest) (*model.Appointment, error) {
	start := time.Now()

	if err := checkRequest(req); err != nil {
		c.metrics.ObserveReservation(metrics.OutcomeInvalid, time.Since(start))
		return nil, err
	}

	// the transaction outlives the caller: abandoning the request does not
	// abort a commit that is already under way
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.txTimeout)
	defer cancel()

	var appt *model.Appointment
	err := c.tx.RunTransaction(txCtx, func(ctx context.Context, tx Tx) error {
		appt = nil
		existing, err := tx.AppointmentsAt(ctx, req.DoctorID, req.DateTime)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if c.policy.Blocks(e) {
				return &SlotConflictError{DoctorID: req.DoctorID, DateTime: req.DateTime}
			}
		}

		a := &model.Appointment{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			DateTime:  req.DateTime,
			Type:      req.Type,
			Status:    model.StatusPending,
			Notes:     req.Notes,
		}
		if err := tx.Create(ctx, a); err != nil {
			return err
		}
		appt = a
		return nil
	})

	switch {
	case err == nil:
		c.metrics.ObserveReservation(metrics.OutcomeBooked, time.Since(start))
		c.log.Info("slot reserved",
			zap.String("appointment_id", appt.ID),
			zap.String("patient_id", appt.PatientID),
			zap.String("doctor_id", appt.DoctorID),
			zap.Time("date_time", appt.DateTime),
		)
		return appt, nil

	case errors.Is(err, ErrSlotConflict):
		c.metrics.ObserveReservation(metrics.OutcomeConflict, time.Since(start))
		c.log.Info("slot conflict",
			zap.String("patient_id", req.PatientID),
			zap.String("doctor_id", req.DoctorID),
			zap.Time("date_time", req.DateTime),
		)
		var conflict *SlotConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, &SlotConflictError{DoctorID: req.DoctorID, DateTime: req.DateTime}

	case errors.Is(err, ErrContention):
		c.metrics.ObserveReservation(metrics.OutcomeConflict, time.Since(start))
		c.log.Info("slot lost to concurrent booking",
			zap.String("patient_id", req.PatientID),
			zap.String("doctor_id", req.DoctorID),
			zap.Time("date_time", req.DateTime),
			zap.Error(err),
		)
		return nil, &SlotConflictError{DoctorID: req.DoctorID, DateTime: req.DateTime, Contended: true}

	default:
		c.metrics.ObserveReservation(metrics.OutcomeError, time.Since(start))
		c.log.Error("reserve slot failed",
			zap.String("patient_id", req.PatientID),
			zap.String("doctor_id", req.DoctorID),
			zap.Time("date_time", req.DateTime),
			zap.Error(err),
		)
		return nil, &StorageError{Op: "reserve slot", Err: err}
	}
}

func checkRequest(req ReserveRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
	}
	return &ValidationError{Reason: err.Error()}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}

// Package handler implements booking.v1.BookingService on top of the
// booking coordinator and schedule. The HTTP gateway calls it directly.
package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "medpresecure-booking/api/booking/v1"
	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/middleware"
)

type Handler struct {
	pb.UnimplementedBookingServiceServer
	coord   *booking.Coordinator
	sched   *booking.Schedule
	loc     *time.Location
	horizon time.Duration
	now     func() time.Time
	log     *zap.Logger
}

type Config struct {
	// Horizon is how far ahead a slot may be booked. Zero means unbounded.
	Horizon time.Duration
	Now     func() time.Time
}

func New(coord *booking.Coordinator, sched *booking.Schedule, cfg Config, log *zap.Logger) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		coord:   coord,
		sched:   sched,
		loc:     sched.Location(),
		horizon: cfg.Horizon,
		now:     now,
		log:     log,
	}
}

var _ pb.BookingServiceServer = (*Handler)(nil)

func patientID(ctx context.Context) (string, error) {
	id := middleware.PatientID(ctx)
	if id == "" {
		return "", status.Error(codes.Unauthenticated, "not signed in")
	}
	return id, nil
}

const slotTakenMsg = "time slot already booked, please pick another time"

// toStatus maps booking errors onto gRPC codes.
func (h *Handler) toStatus(err error) error {
	var (
		verr *booking.ValidationError
		serr *booking.StorageError
	)
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		return status.Error(codes.AlreadyExists, slotTakenMsg)
	case errors.Is(err, booking.ErrNotFound):
		return status.Error(codes.NotFound, "appointment not found")
	case errors.As(err, &serr):
		h.log.Error("storage failure", zap.String("op", serr.Op), zap.Error(serr.Err))
		return status.Error(codes.Unavailable, "service temporarily unavailable, please retry")
	default:
		h.log.Error("unexpected error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

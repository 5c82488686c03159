package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "medpresecure-booking/api/booking/v1"
	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/model"
	"medpresecure-booking/internal/slot"
)

func (h *Handler) ReserveSlot(ctx context.Context, req *pb.ReserveSlotRequest) (*pb.ReserveSlotResponse, error) {
	pid, err := patientID(ctx)
	if err != nil {
		return nil, err
	}
	if req.DoctorID == "" || req.Date == "" || req.Slot == "" {
		return nil, status.Error(codes.InvalidArgument, "doctorId, date and slot required")
	}

	at, err := slot.Resolve(req.Date, req.Slot, h.loc)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	now := h.now()
	if !at.After(now) {
		return nil, status.Error(codes.InvalidArgument, "cannot book in the past")
	}
	if h.horizon > 0 && at.After(now.Add(h.horizon)) {
		return nil, status.Error(codes.InvalidArgument, "slot is beyond the booking window")
	}

	appt, err := h.coord.ReserveSlot(ctx, booking.ReserveRequest{
		PatientID: pid,
		DoctorID:  req.DoctorID,
		DateTime:  at,
		Type:      model.AppointmentType(req.Type),
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	h.sched.Invalidate(ctx, appt.DoctorID, appt.DateTime)

	return &pb.ReserveSlotResponse{Appointment: h.toProto(appt)}, nil
}

func (h *Handler) GetAvailability(ctx context.Context, req *pb.GetAvailabilityRequest) (*pb.GetAvailabilityResponse, error) {
	if req.DoctorID == "" {
		return nil, status.Error(codes.InvalidArgument, "doctorId required")
	}
	day, err := slot.ParseDay(req.Date, h.loc)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	slots, err := h.sched.Availability(ctx, req.DoctorID, day)
	if err != nil {
		return nil, h.toStatus(err)
	}

	now := h.now()
	out := make([]*pb.SlotStatus, len(slots))
	for i, s := range slots {
		bookable := s.DateTime.After(now) &&
			(h.horizon == 0 || !s.DateTime.After(now.Add(h.horizon)))
		out[i] = &pb.SlotStatus{
			Slot:      s.Label,
			DateTime:  s.DateTime.Format(time.RFC3339),
			Available: !s.Booked && bookable,
		}
	}
	return &pb.GetAvailabilityResponse{DoctorID: req.DoctorID, Date: slot.FormatDay(day), Slots: out}, nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *pb.ListAppointmentsRequest) (*pb.ListAppointmentsResponse, error) {
	pid, err := patientID(ctx)
	if err != nil {
		return nil, err
	}

	f := model.AppointmentFilter{Status: model.Status(req.Status)}
	if f.From, err = h.parseBound(req.From, false); err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad from: "+err.Error())
	}
	if f.To, err = h.parseBound(req.To, true); err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad to: "+err.Error())
	}

	appts, err := h.sched.Appointments(ctx, pid, f)
	if err != nil {
		return nil, h.toStatus(err)
	}
	out := make([]*pb.Appointment, len(appts))
	for i := range appts {
		out[i] = h.toProto(&appts[i])
	}
	return &pb.ListAppointmentsResponse{Appointments: out}, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *pb.GetAppointmentRequest) (*pb.GetAppointmentResponse, error) {
	pid, err := patientID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	appt, err := h.sched.Appointment(ctx, pid, req.ID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &pb.GetAppointmentResponse{Appointment: h.toProto(appt)}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *pb.CancelAppointmentRequest) (*pb.CancelAppointmentResponse, error) {
	pid, err := patientID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	appt, err := h.sched.Cancel(ctx, pid, req.ID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &pb.CancelAppointmentResponse{Appointment: h.toProto(appt)}, nil
}

// parseBound reads a list filter bound. A bare date as the upper bound
// covers the whole day.
func (h *Handler) parseBound(v string, upper bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if day, err := slot.ParseDay(v, h.loc); err == nil {
		if upper {
			_, end := slot.DayRange(day)
			return end.Add(-time.Nanosecond), nil
		}
		return day, nil
	}
	return time.Parse(time.RFC3339, v)
}

func (h *Handler) toProto(a *model.Appointment) *pb.Appointment {
	local := a.DateTime.In(h.loc)
	return &pb.Appointment{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		DateTime:  local.Format(time.RFC3339),
		Date:      slot.FormatDay(local),
		Slot:      slot.Label(local),
		Type:      string(a.Type),
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

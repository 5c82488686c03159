package handler_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "medpresecure-booking/api/booking/v1"
	"medpresecure-booking/internal/auth"
	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/handler"
	"medpresecure-booking/internal/middleware"
	"medpresecure-booking/internal/store/memstore"
)

const secret = "test-secret"

var now = time.Date(2030, 6, 1, 10, 15, 0, 0, time.UTC)

func setup(t *testing.T, policy booking.Policy) (*handler.Handler, *memstore.Store) {
	t.Helper()
	log := zaptest.NewLogger(t)
	st := memstore.New()
	coord := booking.NewCoordinator(st, log, booking.WithPolicy(policy))
	sched := booking.NewSchedule(st, log, booking.ScheduleConfig{Policy: policy})
	h := handler.New(coord, sched, handler.Config{
		Horizon: 7 * 24 * time.Hour,
		Now:     func() time.Time { return now },
	}, log)
	return h, st
}

func as(patient string) context.Context {
	return middleware.WithPatientID(context.Background(), patient)
}

func reserve(h *handler.Handler, patient, doctor, date, label string) (*pb.ReserveSlotResponse, error) {
	return h.ReserveSlot(as(patient), &pb.ReserveSlotRequest{
		DoctorID: doctor, Date: date, Slot: label, Type: "Video",
	})
}

func TestReserveSlot(t *testing.T) {
	h, st := setup(t, booking.PolicyBlockAll)

	res, err := h.ReserveSlot(as("p1"), &pb.ReserveSlotRequest{
		DoctorID: "d1", Date: "2030-06-02", Slot: "10:30 AM", Type: "In-person", Notes: "knee",
	})
	require.NoError(t, err)
	a := res.Appointment
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "p1", a.PatientID)
	assert.Equal(t, "2030-06-02T10:30:00Z", a.DateTime)
	assert.Equal(t, "2030-06-02", a.Date)
	assert.Equal(t, "10:30 AM", a.Slot)
	assert.Equal(t, "Pending", a.Status)
	assert.Equal(t, "knee", a.Notes)

	_, ok := st.PatientAppointment("p1", a.ID)
	assert.True(t, ok)
}

func TestReserveSlotTaken(t *testing.T) {
	h, _ := setup(t, booking.PolicyBlockAll)
	_, err := reserve(h, "p1", "d1", "2030-06-02", "10:00 AM")
	require.NoError(t, err)

	_, err = reserve(h, "p2", "d1", "2030-06-02", "10:00 AM")
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	assert.Equal(t, "time slot already booked, please pick another time", status.Convert(err).Message())

	// same slot with another doctor is free
	_, err = reserve(h, "p2", "d2", "2030-06-02", "10:00 AM")
	assert.NoError(t, err)
}

func TestReserveSlotRejects(t *testing.T) {
	h, _ := setup(t, booking.PolicyBlockAll)
	cases := map[string]*pb.ReserveSlotRequest{
		"missing doctor": {Date: "2030-06-02", Slot: "10:00 AM", Type: "Video"},
		"bad date":       {DoctorID: "d1", Date: "02/06/2030", Slot: "10:00 AM", Type: "Video"},
		"unknown slot":   {DoctorID: "d1", Date: "2030-06-02", Slot: "12:00 PM", Type: "Video"},
		"bad type":       {DoctorID: "d1", Date: "2030-06-02", Slot: "10:00 AM", Type: "Phone"},
		"past day":       {DoctorID: "d1", Date: "2030-05-31", Slot: "04:00 PM", Type: "Video"},
		"earlier today":  {DoctorID: "d1", Date: "2030-06-01", Slot: "10:00 AM", Type: "Video"},
		"beyond horizon": {DoctorID: "d1", Date: "2030-06-20", Slot: "10:00 AM", Type: "Video"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.ReserveSlot(as("p1"), req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	_, err := h.ReserveSlot(context.Background(), &pb.ReserveSlotRequest{DoctorID: "d1", Date: "2030-06-02", Slot: "10:00 AM", Type: "Video"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestConcurrentReserveSlot(t *testing.T) {
	h, _ := setup(t, booking.PolicyBlockAll)

	const n = 20
	var wg sync.WaitGroup
	codesSeen := make(chan codes.Code, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reserve(h, fmt.Sprintf("p-%d", i), "d1", "2030-06-03", "02:00 PM")
			codesSeen <- status.Code(err)
		}(i)
	}
	wg.Wait()
	close(codesSeen)

	counts := map[codes.Code]int{}
	for c := range codesSeen {
		counts[c]++
	}
	assert.Equal(t, 1, counts[codes.OK])
	assert.Equal(t, n-1, counts[codes.AlreadyExists])
}

func TestGetAvailability(t *testing.T) {
	h, _ := setup(t, booking.PolicyBlockAll)
	_, err := reserve(h, "p1", "d1", "2030-06-02", "09:30 AM")
	require.NoError(t, err)

	res, err := h.GetAvailability(context.Background(), &pb.GetAvailabilityRequest{DoctorID: "d1", Date: "2030-06-02"})
	require.NoError(t, err)
	require.Len(t, res.Slots, 13)
	assert.Equal(t, "09:00 AM", res.Slots[0].Slot)
	assert.True(t, res.Slots[0].Available)
	assert.Equal(t, "09:30 AM", res.Slots[1].Slot)
	assert.False(t, res.Slots[1].Available)
	assert.True(t, res.Slots[2].Available)

	// slots already gone today are not offered
	res, err = h.GetAvailability(context.Background(), &pb.GetAvailabilityRequest{DoctorID: "d1", Date: "2030-06-01"})
	require.NoError(t, err)
	assert.False(t, res.Slots[2].Available)
	assert.True(t, res.Slots[3].Available)

	_, err = h.GetAvailability(context.Background(), &pb.GetAvailabilityRequest{DoctorID: "d1", Date: "tomorrow"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = h.GetAvailability(context.Background(), &pb.GetAvailabilityRequest{Date: "2030-06-01"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListGetCancel(t *testing.T) {
	h, _ := setup(t, booking.PolicyBlockAll)
	late, err := reserve(h, "p1", "d1", "2030-06-04", "03:00 PM")
	require.NoError(t, err)
	early, err := reserve(h, "p1", "d2", "2030-06-02", "09:00 AM")
	require.NoError(t, err)
	_, err = reserve(h, "p2", "d1", "2030-06-02", "09:00 AM")
	require.NoError(t, err)

	list, err := h.ListAppointments(as("p1"), &pb.ListAppointmentsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Appointments, 2)
	assert.Equal(t, early.Appointment.ID, list.Appointments[0].ID)
	assert.Equal(t, late.Appointment.ID, list.Appointments[1].ID)

	// a bare upper date includes that whole day
	list, err = h.ListAppointments(as("p1"), &pb.ListAppointmentsRequest{From: "2030-06-02", To: "2030-06-02"})
	require.NoError(t, err)
	require.Len(t, list.Appointments, 1)
	assert.Equal(t, early.Appointment.ID, list.Appointments[0].ID)

	got, err := h.GetAppointment(as("p1"), &pb.GetAppointmentRequest{ID: late.Appointment.ID})
	require.NoError(t, err)
	assert.Equal(t, "03:00 PM", got.Appointment.Slot)

	// another patient cannot see or cancel it
	_, err = h.GetAppointment(as("p2"), &pb.GetAppointmentRequest{ID: late.Appointment.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = h.CancelAppointment(as("p2"), &pb.CancelAppointmentRequest{ID: late.Appointment.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	c, err := h.CancelAppointment(as("p1"), &pb.CancelAppointmentRequest{ID: late.Appointment.ID})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", c.Appointment.Status)

	list, err = h.ListAppointments(as("p1"), &pb.ListAppointmentsRequest{Status: "Cancelled"})
	require.NoError(t, err)
	require.Len(t, list.Appointments, 1)

	// cancelled slots still block by default
	_, err = reserve(h, "p3", "d1", "2030-06-04", "03:00 PM")
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = h.ListAppointments(as("p1"), &pb.ListAppointmentsRequest{Status: "Lost"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = h.ListAppointments(as("p1"), &pb.ListAppointmentsRequest{From: "June"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCancelledSlotReopensWhenConfigured(t *testing.T) {
	h, _ := setup(t, booking.PolicyFreeCancelled)
	res, err := reserve(h, "p1", "d1", "2030-06-04", "03:00 PM")
	require.NoError(t, err)
	_, err = h.CancelAppointment(as("p1"), &pb.CancelAppointmentRequest{ID: res.Appointment.ID})
	require.NoError(t, err)

	_, err = reserve(h, "p2", "d1", "2030-06-04", "03:00 PM")
	assert.NoError(t, err)
}

// the service over a real gRPC transport with the interceptor chain
func TestGRPCEndToEnd(t *testing.T) {
	h, _ := setup(t, booking.PolicyBlockAll)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.RateLimit(middleware.NewRateLimiter(ctx, 100, 100)),
		middleware.Auth(secret),
	))
	pb.RegisterBookingServiceServer(srv, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := pb.NewBookingServiceClient(conn)

	req := &pb.ReserveSlotRequest{DoctorID: "d1", Date: "2030-06-02", Slot: "11:00 AM", Type: "Video"}
	_, err = client.ReserveSlot(ctx, req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, err := auth.MakeToken("p1", secret)
	require.NoError(t, err)
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)

	res, err := client.ReserveSlot(authed, req)
	require.NoError(t, err)
	assert.Equal(t, "p1", res.Appointment.PatientID)

	_, err = client.ReserveSlot(authed, req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	avail, err := client.GetAvailability(ctx, &pb.GetAvailabilityRequest{DoctorID: "d1", Date: "2030-06-02"})
	require.NoError(t, err)
	assert.False(t, avail.Slots[4].Available)

	got, err := client.GetAppointment(authed, &pb.GetAppointmentRequest{ID: res.Appointment.ID})
	require.NoError(t, err)
	assert.Equal(t, res.Appointment.ID, got.Appointment.ID)
}

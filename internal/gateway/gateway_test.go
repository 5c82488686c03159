package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pb "medpresecure-booking/api/booking/v1"
	"medpresecure-booking/internal/auth"
	"medpresecure-booking/internal/booking"
	"medpresecure-booking/internal/gateway"
	"medpresecure-booking/internal/handler"
	"medpresecure-booking/internal/metrics"
	"medpresecure-booking/internal/store/memstore"
)

const secret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T, rateLimit int) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := memstore.New()
	coord := booking.NewCoordinator(st, log, booking.WithMetrics(m))
	sched := booking.NewSchedule(st, log, booking.ScheduleConfig{Metrics: m})
	h := handler.New(coord, sched, handler.Config{
		Horizon: 7 * 24 * time.Hour,
		Now:     func() time.Time { return time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC) },
	}, log)
	return gateway.New(h, gateway.Config{Secret: secret, RateLimit: rateLimit, Gatherer: reg}, log)
}

func token(t *testing.T, patient string) string {
	t.Helper()
	tok, err := auth.MakeToken(patient, secret)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, srv http.Handler, method, path, tok, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

const booking10 = `{"doctorId":"d1","date":"2030-06-02","slot":"10:00 AM","type":"Video","notes":"rash"}`

func TestBookingFlow(t *testing.T) {
	srv := setup(t, 0)
	p1 := token(t, "p1")

	rec, _ := do(t, srv, http.MethodPost, "/v1/appointments", "", booking10)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := do(t, srv, http.MethodPost, "/v1/appointments", p1, booking10)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	var created pb.ReserveSlotResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "10:00 AM", created.Appointment.Slot)
	assert.Equal(t, "Pending", created.Appointment.Status)

	rec, env = do(t, srv, http.MethodPost, "/v1/appointments", token(t, "p2"), booking10)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "time slot already booked, please pick another time", env.Message)

	rec, env = do(t, srv, http.MethodGet, "/v1/doctors/d1/availability?date=2030-06-02", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var avail pb.GetAvailabilityResponse
	require.NoError(t, json.Unmarshal(env.Data, &avail))
	require.Len(t, avail.Slots, 13)
	assert.False(t, avail.Slots[2].Available)
	assert.True(t, avail.Slots[3].Available)

	rec, env = do(t, srv, http.MethodGet, "/v1/appointments?from=2030-06-01&to=2030-06-30", p1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list pb.ListAppointmentsResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Appointments, 1)

	id := created.Appointment.ID
	rec, _ = do(t, srv, http.MethodGet, "/v1/appointments/"+id, p1, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, srv, http.MethodGet, "/v1/appointments/"+id, token(t, "p2"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, srv, http.MethodPost, "/v1/appointments/"+id+"/cancel", p1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled pb.CancelAppointmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, "Cancelled", cancelled.Appointment.Status)
}

func TestBadRequests(t *testing.T) {
	srv := setup(t, 0)
	p1 := token(t, "p1")

	rec, _ := do(t, srv, http.MethodPost, "/v1/appointments", p1, `{"doctorId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/v1/appointments", p1, `{"doctorId":"d1","date":"2030-06-02","slot":"10:15 AM","type":"Video"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/v1/doctors/d1/availability", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/v1/appointments", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv := setup(t, 2)
	for i := 0; i < 2; i++ {
		rec, _ := do(t, srv, http.MethodGet, "/v1/doctors/d1/availability?date=2030-06-02", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := do(t, srv, http.MethodGet, "/v1/doctors/d1/availability?date=2030-06-02", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := setup(t, 0)
	rec, env := do(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	do(t, srv, http.MethodPost, "/v1/appointments", token(t, "p1"), booking10)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	srv.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), `booking_reservations_total{outcome="booked"} 1`)
}

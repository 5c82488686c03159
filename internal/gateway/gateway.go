// Package gateway exposes the booking service as JSON over HTTP. Requests
// are translated into booking.v1 messages and handed to the same service
// implementation the gRPC server uses.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "medpresecure-booking/api/booking/v1"
	"medpresecure-booking/internal/auth"
	"medpresecure-booking/internal/middleware"
)

const maxBodyBytes = 64 << 10

type Config struct {
	Secret string
	// RateLimit is requests per minute per client address; zero disables it.
	RateLimit int
	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
}

type gateway struct {
	svc    pb.BookingServiceServer
	secret string
	log    *zap.Logger
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func New(svc pb.BookingServiceServer, cfg Config, log *zap.Logger) http.Handler {
	g := &gateway{svc: svc, secret: cfg.Secret, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, response{Success: true, Message: "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Get("/doctors/{doctorId}/availability", g.availability)

		r.Group(func(r chi.Router) {
			r.Use(g.authenticate)
			r.Post("/appointments", g.reserve)
			r.Get("/appointments", g.list)
			r.Get("/appointments/{id}", g.get)
			r.Post("/appointments/{id}/cancel", g.cancel)
		})
	})
	return r
}

func (g *gateway) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := middleware.BearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			g.fail(w, status.Error(codes.Unauthenticated, "no token"))
			return
		}
		claims, err := auth.ParseToken(raw, g.secret)
		if err != nil {
			g.fail(w, status.Error(codes.Unauthenticated, "bad token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithPatientID(r.Context(), claims.PatientID)))
	})
}

func (g *gateway) reserve(w http.ResponseWriter, r *http.Request) {
	var req pb.ReserveSlotRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.fail(w, status.Error(codes.InvalidArgument, "malformed request body"))
		return
	}
	g.respond(w, r, http.StatusCreated, "appointment booked", func(ctx context.Context) (any, error) {
		return g.svc.ReserveSlot(ctx, &req)
	})
}

func (g *gateway) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &pb.ListAppointmentsRequest{Status: q.Get("status"), From: q.Get("from"), To: q.Get("to")}
	g.respond(w, r, http.StatusOK, "", func(ctx context.Context) (any, error) {
		return g.svc.ListAppointments(ctx, req)
	})
}

func (g *gateway) get(w http.ResponseWriter, r *http.Request) {
	req := &pb.GetAppointmentRequest{ID: chi.URLParam(r, "id")}
	g.respond(w, r, http.StatusOK, "", func(ctx context.Context) (any, error) {
		return g.svc.GetAppointment(ctx, req)
	})
}

func (g *gateway) cancel(w http.ResponseWriter, r *http.Request) {
	req := &pb.CancelAppointmentRequest{ID: chi.URLParam(r, "id")}
	g.respond(w, r, http.StatusOK, "appointment cancelled", func(ctx context.Context) (any, error) {
		return g.svc.CancelAppointment(ctx, req)
	})
}

func (g *gateway) availability(w http.ResponseWriter, r *http.Request) {
	req := &pb.GetAvailabilityRequest{DoctorID: chi.URLParam(r, "doctorId"), Date: r.URL.Query().Get("date")}
	g.respond(w, r, http.StatusOK, "", func(ctx context.Context) (any, error) {
		return g.svc.GetAvailability(ctx, req)
	})
}

func (g *gateway) respond(w http.ResponseWriter, r *http.Request, code int, msg string, call func(context.Context) (any, error)) {
	out, err := call(r.Context())
	if err != nil {
		g.fail(w, err)
		return
	}
	writeJSON(w, code, response{Success: true, Message: msg, Data: out})
}

var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:   http.StatusBadRequest,
	codes.Unauthenticated:   http.StatusUnauthorized,
	codes.PermissionDenied:  http.StatusForbidden,
	codes.NotFound:          http.StatusNotFound,
	codes.AlreadyExists:     http.StatusConflict,
	codes.ResourceExhausted: http.StatusTooManyRequests,
	codes.Unavailable:       http.StatusServiceUnavailable,
	codes.DeadlineExceeded:  http.StatusGatewayTimeout,
}

func (g *gateway) fail(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	code, ok := httpStatus[st.Code()]
	if !ok {
		code = http.StatusInternalServerError
	}
	if code >= http.StatusInternalServerError {
		g.log.Warn("request failed", zap.String("code", st.Code().String()), zap.String("error", st.Message()))
	}
	writeJSON(w, code, response{Success: false, Message: st.Message()})
}

func writeJSON(w http.ResponseWriter, code int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

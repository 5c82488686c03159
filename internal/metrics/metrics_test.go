package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveReservation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReservation(OutcomeBooked, 10*time.Millisecond)
	m.ObserveReservation(OutcomeConflict, time.Millisecond)
	m.ObserveReservation(OutcomeConflict, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservations.WithLabelValues(OutcomeBooked)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservations.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.reservations.WithLabelValues(OutcomeError)))
}

func TestObserveCache(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cache.WithLabelValues("miss")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReservation(OutcomeBooked, time.Second)
		m.ObserveCache(true)
	})
}

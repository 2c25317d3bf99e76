package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"clinic-reservation-backend/internal/store"
)

// Metrics counts reservation outcomes.
type Metrics struct {
	reservations  *prometheus.CounterVec
	cancellations *prometheus.CounterVec
}

// NewMetrics registers the reservation counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_reservations_total",
			Help: "Reservation attempts by outcome.",
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_cancellations_total",
			Help: "Cancellation attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.reservations, m.cancellations)
	return m
}

func (m *Metrics) observeReserve(outcome string) {
	if m != nil {
		m.reservations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observeCancel(outcome string) {
	if m != nil {
		m.cancellations.WithLabelValues(outcome).Inc()
	}
}

// outcomeOf maps a store error to its metric label.
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, store.ErrOccupied):
		return "occupied"
	case errors.Is(err, store.ErrNoShowBlocked):
		return "no_show_blocked"
	case errors.Is(err, store.ErrReservationClosed):
		return "reservation_closed"
	case errors.Is(err, store.ErrAlreadyReserved):
		return "already_reserved"
	case errors.Is(err, store.ErrNotReserved):
		return "not_reserved"
	case errors.Is(err, store.ErrStudentNotFound), errors.Is(err, store.ErrClinicNotFound):
		return "not_found"
	}
	return "error"
}

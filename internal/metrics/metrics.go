package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cricket_booking",
			Name:      "reservations_total",
			Help:      "Reservation attempts by result (success, conflict, invalid, error).",
		},
		[]string{"result"},
	)

	sweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cricket_booking",
			Name:      "expired_holds_total",
			Help:      "Pending holds released by the expiry sweeper.",
		},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cricket_booking",
			Name:      "payments_total",
			Help:      "Recorded payments by result (accepted, completed, rejected).",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cricket_booking",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservations, sweeps, payments, httpRequests)
	})
}

func IncReservation(result string) {
	reservations.WithLabelValues(result).Inc()
}

// AddExpired records n holds released by a sweep pass.
func AddExpired(n int) {
	sweeps.Add(float64(n))
}

func IncPayment(result string) {
	payments.WithLabelValues(result).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

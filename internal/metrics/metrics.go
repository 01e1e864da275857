package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoecare",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoecare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookingMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoecare",
			Name:      "booking_mutations_total",
			Help:      "Booking mutations by operation, acting role and outcome.",
		},
		[]string{"operation", "role", "outcome"},
	)

	mailDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoecare",
			Name:      "mail_deliveries_total",
			Help:      "Outgoing mail attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingMutations, mailDeliveries)
	})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, code int, seconds float64) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

// IncBookingMutation counts a create, update or delete attempt.
func IncBookingMutation(operation, role, outcome string) {
	bookingMutations.WithLabelValues(operation, role, outcome).Inc()
}

// IncMail counts a delivery attempt outcome ("sent", "retry", "failed").
func IncMail(outcome string) {
	mailDeliveries.WithLabelValues(outcome).Inc()
}

// IncMailBy adds n to an outcome counter.
func IncMailBy(outcome string, n int) {
	mailDeliveries.WithLabelValues(outcome).Add(float64(n))
}

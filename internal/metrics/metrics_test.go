package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/v1/bookings", 200, 0.01)
	})

	before := testutil.ToFloat64(bookingMutations.WithLabelValues("create", "owner", "ok"))
	IncBookingMutation("create", "owner", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingMutations.WithLabelValues("create", "owner", "ok")))

	IncMail("sent")
	assert.Equal(t, float64(1), testutil.ToFloat64(mailDeliveries.WithLabelValues("sent")))
}

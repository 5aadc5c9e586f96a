package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Clicks.WithLabelValues("seatgeek", "primary"))
	Clicks.WithLabelValues("seatgeek", "primary").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Clicks.WithLabelValues("seatgeek", "primary")))

	SearchRequests.WithLabelValues("stubHub").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(SearchRequests.WithLabelValues("stubHub")), 2.0)
}

// Package metrics registers the Prometheus counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cfp_search_requests_total",
		Help: "Ticket searches by assigned experiment variant.",
	}, []string{"variant"})

	Clicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cfp_clicks_total",
		Help: "Affiliate redirects by provider and bucket label.",
	}, []string{"provider", "bucket"})

	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cfp_upstream_errors_total",
		Help: "Failed calls to marketplace and inventory upstreams.",
	}, []string{"provider"})
)

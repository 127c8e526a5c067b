// Package metrics holds the Prometheus instruments shared by the engine
// and the dev tooling. Everything registers on the default registry and is
// exposed wherever promhttp is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetches counts viewport fetches by layer and outcome:
	// ok | skipped | rejected | aborted | error.
	Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osmview_fetches_total",
		Help: "Viewport data fetches by layer and result.",
	}, []string{"layer", "result"})

	// Advisories counts admission-control advisories shown, by layer.
	Advisories = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osmview_advisories_total",
		Help: "Admission-control advisories surfaced to the user.",
	}, []string{"layer"})

	// ResolvedElements counts elements passed through the graph resolver.
	ResolvedElements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osmview_resolved_elements_total",
		Help: "Flat elements resolved into the object graph.",
	})

	// QueryRequests counts dev-server bbox query requests by endpoint and
	// HTTP status.
	QueryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osmview_query_requests_total",
		Help: "Dev server bbox query requests.",
	}, []string{"endpoint", "status"})
)

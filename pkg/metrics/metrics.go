package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Dependency outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// DependencyChecks counts cache and database round-trips by outcome
var DependencyChecks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "greeter_dependency_roundtrips_total",
		Help: "Total number of dependency round-trips performed while rendering a page",
	},
	[]string{"dependency", "outcome"},
)

// DependencyLatency records how long each dependency round-trip took
var DependencyLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "greeter_dependency_roundtrip_seconds",
		Help:    "Latency in seconds of a single dependency round-trip, including connect and close",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"dependency"},
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greeter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greeter_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(DependencyChecks, DependencyLatency)
	prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration)
}

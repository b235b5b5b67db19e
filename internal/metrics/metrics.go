// Package metrics holds the Prometheus collectors shared by the graph screen,
// the sensor API and the HTTP middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sensorgraph"

var (
	// HTTPRequestDuration partitions served request latency by code and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "server_request_duration_seconds",
			Help:      "A histogram of the latency in seconds for serving requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"},
	)

	// UpstreamRequestDuration times requests made to the sensor endpoint.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "A histogram of the latency in seconds of sensor endpoint requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method", "host"},
	)

	ScreenTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_transitions_total",
			Help:      "Count of graph screen state transitions by target state",
		}, []string{"state"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of mounted graph screens held by browser sessions",
		},
	)

	// ReadingsIngested counts sensor-api inserts by source (mqtt, http).
	ReadingsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Count of readings stored by the sensor API by source and outcome",
		}, []string{"source", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		UpstreamRequestDuration,
		ScreenTransitions,
		ActiveSessions,
		ReadingsIngested,
	)
}

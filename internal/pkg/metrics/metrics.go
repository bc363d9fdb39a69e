package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clera_gateway_access_decisions_total",
		Help: "Route access decisions by outcome and reason",
	}, []string{"decision", "reason"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clera_gateway_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	StatusLookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clera_gateway_status_lookup_failures_total",
		Help: "Caller status lookups that returned indeterminate",
	}, []string{"requirement"})

	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clera_gateway_transfers_total",
		Help: "The total number of funding transfers processed",
	}, []string{"status", "direction"})
)

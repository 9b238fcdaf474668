// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeltasApplied counts balance deltas folded into the ledger.
	DeltasApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "ledger",
		Name:      "deltas_applied_total",
		Help:      "Number of balance deltas applied to the ledger.",
	})

	// DirectionFlips counts deltas that reversed an existing balance.
	DirectionFlips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "ledger",
		Name:      "direction_flips_total",
		Help:      "Number of balance records whose direction flipped on overpayment.",
	})

	// SimplifyDuration observes how long debt simplification takes per scope.
	SimplifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "settleup",
		Subsystem: "ledger",
		Name:      "simplify_duration_seconds",
		Help:      "Duration of debt simplification runs.",
		Buckets:   prometheus.DefBuckets,
	})

	// TransfersSuggested counts payment instructions emitted by the simplifier.
	TransfersSuggested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "ledger",
		Name:      "transfers_suggested_total",
		Help:      "Number of settlement transfers suggested by the simplifier.",
	})

	// HTTPRequests counts requests by method, route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes request latency by method and route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "settleup",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

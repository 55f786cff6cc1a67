// Package metrics exposes the Prometheus collectors shared by the row store
// and the reconciler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clubdash"

var (
	SheetCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sheets",
		Name:      "calls_total",
		Help:      "Row store calls by operation and result.",
	}, []string{"op", "result"})

	SheetLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sheets",
		Name:      "call_duration_seconds",
		Help:      "Row store call latency, throttle wait excluded.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	ThrottleWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sheets",
		Name:      "throttle_wait_seconds",
		Help:      "Time callers spent blocked by the client-side throttle.",
		Buckets:   []float64{0, .05, .1, .25, .5, 1, 2, 5},
	})

	ReconciledRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "rows_total",
		Help:      "Auxiliary rows seen by the reconciler by source and outcome.",
	}, []string{"source", "outcome"})

	ReconcileWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "warnings_total",
		Help:      "Sources that could not be loaded during reconciliation.",
	}, []string{"source"})
)

// Result labels used with SheetCalls.
const (
	ResultOK          = "ok"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

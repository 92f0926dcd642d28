package repo

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// storeOps counts store round trips by collection, operation and outcome
	// (ok|not_found|error).
	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_store_operations_total",
			Help: "Total number of document store operations.",
		},
		[]string{"collection", "op", "outcome"},
	)

	// storeLat records store round-trip latency in seconds.
	storeLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"collection", "op"},
	)
)

func init() {
	prometheus.MustRegister(storeOps, storeLat)
}

// observe runs fn and records its latency and outcome.
func observe(collection, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	storeLat.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
	storeOps.WithLabelValues(collection, op, outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

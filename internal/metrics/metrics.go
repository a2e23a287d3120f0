// Package metrics records Prometheus counters for registry operations.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal *prometheus.CounterVec
	rollbacksTotal  *prometheus.CounterVec

	// Registration guard
	metricsOnce sync.Once
)

// Recorder provides methods to record engine metrics. A nil Recorder is
// valid and records nothing, which keeps tests quiet.
type Recorder struct{}

// NewRecorder creates a Recorder, registering the metrics on first use.
func NewRecorder() *Recorder {
	initMetrics()
	return &Recorder{}
}

func initMetrics() {
	metricsOnce.Do(func() {
		operationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockbox_operations_total",
				Help: "Total number of secret operations by outcome",
			},
			[]string{"operation", "status"},
		)

		rollbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockbox_rollbacks_total",
				Help: "Total number of rollback attempts by outcome",
			},
			[]string{"operation", "status"},
		)
	})
}

// Operation records the outcome of a create/update/delete/list operation.
func (r *Recorder) Operation(operation, status string) {
	if r == nil || operationsTotal == nil {
		return
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
}

// Rollback records the outcome of a rollback attempt.
func (r *Recorder) Rollback(operation, status string) {
	if r == nil || rollbacksTotal == nil {
		return
	}
	rollbacksTotal.WithLabelValues(operation, status).Inc()
}

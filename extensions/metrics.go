package extensions

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	statehooks "github.com/devesharp/statehooks"
)

const (
	outcomeSuccess    = "success"
	outcomeFailure    = "failure"
	outcomeSuperseded = "superseded"
)

// MetricsExtension counts operations and observes their duration
type MetricsExtension struct {
	statehooks.BaseExtension
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetricsExtension registers its collectors with reg
func NewMetricsExtension(reg prometheus.Registerer) *MetricsExtension {
	factory := promauto.With(reg)
	return &MetricsExtension{
		BaseExtension: statehooks.NewBaseExtension("metrics"),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statehooks",
			Name:      "operations_total",
			Help:      "Operations run, by kind, resolver key and outcome.",
		}, []string{"kind", "key", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statehooks",
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations, by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
	}
}

// Order runs metrics inside logging so both see the same duration
func (e *MetricsExtension) Order() int {
	return 20
}

func (e *MetricsExtension) Wrap(ctx context.Context, next func() (any, error), op *statehooks.Operation) (any, error) {
	start := time.Now()
	result, err := next()
	e.duration.WithLabelValues(string(op.Kind)).Observe(time.Since(start).Seconds())

	outcome := outcomeSuccess
	switch {
	case errors.Is(err, statehooks.ErrSuperseded):
		outcome = outcomeSuperseded
	case err != nil:
		outcome = outcomeFailure
	}
	e.operations.WithLabelValues(string(op.Kind), op.Key, outcome).Inc()

	return result, err
}

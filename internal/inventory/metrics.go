package inventory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookups counts snapshot reads by result.
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_cache_lookups_total",
		Help: "Total number of live inventory snapshot reads by result",
	}, []string{"result"}) // result: hit, miss

	// refreshes counts source fetches by outcome.
	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_cache_refreshes_total",
		Help: "Total number of live inventory refreshes by outcome",
	}, []string{"outcome"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_refresh_duration_seconds",
		Help:    "Time taken to fetch the live inventory source",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_source_circuit_state",
		Help: "Live inventory source circuit state (0 closed, 1 open, 2 half-open)",
	})

	// warningsIssued counts emitted procurement warnings by check.
	warningsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_warnings_total",
		Help: "Total number of inventory warnings emitted by check",
	}, []string{"check"}) // check: model, year
)

// MetricsRecorder provides methods to record inventory metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordLookup records a snapshot read.
func (m *MetricsRecorder) RecordLookup(hit bool) {
	if hit {
		lookups.WithLabelValues("hit").Inc()
		return
	}
	lookups.WithLabelValues("miss").Inc()
}

// RecordRefresh records a source fetch.
func (m *MetricsRecorder) RecordRefresh(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	refreshes.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(d.Seconds())
}

// RecordWarnings records emitted warnings.
func (m *MetricsRecorder) RecordWarnings(check string, n int) {
	if n > 0 {
		warningsIssued.WithLabelValues(check).Add(float64(n))
	}
}

// RecordBreakerState records a circuit breaker transition.
func (m *MetricsRecorder) RecordBreakerState(s BreakerState) {
	breakerState.Set(float64(s))
}

package pricing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// calculations counts used-price calculations by path and outcome.
	calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculations_total",
		Help: "Total number of used-price calculations by path and outcome",
	}, []string{"path", "outcome"}) // path: catalog, on_road; outcome: ok, error

	// calculationDuration tracks calculation latency.
	calculationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_calculation_duration_seconds",
		Help:    "Time taken for a used-price calculation by path",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"path"})

	// tierMisses counts calculations with no matching margin or markup tier.
	tierMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_tier_misses_total",
		Help: "Total number of calculations without a matching tier by kind",
	}, []string{"kind"}) // kind: margin, markup

	// inflatedMargins tracks the applied inventory margin multiplier.
	inflatedMargins = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_margin_multiplier",
		Help:    "Inventory margin multiplier applied to calculations",
		Buckets: []float64{1, 1.25, 1.5},
	})

	// aggregateVariants tracks how many variants feed a model-level quote.
	aggregateVariants = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_aggregate_variants_count",
		Help:    "Number of variants priced for a model-level quote",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	})
)

// MetricsRecorder provides methods to record pricing metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCalculation records a finished calculation.
func (m *MetricsRecorder) RecordCalculation(path string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	calculations.WithLabelValues(path, outcome).Inc()
	calculationDuration.WithLabelValues(path).Observe(d.Seconds())
}

// RecordTierMiss records a calculation without a matching tier.
func (m *MetricsRecorder) RecordTierMiss(kind string) {
	tierMisses.WithLabelValues(kind).Inc()
}

// RecordMarginMultiplier records the applied inflation multiplier.
func (m *MetricsRecorder) RecordMarginMultiplier(v float64) {
	inflatedMargins.Observe(v)
}

// RecordAggregateSize records the variant count of a model-level quote.
func (m *MetricsRecorder) RecordAggregateSize(n int) {
	aggregateVariants.Observe(float64(n))
}

package revision

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsCreated counts opened price requests by type.
	requestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_requests_created_total",
		Help: "Total number of price requests created by type",
	}, []string{"type"})

	// decisions counts resolved requests by status and actor.
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_decisions_total",
		Help: "Total number of price request decisions by status and actor",
	}, []string{"status", "actor"}) // actor: system, user

	// scans counts batch scans by outcome.
	scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_scans_total",
		Help: "Total number of price revision scans by outcome",
	}, []string{"outcome"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "revision_scan_duration_seconds",
		Help:    "Time taken for a price revision scan",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})

	// scanVehicles counts scanned vehicles by result.
	scanVehicles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revision_scan_vehicles_total",
		Help: "Total number of vehicles processed by price revision scans by result",
	}, []string{"result"}) // result: scanned, created, auto_rejected, alerted, failed
)

// MetricsRecorder provides methods to record revision metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordRequest records a created request.
func (m *MetricsRecorder) RecordRequest(t RequestType) {
	requestsCreated.WithLabelValues(string(t)).Inc()
}

// RecordDecision records a resolved request.
func (m *MetricsRecorder) RecordDecision(s Status, system bool) {
	actor := "user"
	if system {
		actor = "system"
	}
	decisions.WithLabelValues(string(s), actor).Inc()
}

// RecordScan records a finished scan.
func (m *MetricsRecorder) RecordScan(d time.Duration, sum Summary, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	scans.WithLabelValues(outcome).Inc()
	scanDuration.Observe(d.Seconds())
	scanVehicles.WithLabelValues("scanned").Add(float64(sum.Scanned))
	scanVehicles.WithLabelValues("created").Add(float64(sum.Created))
	scanVehicles.WithLabelValues("auto_rejected").Add(float64(sum.AutoRejected))
	scanVehicles.WithLabelValues("alerted").Add(float64(sum.Alerted))
	scanVehicles.WithLabelValues("failed").Add(float64(sum.Failed))
}

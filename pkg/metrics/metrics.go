// Package metrics provides prometheus collectors for load run observability:
// run outcomes, verification findings, bytes written per format and run
// durations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed load runs by terminal state
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballast_runs_total",
			Help: "Total load runs by terminal state",
		},
		[]string{"state"},
	)

	// VerificationFindings counts verification findings by check and severity
	VerificationFindings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballast_verification_findings_total",
			Help: "Verification findings by check and severity",
		},
		[]string{"check", "severity", "format"},
	)

	// BytesWritten counts bytes persisted per format
	BytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballast_bytes_written_total",
			Help: "Bytes written per target format",
		},
		[]string{"format"},
	)

	// RowsLoaded counts rows persisted per format
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballast_rows_loaded_total",
			Help: "Rows written per target format",
		},
		[]string{"format"},
	)

	// RunDuration observes end-to-end run durations
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ballast_run_duration_seconds",
			Help:    "End-to-end load run duration",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	// CompressionRatio reports the last observed ratio per format
	CompressionRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ballast_compression_ratio",
			Help: "Baseline size divided by representation size",
		},
		[]string{"format"},
	)
)

// Timer measures an operation duration
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveRun stops the timer and records the run duration
func (t *Timer) ObserveRun() time.Duration {
	d := time.Since(t.start)
	RunDuration.Observe(d.Seconds())
	return d
}

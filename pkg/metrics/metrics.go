// Package metrics provides Prometheus metrics for the sales ETL batch run.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every collector below. A batch run pushes it to a
// Pushgateway instead of being scraped.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RunsTotal tracks pipeline runs by status
	RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"status"},
	)

	// StageDuration tracks pipeline stage duration in seconds
	StageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sales_etl",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	// ErrorsTotal tracks failed runs by error category
	ErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Total number of pipeline failures by error category",
		},
		[]string{"stage", "category"},
	)

	// RowsTotal tracks rows extracted, cleaned and dropped
	RowsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Subsystem: "cleaner",
			Name:      "rows_total",
			Help:      "Total number of rows by outcome",
		},
		[]string{"outcome"},
	)

	// ValuesFilled tracks repaired values per column
	ValuesFilled = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Subsystem: "cleaner",
			Name:      "values_filled_total",
			Help:      "Total number of missing values repaired per column",
		},
		[]string{"column"},
	)

	// UploadsTotal tracks staging uploads by table and status
	UploadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Subsystem: "staging",
			Name:      "uploads_total",
			Help:      "Total number of staging uploads by table and status",
		},
		[]string{"table", "status"},
	)

	// UploadBytes tracks bytes staged per table
	UploadBytes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Subsystem: "staging",
			Name:      "bytes_total",
			Help:      "Total number of bytes staged per table",
		},
		[]string{"table"},
	)
)

// Row outcomes
const (
	RowsExtracted = "extracted"
	RowsCleaned   = "cleaned"
	RowsDropped   = "dropped"
)

// RecordRun records a finished run
func RecordRun(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	RunsTotal.WithLabelValues(status).Inc()
}

// RecordStage records how long a stage took
func RecordStage(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordError records a failed stage by error category
func RecordError(stage, category string) {
	ErrorsTotal.WithLabelValues(stage, category).Inc()
}

// RecordRows records rows for an outcome
func RecordRows(outcome string, n int) {
	RowsTotal.WithLabelValues(outcome).Add(float64(n))
}

// RecordFills records repaired values per column
func RecordFills(filled map[string]int) {
	for column, n := range filled {
		ValuesFilled.WithLabelValues(column).Add(float64(n))
	}
}

// RecordUpload records one staging upload
func RecordUpload(table string, success bool, bytes int64) {
	status := "success"
	if !success {
		status = "failure"
	}
	UploadsTotal.WithLabelValues(table, status).Inc()
	if success {
		UploadBytes.WithLabelValues(table).Add(float64(bytes))
	}
}

// Push sends the registry to a Pushgateway under job, grouped by run
func Push(ctx context.Context, url, job, runID string) error {
	err := push.New(url, job).
		Gatherer(Registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

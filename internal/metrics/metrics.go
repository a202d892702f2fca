// Package metrics exposes Prometheus instrumentation for the catalog
// pipeline, served on /metrics next to the OTLP counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// exportDuration tracks the time taken to produce an export file.
	exportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_export_duration_seconds",
		Help:    "Time taken to produce an export file by format",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"format"})

	// exportErrors tracks failed export requests.
	exportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_export_errors_total",
		Help: "Total number of failed export requests by format",
	}, []string{"format"})

	// importDuration tracks the time taken to write an import batch.
	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_import_duration_seconds",
		Help:    "Time taken to write an import batch by format",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"format"})

	// importRecordsFailed tracks records rejected during imports.
	importRecordsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_rejected_records_total",
		Help: "Total number of records rejected during imports by format",
	}, []string{"format"})

	// batchSize tracks the distribution of import batch sizes.
	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_import_batch_records",
		Help:    "Number of root records per import batch",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
	})
)

// ObserveExport records one finished export request.
func ObserveExport(format string, duration time.Duration) {
	exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// ExportError counts one failed export request.
func ExportError(format string) {
	exportErrors.WithLabelValues(format).Inc()
}

// ObserveImport records one finished import batch.
func ObserveImport(format string, records, failed int, duration time.Duration) {
	importDuration.WithLabelValues(format).Observe(duration.Seconds())
	importRecordsFailed.WithLabelValues(format).Add(float64(failed))
	batchSize.Observe(float64(records))
}

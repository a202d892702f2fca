package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics counts the work the import/export pipeline does.
type PipelineMetrics struct {
	exportedRecords metric.Int64Counter
	writtenRecords  metric.Int64Counter
	failedRecords   metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline counters on the global meter
// provider. With telemetry disabled the counters are noops.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("catalog-service/pipeline")

	exported, err := meter.Int64Counter("catalog_records_exported_total",
		metric.WithDescription("Number of variant records exported"))
	if err != nil {
		return nil, err
	}
	written, err := meter.Int64Counter("catalog_records_written_total",
		metric.WithDescription("Number of article records written by imports"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("catalog_records_failed_total",
		metric.WithDescription("Number of article records rejected by imports"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		exportedRecords: exported,
		writtenRecords:  written,
		failedRecords:   failed,
	}, nil
}

// RecordExport counts exported variant records per file format.
func (m *PipelineMetrics) RecordExport(ctx context.Context, format string, count int) {
	m.exportedRecords.Add(ctx, int64(count), metric.WithAttributes(attribute.String("format", format)))
}

// RecordImport counts the written and failed records of one import batch.
func (m *PipelineMetrics) RecordImport(ctx context.Context, source string, written, failed int) {
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.writtenRecords.Add(ctx, int64(written), attrs)
	m.failedRecords.Add(ctx, int64(failed), attrs)
}

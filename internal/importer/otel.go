package importer

import (
	"context"
	"fmt"
	"time"

	"dbusana/internal/infrastructure"
	"dbusana/pkg/contracts/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "dbusana.import"

// ImportTracer provides OpenTelemetry instrumentation for batch runs.
type ImportTracer struct {
	tracer          trace.Tracer
	businessMetrics *infrastructure.BusinessMetrics
}

// NewImportTracer creates a tracer bound to the shared meter.
func NewImportTracer(providers *infrastructure.OTelProviders) (*ImportTracer, error) {
	businessMetrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return &ImportTracer{
		tracer:          otel.Tracer(TracerName),
		businessMetrics: businessMetrics,
	}, nil
}

// TraceBatchExecution opens the span covering a whole batch run.
func (t *ImportTracer) TraceBatchExecution(ctx context.Context, batch domain.ImportBatch) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "import.batch.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("batch.id", batch.ID),
			attribute.String("batch.file_name", batch.FileName),
		),
	)

	t.businessMetrics.ImportActiveBatches.Add(ctx, 1)
	return ctx, span
}

// TraceStageExecution opens the span for one pipeline stage.
func (t *ImportTracer) TraceStageExecution(ctx context.Context, batchID, stageID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("import.stage.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.String("stage.id", stageID),
		),
	)
}

// RecordStageCompletion closes out one stage's metrics and span.
func (t *ImportTracer) RecordStageCompletion(ctx context.Context, span trace.Span, batchID, stageID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	attrs := metric.WithAttributes(
		attribute.String("batch_id", batchID),
		attribute.String("stage", stageID),
		attribute.String("status", status),
	)
	t.businessMetrics.ImportStagesTotal.Add(ctx, 1, attrs)
	t.businessMetrics.ImportStageDuration.Record(ctx, duration.Seconds(), attrs)

	span.SetAttributes(attribute.Float64("stage.duration_seconds", duration.Seconds()))
	span.End()
}

// RecordBatchCompletion records the terminal metrics for a batch.
func (t *ImportTracer) RecordBatchCompletion(ctx context.Context, span trace.Span, batch domain.ImportBatch, bytes int64, duration time.Duration, err error) {
	t.businessMetrics.ImportActiveBatches.Add(ctx, -1)

	statusAttr := metric.WithAttributes(
		attribute.String("status", string(batch.Status)),
	)
	t.businessMetrics.ImportBatchesTotal.Add(ctx, 1, statusAttr)
	t.businessMetrics.ImportDuration.Record(ctx, duration.Seconds(), statusAttr)

	if batch.Imported > 0 {
		t.businessMetrics.ImportRowsTotal.Add(ctx, int64(batch.Imported))
	}
	if batch.Failed > 0 {
		t.businessMetrics.ImportRowsRejected.Add(ctx, int64(batch.Failed))
	}
	if bytes > 0 {
		t.businessMetrics.ImportBytesProcessed.Add(ctx, bytes)
	}

	span.SetAttributes(
		attribute.String("batch.status", string(batch.Status)),
		attribute.Int("batch.imported", batch.Imported),
		attribute.Int("batch.failed", batch.Failed),
		attribute.Float64("batch.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

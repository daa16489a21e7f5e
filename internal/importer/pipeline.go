package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apierrors "dbusana/internal/errors"
	"dbusana/pkg/contracts/domain"
	"dbusana/pkg/contracts/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ProgressBroadcaster pushes batch progress, failures and refresh
// notifications to connected dashboards. The WebSocket hub implements
// it; a nil broadcaster disables pushes.
type ProgressBroadcaster interface {
	BroadcastImportProgress(progress events.ImportProgress)
	BroadcastError(code, message, details, step string, recoverable bool)
	BroadcastRefresh(source string, components []string)
}

// Pipeline runs uploads through the import stages.
type Pipeline struct {
	sink   RecordSink
	hub    ProgressBroadcaster
	tracer *ImportTracer
	store  *BatchStore
	logger *slog.Logger
	stages []Stage
}

// NewPipeline wires the stages in execution order. hub and tracer may
// be nil when live progress or metrics are not wanted (tests, CLI).
func NewPipeline(sink RecordSink, store *BatchStore, hub ProgressBroadcaster, tracer *ImportTracer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sink:   sink,
		hub:    hub,
		tracer: tracer,
		store:  store,
		logger: logger,
		stages: []Stage{
			&scanStage{logger: logger},
			&parseStage{logger: logger},
			&validateStage{logger: logger},
			&aggregateStage{logger: logger},
			&exportStage{sink: sink, logger: logger},
		},
	}
}

// NewBatch builds a pending batch for an uploaded file. Run persists
// it; single-flight callers register it first with BatchStore.Begin.
func (p *Pipeline) NewBatch(fileName string) domain.ImportBatch {
	return domain.ImportBatch{
		ID:        uuid.New().String(),
		FileName:  fileName,
		Status:    domain.BatchStatusPending,
		StartedAt: time.Now(),
	}
}

// Run executes every stage against the upload. A stage error marks the
// batch failed and aborts; row-level issues only affect the counters.
// The returned batch is the terminal snapshot.
func (p *Pipeline) Run(ctx context.Context, batch domain.ImportBatch, filePath string) (domain.ImportBatch, error) {
	start := time.Now()
	state := NewBatchState(batch, filePath)
	state.mutateBatch(func(b *domain.ImportBatch) {
		b.Status = domain.BatchStatusRunning
		b.StartedAt = start
	})

	var batchSpan trace.Span
	if p.tracer != nil {
		ctx, batchSpan = p.tracer.TraceBatchExecution(ctx, state.Batch())
	}

	p.persist(state)
	p.broadcast(state, StageScan, 0)

	var runErr error
	var failedStage string
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		stageStart := time.Now()
		stageCtx := ctx
		var stageSpan trace.Span
		if p.tracer != nil {
			stageCtx, stageSpan = p.tracer.TraceStageExecution(ctx, state.Batch().ID, stage.ID())
		}

		err := stage.Execute(stageCtx, state)
		if p.tracer != nil {
			p.tracer.RecordStageCompletion(stageCtx, stageSpan, state.Batch().ID, stage.ID(), time.Since(stageStart), err)
		}

		if err != nil {
			runErr = fmt.Errorf("stage %s: %w", stage.ID(), err)
			failedStage = stage.ID()
			p.logger.ErrorContext(ctx, "import stage failed",
				slog.String("batch_id", state.Batch().ID),
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			break
		}

		progress := (i + 1) * 100 / len(p.stages)
		p.persist(state)
		p.broadcast(state, stage.ID(), progress)
	}

	now := time.Now()
	state.mutateBatch(func(b *domain.ImportBatch) {
		if runErr != nil {
			b.Status = domain.BatchStatusFailed
			b.Error = runErr.Error()
			b.CompletedAt = &now
			return
		}
		b.Finish(now)
	})

	final := state.Batch()
	if p.tracer != nil {
		p.tracer.RecordBatchCompletion(ctx, batchSpan, final, state.FileSize(), time.Since(start), runErr)
	}

	p.persist(state)
	p.broadcast(state, StageExport, 100)

	if p.hub != nil {
		if runErr != nil {
			code, recoverable := classifyImportError(runErr)
			p.hub.BroadcastError(code, "Import failed", runErr.Error(), failedStage, recoverable)
		} else if final.Imported > 0 {
			p.hub.BroadcastRefresh("import", []string{"dashboard", "daily_revenue", "marketplaces", "products"})
		}
	}

	p.logger.InfoContext(ctx, "import batch finished",
		slog.String("batch_id", final.ID),
		slog.String("status", string(final.Status)),
		slog.Int("imported", final.Imported),
		slog.Int("skipped", final.Skipped),
		slog.Int("failed", final.Failed),
		slog.Duration("duration", time.Since(start)))

	return final, runErr
}

// classifyImportError maps a failed run to the error code shown on the
// dashboard. File problems the user can fix are recoverable.
func classifyImportError(err error) (code string, recoverable bool) {
	switch {
	case errors.Is(err, apierrors.ErrUnsupportedFormat):
		return "IMPORT_UNSUPPORTED_FORMAT", true
	case errors.Is(err, apierrors.ErrMissingColumns):
		return "IMPORT_MISSING_COLUMNS", true
	case errors.Is(err, apierrors.ErrEmptyFile):
		return "IMPORT_EMPTY_FILE", true
	}
	return "IMPORT_FAILED", false
}

func (p *Pipeline) persist(state *BatchState) {
	if p.store != nil {
		p.store.Put(state.Batch())
	}
}

func (p *Pipeline) broadcast(state *BatchState, stage string, progress int) {
	if p.hub == nil {
		return
	}
	b := state.Batch()
	p.hub.BroadcastImportProgress(events.ImportProgress{
		BatchID:     b.ID,
		FileName:    b.FileName,
		Status:      string(b.Status),
		Stage:       stage,
		Progress:    progress,
		Imported:    b.Imported,
		Failed:      b.Failed,
		StartedAt:   b.StartedAt,
		UpdatedAt:   time.Now(),
		CompletedAt: b.CompletedAt,
		Error:       b.Error,
	})
}

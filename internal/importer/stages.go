package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "dbusana/internal/errors"
	"dbusana/pkg/contracts/domain"
)

// RecordSink is where the export stage lands the merged records. The
// sales store implements it.
type RecordSink interface {
	// Merge upserts records into the canonical dataset keyed by
	// SaleRecord.Key, returning how many were new vs replaced.
	Merge(ctx context.Context, records []domain.SaleRecord) (added, replaced int, err error)
}

// scanStage checks the upload exists, is non-empty, and carries a
// supported extension.
type scanStage struct {
	logger *slog.Logger
}

func (s *scanStage) ID() string   { return StageScan }
func (s *scanStage) Name() string { return "Scan upload" }

func (s *scanStage) Execute(ctx context.Context, state *BatchState) error {
	info, err := os.Stat(state.FilePath())
	if err != nil {
		return fmt.Errorf("stat upload: %w", err)
	}
	if info.Size() == 0 {
		return apierrors.ErrEmptyFile
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(state.FilePath()), "."))
	switch ext {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("%w: .%s", apierrors.ErrUnsupportedFormat, ext)
	}

	state.setFileMeta(ext, info.Size())

	s.logger.DebugContext(ctx, "upload scanned",
		slog.String("file", filepath.Base(state.FilePath())),
		slog.String("type", ext),
		slog.Int64("bytes", info.Size()))
	return nil
}

// parseStage reads the file into sale records, collecting row issues.
type parseStage struct {
	logger *slog.Logger
}

func (s *parseStage) ID() string   { return StageParse }
func (s *parseStage) Name() string { return "Parse rows" }

func (s *parseStage) Execute(ctx context.Context, state *BatchState) error {
	batch := state.Batch()

	var result *ParseResult
	var err error
	switch batch.FileType {
	case "xlsx":
		result, err = ParseExcel(state.FilePath(), s.logger)
	case "csv":
		result, err = ParseCSV(state.FilePath(), s.logger)
	default:
		return fmt.Errorf("%w: %s", apierrors.ErrUnsupportedFormat, batch.FileType)
	}
	if err != nil {
		return err
	}

	// Stamp every record with the owning batch.
	for i := range result.Records {
		result.Records[i].ImportBatchID = batch.ID
	}

	state.SetRecords(result.Records, result.TotalRows)
	state.AddIssues(result.Issues...)
	return nil
}

// validateStage enforces record invariants the parser cannot express,
// and drops records that fail them.
type validateStage struct {
	logger *slog.Logger
}

func (s *validateStage) ID() string   { return StageValidate }
func (s *validateStage) Name() string { return "Validate records" }

func (s *validateStage) Execute(ctx context.Context, state *BatchState) error {
	records := state.Records()
	if len(records) == 0 {
		return apierrors.ErrNoSalesData
	}

	valid := records[:0]
	var issues []domain.RowIssue
	for _, r := range records {
		if !r.IsValid() {
			issues = append(issues, domain.RowIssue{
				Message: fmt.Sprintf("order %s: invalid record", r.OrderNumber),
			})
			continue
		}
		valid = append(valid, r)
	}

	state.SetRecords(valid, state.Batch().TotalRows)
	state.AddIssues(issues...)

	if len(valid) == 0 {
		return apierrors.ErrNoSalesData
	}
	return nil
}

// aggregateStage dedups within the batch on the record key so a file
// containing the same order line twice keeps only the last occurrence.
type aggregateStage struct {
	logger *slog.Logger
}

func (s *aggregateStage) ID() string   { return StageAggregate }
func (s *aggregateStage) Name() string { return "Aggregate" }

func (s *aggregateStage) Execute(ctx context.Context, state *BatchState) error {
	records := state.Records()

	seen := make(map[string]int, len(records))
	kept := make([]domain.SaleRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		key := r.Key()
		if idx, dup := seen[key]; dup {
			kept[idx] = r // last occurrence wins
			dropped++
			continue
		}
		seen[key] = len(kept)
		kept = append(kept, r)
	}

	state.setDeduped(kept, dropped)

	if dropped > 0 {
		s.logger.InfoContext(ctx, "collapsed duplicate rows",
			slog.String("batch_id", state.Batch().ID),
			slog.Int("duplicates", dropped))
	}
	return nil
}

// exportStage merges the surviving records into the sales dataset.
type exportStage struct {
	sink   RecordSink
	logger *slog.Logger
}

func (s *exportStage) ID() string   { return StageExport }
func (s *exportStage) Name() string { return "Export to dataset" }

func (s *exportStage) Execute(ctx context.Context, state *BatchState) error {
	added, replaced, err := s.sink.Merge(ctx, state.Records())
	if err != nil {
		return fmt.Errorf("merge into dataset: %w", err)
	}
	state.setExportResult(added, replaced)

	s.logger.InfoContext(ctx, "batch exported",
		slog.String("batch_id", state.Batch().ID),
		slog.Int("added", added),
		slog.Int("replaced", replaced))
	return nil
}

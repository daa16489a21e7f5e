package importer

import (
	"context"
	"sync"

	"dbusana/pkg/contracts/domain"
)

// Stage is one step of the import pipeline.
type Stage interface {
	// ID is the stable stage identifier used in metrics and events.
	ID() string

	// Name is the human-readable stage name.
	Name() string

	// Execute runs the stage against the shared batch state.
	Execute(ctx context.Context, state *BatchState) error
}

// Stage identifiers, in execution order.
const (
	StageScan      = "scan"
	StageParse     = "parse"
	StageValidate  = "validate"
	StageAggregate = "aggregate"
	StageExport    = "export"
)

// BatchState carries everything the stages produce and consume while
// one batch runs. Stages execute sequentially; the mutex protects the
// snapshot readers (progress broadcasts, batch store lookups).
type BatchState struct {
	mu sync.RWMutex

	batch    domain.ImportBatch
	filePath string
	fileSize int64

	// parse output
	records []domain.SaleRecord
	issues  []domain.RowIssue

	// aggregate output
	deduped int

	// export output
	added    int
	replaced int
}

// NewBatchState seeds the state for one upload.
func NewBatchState(batch domain.ImportBatch, filePath string) *BatchState {
	return &BatchState{batch: batch, filePath: filePath}
}

// Batch returns a copy of the current batch summary.
func (s *BatchState) Batch() domain.ImportBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.batch
	b.Issues = append([]domain.RowIssue(nil), s.issues...)
	return b
}

// FilePath is the uploaded file being imported.
func (s *BatchState) FilePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filePath
}

// Records returns the parsed records. The slice is shared; stages run
// one at a time so this is safe within the pipeline.
func (s *BatchState) Records() []domain.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// SetRecords stores the parse output on the state.
func (s *BatchState) SetRecords(records []domain.SaleRecord, totalRows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.batch.TotalRows = totalRows
}

// AddIssues appends row-level failures and bumps the failed counter.
func (s *BatchState) AddIssues(issues ...domain.RowIssue) {
	if len(issues) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = append(s.issues, issues...)
	s.batch.Failed += len(issues)
}

func (s *BatchState) setFileMeta(fileType string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.FileType = fileType
	s.fileSize = size
}

// FileSize is the byte size recorded by the scan stage.
func (s *BatchState) FileSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileSize
}

func (s *BatchState) setDeduped(kept []domain.SaleRecord, dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = kept
	s.deduped = dropped
	s.batch.Skipped += dropped
}

func (s *BatchState) setExportResult(added, replaced int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = added
	s.replaced = replaced
	s.batch.Imported = added + replaced
}

// mutateBatch applies fn under the write lock.
func (s *BatchState) mutateBatch(fn func(*domain.ImportBatch)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.batch)
}

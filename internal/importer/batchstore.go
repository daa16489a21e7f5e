package importer

import (
	"sort"
	"sync"

	apierrors "dbusana/internal/errors"
	"dbusana/pkg/contracts/domain"
)

// BatchStore keeps batch summaries in memory for the dashboard's
// import history views. Batches live for the process lifetime; the
// canonical sales data itself is persisted by the sales store.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[string]domain.ImportBatch
}

// NewBatchStore creates an empty store.
func NewBatchStore() *BatchStore {
	return &BatchStore{batches: make(map[string]domain.ImportBatch)}
}

// Put inserts or updates a batch snapshot.
func (s *BatchStore) Put(batch domain.ImportBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch
}

// Begin registers a pending batch, refusing while another batch is
// pending or running. Check and insert happen under one lock so
// concurrent uploads cannot both start.
func (s *BatchStore) Begin(batch domain.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.batches {
		if b.Status == domain.BatchStatusPending || b.Status == domain.BatchStatusRunning {
			return apierrors.ErrImportInProgress
		}
	}
	s.batches[batch.ID] = batch
	return nil
}

// Get returns the batch with the given ID.
func (s *BatchStore) Get(id string) (domain.ImportBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return domain.ImportBatch{}, apierrors.ErrImportBatchMissing
	}
	return batch, nil
}

// List returns all batches, newest first.
func (s *BatchStore) List() []domain.ImportBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ImportBatch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Running reports whether any batch is currently pending or running.
func (s *BatchStore) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.batches {
		if b.Status == domain.BatchStatusPending || b.Status == domain.BatchStatusRunning {
			return true
		}
	}
	return false
}

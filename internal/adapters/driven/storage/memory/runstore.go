package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure RunHistoryStore implements the interface.
var _ driven.RunHistoryStore = (*RunHistoryStore)(nil)

// RunHistoryStore is an in-memory implementation of driven.RunHistoryStore.
type RunHistoryStore struct {
	mu   sync.RWMutex
	runs []domain.RunReport
}

// NewRunHistoryStore creates a new in-memory run history store.
func NewRunHistoryStore() *RunHistoryStore {
	return &RunHistoryStore{}
}

// RecordRun appends a run report.
func (s *RunHistoryStore) RecordRun(_ context.Context, report *domain.RunReport) error {
	if report == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *report)
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunHistoryStore) ListRuns(_ context.Context, limit int) ([]domain.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.RunReport, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure WatermarkStore implements the interface.
var _ driven.WatermarkStore = (*WatermarkStore)(nil)

// WatermarkStore is an in-memory implementation of driven.WatermarkStore.
type WatermarkStore struct {
	mu        sync.RWMutex
	watermark domain.Watermark
}

// NewWatermarkStore creates a new in-memory watermark store.
func NewWatermarkStore() *WatermarkStore {
	return &WatermarkStore{}
}

// Load returns the committed watermark.
func (s *WatermarkStore) Load(_ context.Context) (domain.Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark, nil
}

// Commit replaces the watermark.
func (s *WatermarkStore) Commit(_ context.Context, w domain.Watermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = w
	return nil
}

// Clear removes the watermark.
func (s *WatermarkStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = domain.Watermark{}
	return nil
}

package driven

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// WatermarkStore persists the single ingestion cursor.
type WatermarkStore interface {
	// Load returns the committed watermark, or a zero Watermark if none.
	Load(ctx context.Context) (domain.Watermark, error)

	// Commit durably stores the watermark, replacing any previous value.
	Commit(ctx context.Context, w domain.Watermark) error

	// Clear removes the watermark so the next run starts from the
	// lookback window.
	Clear(ctx context.Context) error
}

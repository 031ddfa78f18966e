package driven

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// RunHistoryStore records finished pipeline runs.
type RunHistoryStore interface {
	// RecordRun stores a run report.
	RecordRun(ctx context.Context, report *domain.RunReport) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// PipelineOrchestrator runs the ingestion state machine.
type PipelineOrchestrator interface {
	// Run executes one pipeline run. It returns domain.ErrPipelineRunning
	// without doing anything if another run is active. The returned report
	// is non-nil whenever a run was started, including aborted runs.
	Run(ctx context.Context, opts domain.RunOptions) (*domain.RunReport, error)

	// Status returns the active run, if any.
	Status(ctx context.Context) (*PipelineStatus, error)

	// History returns recent finished runs, newest first.
	History(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// PipelineStatus represents the current state of the pipeline.
type PipelineStatus struct {
	// Running indicates if a run is in progress.
	Running bool

	// Run is a snapshot of the active run; nil when idle.
	Run *domain.RunReport

	// Watermark is the committed cursor.
	Watermark domain.Watermark

	// Documents is the number of stored documents.
	Documents int
}

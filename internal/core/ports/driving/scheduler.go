package driving

import "context"

// Scheduler triggers incremental pipeline runs in the background.
type Scheduler interface {
	// Start begins running scheduled runs.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop and waits for an active run to finish.
	Stop() error
}

package driven

import (
	"context"
	"time"
)

// RunLock is the pipeline run guard shared by every process that opens the
// same store. It is a lease: a holder that dies without releasing it is
// replaced once the lease expires.
type RunLock interface {
	// Acquire claims the lease for owner until ttl elapses, or extends it
	// when owner already holds it. Returns domain.ErrPipelineRunning while
	// another owner's lease is live.
	Acquire(ctx context.Context, owner string, ttl time.Duration) error

	// Release gives up the lease if owner holds it.
	Release(ctx context.Context, owner string) error
}

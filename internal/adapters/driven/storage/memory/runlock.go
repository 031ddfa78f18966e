package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure RunLock implements the interface.
var _ driven.RunLock = (*RunLock)(nil)

// RunLock is an in-memory implementation of driven.RunLock. Sharing one
// instance between orchestrators stands in for processes sharing a database.
type RunLock struct {
	mu      sync.Mutex
	owner   string
	expires time.Time
	now     func() time.Time
}

// NewRunLock creates a new in-memory run lease.
func NewRunLock() *RunLock {
	return &RunLock{now: time.Now}
}

// SetClock replaces the wall clock used for expiry.
func (l *RunLock) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Acquire claims or renews the lease.
func (l *RunLock) Acquire(_ context.Context, owner string, ttl time.Duration) error {
	if owner == "" || ttl <= 0 {
		return fmt.Errorf("%w: lease owner and ttl are required", domain.ErrInvalidInput)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.owner != "" && l.owner != owner && now.Before(l.expires) {
		return domain.ErrPipelineRunning
	}
	l.owner = owner
	l.expires = now.Add(ttl)
	return nil
}

// Release gives up the lease if owner holds it.
func (l *RunLock) Release(_ context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == owner {
		l.owner = ""
		l.expires = time.Time{}
	}
	return nil
}

// Owner returns the current holder, or "" when the lease is free.
func (l *RunLock) Owner() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

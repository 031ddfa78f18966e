package driven

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// DocumentSource fetches raw records from the upstream document API.
type DocumentSource interface {
	// Fetch lazily retrieves every record published in [since, until]
	// (inclusive civil dates), draining all pages.
	//
	// The record channel is closed when fetching stops. Errors are sent on
	// the error channel; a successful drain of every page ends with a
	// *FetchComplete on the error channel. A consumer that does not observe
	// FetchComplete must treat the fetch as incomplete.
	Fetch(ctx context.Context, since, until time.Time) (<-chan domain.RawRecord, <-chan error)
}

// FetchComplete is sent on the error channel once every page in range has
// been retrieved.
type FetchComplete struct {
	// Pages is the number of pages retrieved.
	Pages int

	// Records is the number of records sent.
	Records int
}

// Error implements the error interface.
// This allows FetchComplete to be sent on the error channel.
func (*FetchComplete) Error() string {
	return "fetch complete"
}

// IsFetchComplete checks if an error is actually a successful completion.
func IsFetchComplete(err error) (*FetchComplete, bool) {
	var fc *FetchComplete
	if errors.As(err, &fc) {
		return fc, true
	}
	return nil, false
}

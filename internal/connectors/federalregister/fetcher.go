package federalregister

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.DocumentSource = (*Fetcher)(nil)

// Fetcher drains Federal Register pages for a publication date range.
type Fetcher struct {
	client   *Client
	backoff  backoff
	fullText bool
}

// New creates a Fetcher from fetch configuration.
func New(cfg domain.FetchConfig, httpClient *http.Client) (*Fetcher, error) {
	client, err := NewClient(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		client: client,
		backoff: backoff{
			maxRetries: cfg.MaxRetries,
			baseDelay:  cfg.RetryBaseDelay,
			maxDelay:   cfg.RetryMaxDelay,
		},
		fullText: cfg.FullText,
	}, nil
}

// Fetch retrieves every record published in [since, until].
func (f *Fetcher) Fetch(ctx context.Context, since, until time.Time) (<-chan domain.RawRecord, <-chan error) {
	recordsCh := make(chan domain.RawRecord)
	errsCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errsCh)

		if since.After(until) {
			errsCh <- &domain.FatalFetchError{Err: ErrInvalidRange}
			return
		}

		pageURL := f.client.FirstPageURL(since, until)
		pages, records := 0, 0

		for pageURL != "" {
			var p *page
			err := f.backoff.do(ctx, fmt.Sprintf("page %d", pages+1), func(ctx context.Context) error {
				var err error
				p, err = f.client.FetchPage(ctx, pageURL)
				return err
			})
			if err != nil {
				errsCh <- fmt.Errorf("page %d: %w", pages+1, err)
				return
			}
			pages++
			logger.Debug("Fetched page %d/%d (%d records)", pages, p.TotalPages, len(*p.Results))

			for _, rec := range *p.Results {
				if f.fullText && rec.FullTextXMLURL != "" {
					if err := f.attachFullText(ctx, &rec); err != nil {
						errsCh <- fmt.Errorf("full text %s: %w", rec.DocumentNumber, err)
						return
					}
				}
				select {
				case <-ctx.Done():
					errsCh <- ctx.Err()
					return
				case recordsCh <- rec:
					records++
				}
			}

			pageURL = p.NextPageURL
			if pageURL != "" {
				if err := f.client.checkNextURL(pageURL); err != nil {
					errsCh <- fmt.Errorf("page %d: %w", pages+1, err)
					return
				}
			}
		}

		errsCh <- &driven.FetchComplete{Pages: pages, Records: records}
	}()

	return recordsCh, errsCh
}

// attachFullText fills rec.FullText. A body on another host is skipped, as
// is one the server refuses with a 4xx; neither should fail the run.
func (f *Fetcher) attachFullText(ctx context.Context, rec *domain.RawRecord) error {
	if !f.client.sameOrigin(rec.FullTextXMLURL) {
		logger.Debug("Skipping full text of %s on foreign host", rec.DocumentNumber)
		return nil
	}

	var text string
	err := f.backoff.do(ctx, "full text "+rec.DocumentNumber, func(ctx context.Context) error {
		var err error
		text, err = f.client.FetchFullText(ctx, rec.FullTextXMLURL)
		return err
	})
	var fatal *domain.FatalFetchError
	if errors.As(err, &fatal) && fatal.StatusCode >= 400 && fatal.StatusCode < 500 {
		logger.Warn("No full text for %s: %v", rec.DocumentNumber, err)
		return nil
	}
	if err != nil {
		return err
	}
	rec.FullText = text
	return nil
}

package federalregister

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

const (
	// maxPageBytes bounds a single page body.
	maxPageBytes = 32 << 20

	// maxFullTextBytes bounds a single document body; longer ones are cut.
	maxFullTextBytes = 8 << 20

	// userAgent identifies the client to the API.
	userAgent = "regdesk"
)

// requestedFields are the record fields asked of the API.
var requestedFields = []string{
	"document_number",
	"title",
	"type",
	"subtype",
	"publication_date",
	"abstract",
	"html_url",
	"agencies",
	"effective_on",
	"significant",
	"full_text_xml_url",
}

// page is one decoded documents.json response.
type page struct {
	Count       int                 `json:"count"`
	TotalPages  int                 `json:"total_pages"`
	NextPageURL string              `json:"next_page_url"`
	Results     *[]domain.RawRecord `json:"results"`
}

// Client performs page requests against the Federal Register API.
type Client struct {
	http        *http.Client
	baseURL     *url.URL
	pageSize    int
	pageTimeout time.Duration
	limiter     *RateLimiter
}

// NewClient creates a client from fetch configuration.
// If httpClient is nil a default client is used; per-page deadlines are
// applied through the request context, not the client timeout.
func NewClient(cfg domain.FetchConfig, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: fetch base URL %q", domain.ErrInvalidInput, cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		http:        httpClient,
		baseURL:     base,
		pageSize:    cfg.PageSize,
		pageTimeout: cfg.PageTimeout,
		limiter:     NewRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// FirstPageURL builds the URL of the first page for a publication date range.
func (c *Client) FirstPageURL(since, until time.Time) string {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("order", "oldest")
	q.Set("conditions[publication_date][gte]", domain.FormatDate(since))
	q.Set("conditions[publication_date][lte]", domain.FormatDate(until))
	for _, f := range requestedFields {
		q.Add("fields[]", f)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/documents.json"
	u.RawQuery = q.Encode()
	return u.String()
}

// checkNextURL ensures a next_page_url stays under the configured base URL.
func (c *Client) checkNextURL(next string) error {
	u, err := url.Parse(next)
	if err != nil {
		return &domain.FatalFetchError{Err: fmt.Errorf("parse next_page_url: %w", err)}
	}
	if u.Scheme != c.baseURL.Scheme || u.Host != c.baseURL.Host ||
		!strings.HasPrefix(u.Path, c.baseURL.Path) {
		return &domain.FatalFetchError{Err: fmt.Errorf("%w: %s", ErrForeignNextPage, next)}
	}
	return nil
}

// sameOrigin reports whether raw shares the base URL's scheme and host.
// Full text lives outside the API path, so the path is not checked.
func (c *Client) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == c.baseURL.Scheme && u.Host == c.baseURL.Host
}

// FetchFullText retrieves one document body as returned by its
// full_text_xml_url. Errors are classified like page errors.
func (c *Client) FetchFullText(ctx context.Context, textURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqCtx := ctx
	if c.pageTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.pageTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, textURL, http.NoBody)
	if err != nil {
		return "", &domain.FatalFetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		classified := classifyResponse(resp)
		var te *domain.TransientFetchError
		if errors.As(classified, &te) {
			c.limiter.RecordRetryAfter(te.RetryAfter)
		}
		return "", classified
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFullTextBytes))
	if err != nil {
		return "", c.transportError(ctx, err)
	}
	return string(body), nil
}

// FetchPage retrieves and decodes one page. The whole exchange, including
// reading the body, is bounded by the page timeout.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageCtx := ctx
	if c.pageTimeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, c.pageTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(pageCtx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, &domain.FatalFetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		classified := classifyResponse(resp)
		var te *domain.TransientFetchError
		if errors.As(classified, &te) {
			c.limiter.RecordRetryAfter(te.RetryAfter)
		}
		return nil, classified
	}

	var p page
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(&p); err != nil {
		if pageCtx.Err() != nil {
			return nil, c.transportError(ctx, err)
		}
		return nil, &domain.FatalFetchError{Err: fmt.Errorf("decode page: %w", err)}
	}
	if p.Results == nil {
		if p.Count > 0 {
			return nil, &domain.FatalFetchError{Err: ErrMissingResults}
		}
		p.Results = &[]domain.RawRecord{}
	}

	return &p, nil
}

// transportError classifies a failure that produced no usable response.
// Cancellation of the caller's context is returned as-is; everything else,
// including the page deadline, is transient.
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &domain.TransientFetchError{Err: err}
}

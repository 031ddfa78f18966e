package federalregister

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// Federal Register specific errors.
var (
	// ErrMissingResults indicates a page body without a results array
	// although records were counted.
	ErrMissingResults = errors.New("federalregister: response has no results array")

	// ErrForeignNextPage indicates a next_page_url outside the base URL.
	ErrForeignNextPage = errors.New("federalregister: next_page_url outside base URL")

	// ErrInvalidRange indicates since is after until.
	ErrInvalidRange = errors.New("federalregister: since is after until")
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// APIError represents a non-2xx Federal Register API response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("federalregister: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// classifyResponse converts a non-2xx response into a transient or fatal
// fetch error. It reads (and bounds) the body for the error message.
func classifyResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		URL:        resp.Request.URL.String(),
	}

	if isRetryableStatus(resp.StatusCode) {
		return &domain.TransientFetchError{
			StatusCode: resp.StatusCode,
			RetryAfter: ParseRetryAfter(resp),
			Err:        apiErr,
		}
	}
	return &domain.FatalFetchError{StatusCode: resp.StatusCode, Err: apiErr}
}

// isRetryableStatus reports whether a status is worth retrying.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Package federalregister implements a DocumentSource for the Federal
// Register documents search API.
//
// # Architecture
//
// The connector follows the driven port pattern defined in
// [driven.DocumentSource]. It comprises the following components:
//
//   - Fetcher: drains every page of a publication date range
//   - Client: builds page requests and decodes page responses
//   - RateLimiter: proactive token bucket plus Retry-After backoff
//   - retry: bounded exponential backoff around a single page
//
// # Pagination
//
// The first page is requested with publication date conditions, oldest
// documents first. Subsequent pages follow next_page_url from the response
// body. A next_page_url that does not point below the configured base URL
// is rejected as a fatal error.
//
// # Error Handling
//
// Failures are classified as follows:
//
//   - Network errors, page timeouts, 5xx and 429: [domain.TransientFetchError],
//     retried with exponential backoff up to the configured maximum
//   - Other 4xx, undecodable bodies and bodies without a results array
//     while count is non-zero: [domain.FatalFetchError], never retried
//
// A fetch signals completion by sending [driven.FetchComplete] on its error
// channel only after the last page has been retrieved.
package federalregister

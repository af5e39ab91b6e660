package scraper

import (
	"errors"
	"fmt"
)

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, scraper.ErrFetch).
var (
	// ErrFetch indicates the fast path gave up on a URL.
	ErrFetch = errors.New("fetch failed")
	// ErrRenderTimeout indicates the readiness marker never appeared.
	ErrRenderTimeout = errors.New("render timeout")
	// ErrNavigation indicates the browser could not load the page.
	ErrNavigation = errors.New("navigation failed")
	// ErrAntiBot indicates the response is a challenge or bot wall.
	ErrAntiBot = errors.New("anti-bot protection detected")
)

// FetchError is returned by the static fetcher once retries are exhausted or
// the failure is not retryable.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

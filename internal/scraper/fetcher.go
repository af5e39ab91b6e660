// Package scraper fetches portal pages: a pooled HTTP fast path and a
// browser-rendered slow path behind the same Fetcher interface.
package scraper

import (
	"context"
	"time"
)

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Attempts    int // HTTP attempts used (static only)
}

// Options controls fetching behavior.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// Dynamic only.
	WaitForSelector      string        // readiness marker
	AllowMissingSelector bool          // return the markup even if the marker never shows
	ScrollToBottom       bool          // force lazy content before reading markup
	WaitDuration         time.Duration // settle time after the marker

	Headers map[string]string
}

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns "static" or "dynamic".
	Type() string
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

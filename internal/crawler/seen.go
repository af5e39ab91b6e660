package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// URLSet records URLs already emitted during a run, compared in normalized
// form so that fragment and trailing-slash variants collapse.
type URLSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewURLSet creates an empty set.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]bool)}
}

// Add records rawURL and reports whether it was new. URLs that cannot be
// normalized are keyed on their trimmed raw text; only an empty URL is
// rejected.
func (s *URLSet) Add(rawURL string) bool {
	key := urlKey(rawURL)
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[key] {
		return false
	}
	s.seen[key] = true
	return true
}

// Len returns the number of recorded URLs.
func (s *URLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func urlKey(rawURL string) string {
	if key := normalizeURL(rawURL); key != "" {
		return key
	}
	return strings.TrimSpace(rawURL)
}

// normalizeURL normalizes a URL for comparison.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}

	// Remove fragment
	parsed.Fragment = ""

	// Remove trailing slash from path (unless it's just "/")
	if len(parsed.Path) > 1 && parsed.Path[len(parsed.Path)-1] == '/' {
		parsed.Path = parsed.Path[:len(parsed.Path)-1]
	}

	return parsed.String()
}

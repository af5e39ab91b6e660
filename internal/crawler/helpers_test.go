package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmylchreest/propcrawl/internal/scraper"
	"github.com/jmylchreest/propcrawl/pkg/listing"
)

const testOrigin = "https://portal.test"

// card renders one result-grid card; an empty href leaves the cover link out.
func card(title, href string) string {
	var b strings.Builder
	b.WriteString(`<div class="listingCard">`)
	if href != "" {
		fmt.Fprintf(&b, `<a class="lc-cardCover" title="%s" href="%s"></a>`, title, href)
	} else {
		fmt.Fprintf(&b, `<span class="lc-title">%s</span>`, title)
	}
	b.WriteString(`<span class="price">$ 100</span></div>`)
	return b.String()
}

func listingPage(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

// detailPage renders a detail page; an empty description omits the block.
func detailPage(title, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><h1 class="property-title">%s</h1>`, title)
	b.WriteString(`<div class="project-info"><ul class="ant-list-items">`)
	b.WriteString(`<li class="ant-list-item"><div class="ant-col">Estrato</div><div class="ant-col">4</div></li>`)
	b.WriteString(`</ul></div>`)
	if description != "" {
		fmt.Fprintf(&b, `<div class="property-description">%s</div>`, description)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// fakeFetcher serves canned markup; unknown URLs fail like a 404.
type fakeFetcher struct {
	typ string

	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
	opts  []scraper.Options
}

func newFakeFetcher(typ string) *fakeFetcher {
	return &fakeFetcher{
		typ:   typ,
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (f *fakeFetcher) set(url, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = html
}

func (f *fakeFetcher) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts scraper.Options) (scraper.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	f.opts = append(f.opts, opts)

	if err := ctx.Err(); err != nil {
		return scraper.Content{}, err
	}
	if err, ok := f.errs[url]; ok {
		return scraper.Content{}, err
	}
	html, ok := f.pages[url]
	if !ok {
		return scraper.Content{}, &scraper.FetchError{URL: url, StatusCode: 404, Attempts: 1, Err: fmt.Errorf("not found")}
	}
	return scraper.Content{URL: url, HTML: html, StatusCode: 200}, nil
}

func (f *fakeFetcher) Close() error { return nil }

func (f *fakeFetcher) Type() string { return f.typ }

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) called(url string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == url {
			n++
		}
	}
	return n
}

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	batches map[string]*listing.Run
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{batches: make(map[string]*listing.Run)}
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.batches[key]
	return ok, nil
}

func (s *memStore) Save(_ context.Context, key string, run *listing.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.batches[key] = run
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CardTimeout = 0
	cfg.DetailTimeout = 0
	cfg.SettleDelay = 0
	return cfg
}

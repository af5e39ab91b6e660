package crawler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/propcrawl/internal/extractor"
	"github.com/jmylchreest/propcrawl/internal/logger"
	"github.com/jmylchreest/propcrawl/internal/scraper"
	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// DetailResolver turns a batch of detail URLs into details keyed by URL.
type DetailResolver interface {
	Resolve(ctx context.Context, urls []string) map[string]*listing.Detail
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Workers       int           // concurrent fast-path tasks
	DetailTimeout time.Duration // readiness wait on the fallback render
	SettleDelay   time.Duration // pause after the readiness marker
	Logger        *slog.Logger
}

// ResolverConfig derives the resolver settings from the crawler config.
func (c Config) ResolverConfig() ResolverConfig {
	return ResolverConfig{
		Workers:       c.Workers,
		DetailTimeout: c.DetailTimeout,
		SettleDelay:   c.SettleDelay,
	}
}

// Resolver fetches detail pages over the fast path in parallel and re-renders
// the ones that failed or came back incomplete.
type Resolver struct {
	fast      scraper.Fetcher
	fallback  scraper.Fetcher // nil disables the slow path
	extractor *extractor.Extractor
	cfg       ResolverConfig
	log       *slog.Logger
}

// NewResolver creates a Resolver. fallback may be nil.
func NewResolver(fast, fallback scraper.Fetcher, ext *extractor.Extractor, cfg ResolverConfig) *Resolver {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Resolver{
		fast:      fast,
		fallback:  fallback,
		extractor: ext,
		cfg:       cfg,
		log:       logger.OrDiscard(cfg.Logger),
	}
}

type resolved struct {
	url    string
	detail *listing.Detail
}

// Resolve returns one detail per distinct URL. Failures are recorded as
// error-only details; the map always covers every input URL.
func (r *Resolver) Resolve(ctx context.Context, urls []string) map[string]*listing.Detail {
	urls = uniqueURLs(urls)
	details := make(map[string]*listing.Detail, len(urls))
	if len(urls) == 0 {
		return details
	}

	start := time.Now()
	results := make(chan resolved, len(urls))

	go func() {
		var g errgroup.Group
		g.SetLimit(r.cfg.Workers)
		for _, u := range urls {
			g.Go(func() error {
				results <- resolved{url: u, detail: r.fetchFast(ctx, u)}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		details[res.url] = res.detail
	}

	fastFailed := 0
	var retry []string
	for _, u := range urls {
		if needsFallback(details[u]) {
			fastFailed++
			retry = append(retry, u)
		}
	}

	r.log.Debug("fast path done",
		"urls", len(urls),
		"incomplete", fastFailed,
		"duration", time.Since(start))

	if r.fallback == nil || len(retry) == 0 {
		return details
	}

	// The renderer is single-threaded; walk the retries in input order.
	for i, u := range retry {
		if ctx.Err() != nil {
			r.log.Warn("fallback interrupted", "remaining", len(retry)-i)
			break
		}
		prev := details[u]
		details[u] = r.fetchRendered(ctx, u)
		r.log.Debug("fallback resolved",
			"url", u,
			"fast_error", errorText(prev),
			"failed", details[u].Failed())
	}

	return details
}

func (r *Resolver) fetchFast(ctx context.Context, u string) *listing.Detail {
	content, err := r.fast.Fetch(ctx, u, scraper.Options{})
	if err != nil {
		if scraper.IsRetryable(err) {
			r.log.Debug("fast fetch failed", "url", u, "error", err)
		} else {
			r.log.Debug("fast fetch rejected", "url", u, "error", err)
		}
		return listing.ErrorOnly(err)
	}
	d, err := r.extractor.DetailPage(content.HTML)
	if err != nil {
		return listing.ErrorOnly(err)
	}
	return d
}

func (r *Resolver) fetchRendered(ctx context.Context, u string) *listing.Detail {
	content, err := r.fallback.Fetch(ctx, u, scraper.Options{
		WaitForSelector: r.extractor.Selectors().DetailTitle,
		Timeout:         r.cfg.DetailTimeout,
		WaitDuration:    r.cfg.SettleDelay,
	})
	if err != nil {
		r.log.Warn("fallback render failed", "url", u, "error", err)
		return listing.ErrorOnly(err)
	}
	d, err := r.extractor.DetailPage(content.HTML)
	if err != nil {
		return listing.ErrorOnly(err)
	}
	return d
}

// needsFallback reports whether a fast-path result should be re-rendered:
// missing, failed, empty, or lacking the description.
func needsFallback(d *listing.Detail) bool {
	return d == nil || d.Failed() || d.Empty() || d.Incomplete()
}

func errorText(d *listing.Detail) string {
	if d == nil {
		return ""
	}
	return d.Error
}

// uniqueURLs drops empty and repeated URLs, keeping first-occurrence order.
func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/propcrawl/internal/extractor"
	"github.com/jmylchreest/propcrawl/internal/logger"
	"github.com/jmylchreest/propcrawl/internal/scraper"
	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// WalkConfig configures a Walker.
type WalkConfig struct {
	MaxPages    int
	StopOnEmpty bool
	StopOnError bool
	Delay       time.Duration // pause between pages

	CardTimeout time.Duration // wait for the first card
	SettleDelay time.Duration // pause after scrolling
	Logger      *slog.Logger
}

// WalkConfig derives the walker settings from the crawler config.
func (c Config) WalkConfig() WalkConfig {
	return WalkConfig{
		MaxPages:    c.MaxPages,
		StopOnEmpty: c.StopOnEmpty,
		StopOnError: c.StopOnError,
		Delay:       c.Delay,
		CardTimeout: c.CardTimeout,
		SettleDelay: c.SettleDelay,
	}
}

// Walker paginates one source: it renders each result page, extracts the
// cards, resolves their details and merges them in card order.
type Walker struct {
	renderer  scraper.Fetcher
	resolver  DetailResolver
	extractor *extractor.Extractor
	cfg       WalkConfig
	log       *slog.Logger
}

// NewWalker creates a Walker. The renderer is used for listing pages only;
// detail pages go through the resolver.
func NewWalker(renderer scraper.Fetcher, resolver DetailResolver, ext *extractor.Extractor, cfg WalkConfig) *Walker {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &Walker{
		renderer:  renderer,
		resolver:  resolver,
		extractor: ext,
		cfg:       cfg,
		log:       logger.OrDiscard(cfg.Logger),
	}
}

// errEmptyPage reports a listing page without cards.
var errEmptyPage = errors.New("no listing cards on page")

// Walk crawls pages 1..MaxPages of source and returns what was accumulated,
// whichever way the walk ended.
func (w *Walker) Walk(ctx context.Context, source string) *listing.Run {
	run := listing.NewRun(source)
	run.Stop = listing.StopCompleted
	emitted := NewURLSet()

	log := w.log.With("source", source, "run_id", run.ID.String())
	log.Info("walk started", "max_pages", w.cfg.MaxPages)

	for page := 1; page <= w.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			run.Stop = listing.StopCancelled
			break
		}

		pageURL := PageURL(source, page)
		run.Pages = page

		listings, err := w.scrapePage(ctx, pageURL, page, emitted)
		run.Listings = append(run.Listings, listings...)

		switch {
		case errors.Is(err, errEmptyPage):
			log.Warn("empty page", "page", page, "url", pageURL)
			if w.cfg.StopOnEmpty {
				run.Stop = listing.StopEmptyPage
			}
		case err != nil && ctx.Err() != nil:
			run.Stop = listing.StopCancelled
		case err != nil:
			log.Error("page failed", "page", page, "url", pageURL, "error", err)
			if w.cfg.StopOnError {
				run.Stop = listing.StopError
			}
		default:
			log.Info("page scraped", "page", page, "listings", len(listings))
		}
		if run.Stop != listing.StopCompleted {
			break
		}

		if page < w.cfg.MaxPages && w.cfg.Delay > 0 {
			if err := sleepContext(ctx, w.cfg.Delay); err != nil {
				run.Stop = listing.StopCancelled
				break
			}
		}
	}

	run.FinishedAt = time.Now()
	log.Info("walk finished",
		"listings", len(run.Listings),
		"detail_urls", emitted.Len(),
		"pages", run.Pages,
		"stop", run.Stop,
		"duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return run
}

// scrapePage renders one listing page and returns its merged listings.
func (w *Walker) scrapePage(ctx context.Context, pageURL string, page int, emitted *URLSet) ([]listing.Enriched, error) {
	content, err := w.renderer.Fetch(ctx, pageURL, scraper.Options{
		WaitForSelector:      w.extractor.Selectors().Card,
		AllowMissingSelector: true,
		ScrollToBottom:       true,
		Timeout:              w.cfg.CardTimeout,
		WaitDuration:         w.cfg.SettleDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}

	cards, err := w.extractor.ListingPage(content.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}
	if len(cards) == 0 {
		return nil, errEmptyPage
	}

	// Keep cards without a link; drop links already emitted in this run.
	kept := make([]listing.Summary, 0, len(cards))
	var urls []string
	for _, c := range cards {
		if c.DetailURL != "" {
			if !emitted.Add(c.DetailURL) {
				w.log.Debug("duplicate listing skipped", "page", page, "url", c.DetailURL)
				continue
			}
			urls = append(urls, c.DetailURL)
		}
		kept = append(kept, c)
	}

	details := w.resolver.Resolve(ctx, urls)

	listings := make([]listing.Enriched, 0, len(kept))
	for _, c := range kept {
		var d *listing.Detail
		if c.DetailURL != "" {
			d = details[c.DetailURL]
			if d == nil {
				d = listing.ErrorOnly(errors.New("detail not resolved"))
			}
		}
		listings = append(listings, listing.Merge(c, d, page))
	}
	return listings, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

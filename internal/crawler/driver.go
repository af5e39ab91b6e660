package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/propcrawl/internal/logger"
	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// Store persists one batch of rows per source key.
type Store interface {
	// Exists reports whether a batch for key was already saved.
	Exists(ctx context.Context, key string) (bool, error)
	// Save persists the run under key.
	Save(ctx context.Context, key string, run *listing.Run) error
}

// SourceWalker crawls a single source.
type SourceWalker interface {
	Walk(ctx context.Context, source string) *listing.Run
}

// Report summarizes a driver run.
type Report struct {
	Crawled int // sources walked and saved
	Skipped int // sources whose batch already existed
	Empty   int // sources that yielded no listings
	Failed  int // sources that could not be walked or saved
	Rows    int // rows saved across all sources
}

// Driver walks every source and persists each result as its own batch,
// skipping sources that were already saved.
type Driver struct {
	walker    SourceWalker
	store     Store
	overwrite bool
	log       *slog.Logger
}

// NewDriver creates a Driver.
func NewDriver(walker SourceWalker, store Store, overwrite bool, log *slog.Logger) *Driver {
	return &Driver{
		walker:    walker,
		store:     store,
		overwrite: overwrite,
		log:       logger.OrDiscard(log),
	}
}

// Run processes sources in order. A failing source is logged and counted;
// it never aborts the others.
func (d *Driver) Run(ctx context.Context, sources []string) Report {
	var rep Report
	start := time.Now()

	for i, source := range sources {
		if ctx.Err() != nil {
			d.log.Warn("crawl cancelled", "remaining", len(sources)-i)
			break
		}

		key, err := SourceKey(source)
		if err != nil {
			d.log.Error("skipping source", "source", source, "error", err)
			rep.Failed++
			continue
		}
		log := d.log.With("source", source, "key", key)

		if !d.overwrite {
			exists, err := d.store.Exists(ctx, key)
			if err != nil {
				log.Error("failed to check existing batch", "error", err)
				rep.Failed++
				continue
			}
			if exists {
				log.Info("batch exists, skipping")
				rep.Skipped++
				continue
			}
		}

		run := d.walker.Walk(ctx, source)
		run.Key = key

		if len(run.Listings) == 0 {
			log.Warn("no listings collected", "stop", run.Stop)
			rep.Empty++
			continue
		}

		if err := d.store.Save(ctx, key, run); err != nil {
			log.Error("failed to save batch", "error", fmt.Errorf("save %s: %w", key, err))
			rep.Failed++
			continue
		}

		rep.Crawled++
		rep.Rows += len(run.Listings)
		log.Info(fmt.Sprintf("%d listings collected", len(run.Listings)), "stop", run.Stop)
	}

	d.log.Info("crawl finished",
		"crawled", rep.Crawled,
		"skipped", rep.Skipped,
		"empty", rep.Empty,
		"failed", rep.Failed,
		"rows", rep.Rows,
		"duration", time.Since(start).Round(time.Millisecond))
	return rep
}

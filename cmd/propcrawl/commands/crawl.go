package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/propcrawl/internal/crawler"
	"github.com/jmylchreest/propcrawl/internal/extractor"
	"github.com/jmylchreest/propcrawl/internal/logger"
	"github.com/jmylchreest/propcrawl/internal/output"
	"github.com/jmylchreest/propcrawl/internal/scraper"
	"github.com/jmylchreest/propcrawl/internal/store"
	"github.com/jmylchreest/propcrawl/internal/version"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl every source URL and save one batch per source",
	Long: `Crawl reads search-result URLs from a file (one per line, '#' comments
allowed), walks their result pages and enriches every card with its detail
page. Each source is saved as <out-dir>/<key>.<format>, where the key is the
last three path segments of the URL joined by '_'.

Examples:
  propcrawl crawl --url-file urls_fincaraiz.txt --out-dir data/raw
  propcrawl crawl --max-pages 5 --delay 1.5 --headless
  propcrawl crawl --overwrite --no-fallback --format jsonl`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	def := crawler.DefaultConfig()
	static := scraper.DefaultStaticConfig()
	flags := crawlCmd.Flags()

	// Input / output
	flags.String("url-file", "urls_fincaraiz.txt", "file with one source URL per line")
	flags.String("out-dir", "data/raw", "directory for batch files")
	flags.String("format", string(output.FormatCSV), "output format: csv, json, jsonl, yaml")
	flags.Bool("overwrite", false, "re-crawl sources whose batch already exists")
	flags.String("postgres-dsn", "", "also store batches in Postgres")

	// Pagination
	flags.Int("max-pages", def.MaxPages, "result pages per source")
	flags.Float64("delay", 0, "seconds to wait between result pages")
	flags.Bool("stop-on-empty", def.StopOnEmpty, "stop a source at the first page without cards")
	flags.Bool("stop-on-error", def.StopOnError, "stop a source at the first page that fails")

	// Rendering
	flags.Bool("headless", false, "run the browser without a window")
	flags.Duration("render-timeout", def.CardTimeout, "wait for listing cards / detail heading")
	flags.String("origin", extractor.DefaultOrigin, "origin used to absolutize card links")

	// Detail fetching
	flags.IntP("workers", "w", def.Workers, "concurrent detail fetches")
	flags.Duration("timeout", static.Timeout, "HTTP timeout per detail request")
	flags.Int("retries", static.Retries, "extra attempts on 500/502/503/504")
	flags.Float64("rate-limit", 0, "max detail requests per second (0=unlimited)")
	flags.String("max-body-size", "10MB", "max detail response size (e.g. 5MB, 0=unlimited)")
	flags.Bool("no-fallback", false, "never re-render failed or incomplete details")

	// Bind to viper
	for key, flag := range map[string]string{
		"source_url_file":          "url-file",
		"output_dir":               "out-dir",
		"output_format":            "format",
		"overwrite_existing":       "overwrite",
		"postgres_dsn":             "postgres-dsn",
		"max_pages":                "max-pages",
		"inter_page_delay_seconds": "delay",
		"stop_on_empty":            "stop-on-empty",
		"stop_on_error":            "stop-on-error",
		"headless_rendering":       "headless",
		"render_timeout":           "render-timeout",
		"origin":                   "origin",
		"detail_worker_count":      "workers",
		"request_timeout":          "timeout",
		"retries":                  "retries",
		"rate_limit":               "rate-limit",
		"max_body_size":            "max-body-size",
		"no_fallback":              "no-fallback",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// crawlSettings is the resolved command configuration.
type crawlSettings struct {
	URLFile     string
	OutDir      string
	Format      output.Format
	PostgresDSN string
	Headless    bool
	Origin      string
	Timeout     time.Duration
	Retries     int
	RateLimit   float64
	MaxBodySize uint64
	Selectors   extractor.Selectors
	Crawler     crawler.Config
}

// loadCrawlSettings reads flags, config file and environment through viper.
func loadCrawlSettings() (crawlSettings, error) {
	var s crawlSettings

	format, err := output.ParseFormat(viper.GetString("output_format"))
	if err != nil {
		return s, err
	}
	maxBody, err := humanize.ParseBytes(viper.GetString("max_body_size"))
	if err != nil {
		return s, fmt.Errorf("invalid max-body-size: %w", err)
	}

	cfg := crawler.DefaultConfig()
	cfg.MaxPages = viper.GetInt("max_pages")
	cfg.Delay = time.Duration(viper.GetFloat64("inter_page_delay_seconds") * float64(time.Second))
	cfg.StopOnEmpty = viper.GetBool("stop_on_empty")
	cfg.StopOnError = viper.GetBool("stop_on_error")
	cfg.Workers = viper.GetInt("detail_worker_count")
	cfg.Fallback = !viper.GetBool("no_fallback")
	cfg.Overwrite = viper.GetBool("overwrite_existing")
	if d := viper.GetDuration("render_timeout"); d > 0 {
		cfg.CardTimeout = d
		cfg.DetailTimeout = d
	}
	if err := cfg.Validate(); err != nil {
		return s, err
	}

	sel := extractor.DefaultSelectors()
	if viper.IsSet("selectors") {
		if err := viper.UnmarshalKey("selectors", &sel); err != nil {
			return s, fmt.Errorf("invalid selectors: %w", err)
		}
		if sel.Card == "" || sel.DetailTitle == "" {
			return s, fmt.Errorf("invalid selectors: card and detail_title are required")
		}
	}

	s = crawlSettings{
		URLFile:     viper.GetString("source_url_file"),
		OutDir:      viper.GetString("output_dir"),
		Format:      format,
		PostgresDSN: viper.GetString("postgres_dsn"),
		Headless:    viper.GetBool("headless_rendering"),
		Origin:      viper.GetString("origin"),
		Timeout:     viper.GetDuration("request_timeout"),
		Retries:     viper.GetInt("retries"),
		RateLimit:   viper.GetFloat64("rate_limit"),
		MaxBodySize: maxBody,
		Selectors:   sel,
		Crawler:     cfg,
	}
	if s.URLFile == "" {
		return s, fmt.Errorf("url-file is required")
	}
	if s.OutDir == "" {
		return s, fmt.Errorf("out-dir is required")
	}
	return s, nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := loadCrawlSettings()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	sources, err := crawler.ReadSourceFile(s.URLFile)
	if err != nil {
		logger.Error("failed to read sources", "error", err)
		return err
	}
	if len(sources) == 0 {
		err := fmt.Errorf("no source URLs in %s", s.URLFile)
		logger.Error("nothing to crawl", "error", err)
		return err
	}
	logger.Info("crawl starting",
		"version", version.String(),
		"sources", len(sources),
		"max_pages", s.Crawler.MaxPages,
		"workers", s.Crawler.Workers,
		"format", s.Format,
		"out_dir", s.OutDir,
		"max_body_size", bodySizeLabel(s.MaxBodySize))

	st, closeStore, err := openStore(ctx, s)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer closeStore()

	fast := scraper.NewStatic(scraper.StaticConfig{
		Timeout:     s.Timeout,
		Retries:     s.Retries,
		MaxBodySize: int(min(s.MaxBodySize, uint64(1<<31-1))), //#nosec G115 -- clamped
		RateLimit:   s.RateLimit,
		Logger:      logger.Component("static"),
	})
	defer fast.Close()

	renderer := scraper.NewDynamicFetcher(scraper.DynamicConfig{
		Headless:      s.Headless,
		Timeout:       s.Crawler.CardTimeout,
		DisableImages: true,
		Logger:        logger.Component("dynamic"),
	})
	defer renderer.Close()

	// Without a browser no result page can be read; fail before any source.
	if err := renderer.Start(); err != nil {
		logger.Error("renderer unavailable", "error", err)
		return err
	}

	ext := extractor.New(extractor.WithOrigin(s.Origin), extractor.WithSelectors(s.Selectors))

	var fallback scraper.Fetcher
	if s.Crawler.Fallback {
		fallback = renderer
	}
	rc := s.Crawler.ResolverConfig()
	rc.Logger = logger.Component("resolver")
	resolver := crawler.NewResolver(fast, fallback, ext, rc)

	wc := s.Crawler.WalkConfig()
	wc.Logger = logger.Component("walker")
	walker := crawler.NewWalker(renderer, resolver, ext, wc)

	driver := crawler.NewDriver(walker, st, s.Crawler.Overwrite, logger.Component("driver"))
	rep := driver.Run(ctx, sources)

	logger.Info(fmt.Sprintf("%d listings collected", rep.Rows),
		"crawled", rep.Crawled,
		"skipped", rep.Skipped,
		"empty", rep.Empty,
		"failed", rep.Failed)

	if rep.Failed == len(sources) {
		return fmt.Errorf("all %d sources failed", rep.Failed)
	}
	return nil
}

func bodySizeLabel(n uint64) string {
	if n == 0 {
		return "unlimited"
	}
	return humanize.Bytes(n)
}

// openStore builds the file store and, when a DSN is configured, adds the
// Postgres sink next to it.
func openStore(ctx context.Context, s crawlSettings) (crawler.Store, func(), error) {
	files, err := store.NewFileStore(s.OutDir, s.Format, logger.Component("store"))
	if err != nil {
		return nil, nil, err
	}
	if s.PostgresDSN == "" {
		return files, func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, s.PostgresDSN, logger.Component("postgres"))
	if err != nil {
		return nil, nil, err
	}
	return store.Multi{files, pg}, pg.Close, nil
}

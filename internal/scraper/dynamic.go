package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/propcrawl/internal/logger"
)

// scrollScript scrolls to the bottom so lazy content renders; it returns the
// scroll height so the evaluation never yields undefined.
const scrollScript = `window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`

// DynamicConfig holds configuration for the dynamic fetcher.
type DynamicConfig struct {
	UserAgent         string
	Timeout           time.Duration // default readiness wait
	NavigationTimeout time.Duration // page load limit
	Headless          bool
	DisableImages     bool
	ExecPath          string // Chrome binary, looked up when empty
	Logger            *slog.Logger
}

// DefaultDynamicConfig returns sensible defaults.
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		UserAgent:         defaultUserAgent,
		Timeout:           10 * time.Second,
		NavigationTimeout: 20 * time.Second,
		Headless:          true,
		DisableImages:     true,
	}
}

// DynamicFetcher renders pages in a single headless browser tab. The tab is
// owned by the fetcher and calls are serialised; it is meant to be driven
// from one goroutine.
type DynamicFetcher struct {
	config DynamicConfig
	log    *slog.Logger

	mu          sync.Mutex
	started     bool
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
}

// NewDynamicFetcher creates a dynamic fetcher. The browser is launched by
// Start or by the first Fetch.
func NewDynamicFetcher(cfg DynamicConfig) *DynamicFetcher {
	def := DefaultDynamicConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.NavigationTimeout == 0 {
		cfg.NavigationTimeout = def.NavigationTimeout
	}
	l := logger.OrDiscard(cfg.Logger)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = FindChromePath(l)
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			l.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	l.Debug("dynamic fetcher created",
		"headless", cfg.Headless,
		"timeout", cfg.Timeout,
		"navigation_timeout", cfg.NavigationTimeout)

	return &DynamicFetcher{
		config:      cfg,
		log:         l,
		cancelAlloc: cancelAlloc,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
	}
}

// Start launches the browser. A failure here means rendering is unavailable
// for the whole run.
func (f *DynamicFetcher) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.start()
}

func (f *DynamicFetcher) start() error {
	if f.started {
		return nil
	}
	// The first Run allocates the browser; it must use the tab context itself
	// so the browser lives as long as the fetcher.
	if err := chromedp.Run(f.tabCtx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	f.started = true
	f.log.Debug("browser started")
	return nil
}

// Fetch navigates the tab to targetURL, waits for the readiness marker and
// returns the rendered markup.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}
	if err := f.start(); err != nil {
		return result, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	f.log.Debug("dynamic fetch starting", "url", targetURL, "wait_for", opts.WaitForSelector)

	// Navigation
	navCtx, cancelNav := f.stepContext(ctx, f.config.NavigationTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancelNav()
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		f.log.Debug("dynamic fetch navigation failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("%w: %s: %v", ErrNavigation, targetURL, err)
	}

	// Readiness marker
	if opts.WaitForSelector != "" {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = f.config.Timeout
		}
		waitCtx, cancelWait := f.stepContext(ctx, timeout)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(opts.WaitForSelector, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			if !opts.AllowMissingSelector {
				return result, fmt.Errorf("%w: %q not found on %s after %s", ErrRenderTimeout, opts.WaitForSelector, targetURL, timeout)
			}
			f.log.Debug("readiness marker missing, reading page anyway",
				"url", targetURL,
				"selector", opts.WaitForSelector)
		}
	}

	// Lazy content and markup
	var actions []chromedp.Action
	if opts.ScrollToBottom {
		var height float64
		actions = append(actions, chromedp.Evaluate(scrollScript, &height))
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	var html, title string
	actions = append(actions,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Title(&title),
	)

	readCtx, cancelRead := f.stepContext(ctx, f.config.NavigationTimeout)
	err = chromedp.Run(readCtx, actions...)
	cancelRead()
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: reading %s: %v", ErrRenderTimeout, targetURL, err)
		}
		return result, fmt.Errorf("%w: reading %s: %v", ErrNavigation, targetURL, err)
	}

	result.HTML = html
	result.Title = title
	result.StatusCode = 200 // chromedp doesn't easily expose status codes
	result.Attempts = 1

	f.log.Debug("dynamic fetch complete", "url", targetURL, "title", title, "html_size", len(html))
	return result, nil
}

// stepContext derives a timeout context from the tab that is also cancelled
// when the caller's ctx is done.
func (f *DynamicFetcher) stepContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	stepCtx, cancel := context.WithTimeout(f.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return stepCtx, func() {
		stop()
		cancel()
	}
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelTab != nil {
		f.cancelTab()
	}
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	f.started = false
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}

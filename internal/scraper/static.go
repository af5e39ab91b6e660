package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/propcrawl/internal/logger"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent     string
	Timeout       time.Duration
	Retries       int           // extra attempts after the first one
	BackoffFactor time.Duration // sleep before retry n is BackoffFactor * 2^(n-1)
	RetryStatuses []int
	PoolSize      int     // idle connections kept per host
	MaxBodySize   int     // bytes, 0 = unlimited
	RateLimit     float64 // requests per second across all workers, 0 = unlimited
	Logger        *slog.Logger
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:     defaultUserAgent,
		Timeout:       15 * time.Second,
		Retries:       3,
		BackoffFactor: 300 * time.Millisecond,
		RetryStatuses: []int{
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		PoolSize:    16,
		MaxBodySize: 10 << 20,
	}
}

// StaticFetcher uses Colly for plain HTTP fetching. All requests share one
// pooled transport, so a single StaticFetcher is safe for concurrent use.
type StaticFetcher struct {
	config    StaticConfig
	transport *http.Transport
	limiter   *rate.Limiter
	retryOn   map[int]bool
	log       *slog.Logger
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	def := DefaultStaticConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = def.RetryStatuses
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = def.PoolSize
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.PoolSize * 2,
		MaxIdleConnsPerHost:   cfg.PoolSize,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	retryOn := make(map[int]bool, len(cfg.RetryStatuses))
	for _, s := range cfg.RetryStatuses {
		retryOn[s] = true
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	l := logger.OrDiscard(cfg.Logger)
	l.Debug("static fetcher created",
		"timeout", cfg.Timeout,
		"retries", cfg.Retries,
		"pool_size", cfg.PoolSize,
		"max_body_size", bodySizeLabel(cfg.MaxBodySize),
		"rate_limit", cfg.RateLimit)

	return &StaticFetcher{
		config:    cfg,
		transport: transport,
		limiter:   limiter,
		retryOn:   retryOn,
		log:       l,
	}
}

// Fetch retrieves raw page markup, retrying server-class failures with
// exponential backoff.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	var (
		result Content
		err    error
	)
	for attempt := 1; ; attempt++ {
		if f.limiter != nil {
			if werr := f.limiter.Wait(ctx); werr != nil {
				return result, &FetchError{URL: targetURL, Attempts: attempt - 1, Err: werr}
			}
		}

		result, err = f.visit(ctx, targetURL, opts)
		result.Attempts = attempt
		if err == nil {
			break
		}

		if attempt > f.config.Retries || !f.retryOn[result.StatusCode] {
			f.log.Debug("static fetch failed",
				"url", targetURL,
				"status", result.StatusCode,
				"attempts", attempt,
				"error", err)
			return result, &FetchError{URL: targetURL, StatusCode: result.StatusCode, Attempts: attempt, Err: err}
		}

		wait := f.backoff(attempt)
		f.log.Debug("static fetch retrying",
			"url", targetURL,
			"status", result.StatusCode,
			"attempt", attempt,
			"backoff", wait)
		if serr := sleepContext(ctx, wait); serr != nil {
			return result, &FetchError{URL: targetURL, StatusCode: result.StatusCode, Attempts: attempt, Err: serr}
		}
	}

	if challenge := DetectChallenge(result.Title, result.HTML); challenge != "" {
		f.log.Warn("challenge page detected", "url", targetURL, "type", challenge)
		return result, &FetchError{
			URL:        targetURL,
			StatusCode: result.StatusCode,
			Attempts:   result.Attempts,
			Err:        fmt.Errorf("%w: %s", ErrAntiBot, challenge),
		}
	}

	f.log.Debug("static fetch complete",
		"url", targetURL,
		"status", result.StatusCode,
		"size", humanize.Bytes(uint64(len(result.HTML))),
		"attempts", result.Attempts)
	return result, nil
}

// visit performs a single GET.
func (f *StaticFetcher) visit(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	collectorOpts := []colly.CollectorOption{
		colly.UserAgent(coalesce(opts.UserAgent, f.config.UserAgent)),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
		colly.MaxBodySize(max(f.config.MaxBodySize, 0)),
	}
	c := colly.NewCollector(collectorOpts...)
	c.WithTransport(f.transport)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	if len(opts.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range opts.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
	})

	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
	})

	if err := c.Visit(targetURL); err != nil {
		return result, err
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	result.Title = pageTitle(result.HTML)
	return result, nil
}

func bodySizeLabel(n int) string {
	if n <= 0 {
		return "unlimited"
	}
	return humanize.Bytes(uint64(n))
}

func (f *StaticFetcher) backoff(attempt int) time.Duration {
	return f.config.BackoffFactor * time.Duration(1<<(attempt-1))
}

// Close releases idle connections.
func (f *StaticFetcher) Close() error {
	f.transport.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryable reports whether err came from a fetch that could succeed later.
func IsRetryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.StatusCode == 0 || fe.StatusCode >= 500
}

package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds crawler configuration.
type Config struct {
	// Pages per source.
	MaxPages int `validate:"min=1"`
	// Stop a source at the first page without cards.
	StopOnEmpty bool
	// Stop a source at the first page that fails.
	StopOnError bool
	// Pause between pages.
	Delay time.Duration `validate:"gte=0"`

	// Concurrent fast-path detail fetches per page.
	Workers int `validate:"min=1,max=128"`
	// Re-render failed or incomplete details in the browser.
	Fallback bool

	// Wait for the first card on a listing page.
	CardTimeout time.Duration `validate:"gte=0"`
	// Wait for the detail heading on a fallback render.
	DetailTimeout time.Duration `validate:"gte=0"`
	// Pause after scrolling a listing page or after the detail heading shows.
	SettleDelay time.Duration `validate:"gte=0"`

	// Crawl sources whose output already exists.
	Overwrite bool
}

// DefaultConfig returns sensible crawler defaults.
func DefaultConfig() Config {
	return Config{
		MaxPages:      50,
		StopOnEmpty:   true,
		StopOnError:   true,
		Workers:       8,
		Fallback:      true,
		CardTimeout:   10 * time.Second,
		DetailTimeout: 10 * time.Second,
		SettleDelay:   time.Second,
	}
}

var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", e.Field(), e.Tag(), e.Param(), e.Value()))
	}
	return fmt.Errorf("invalid crawler config: %s", strings.Join(msgs, "; "))
}

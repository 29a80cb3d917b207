package dataflows

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RetryConfig controls backoff for flaky upstream data sources. This is the
// fetch layer's own resilience; the per-analyst deadline is enforced above it.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// WithRetry runs fn with exponential backoff until it succeeds or retries are
// exhausted.
func WithRetry(cfg RetryConfig, fn func() error) error {
	var err error
	delay := cfg.BaseDelay
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}
		time.Sleep(delay)
		if delay *= 2; delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxRetries+1, err)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// ValidateSymbol rejects obviously malformed ticker symbols before a fetch.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(strings.ToUpper(strings.TrimSpace(symbol))) {
		return fmt.Errorf("invalid symbol %q", symbol)
	}
	return nil
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

package dataflows

import (
	"errors"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, true)

	type quote struct {
		Symbol string
		Price  float64
	}
	params := map[string]string{"symbol": "AAPL"}

	var miss quote
	if cm.Get("yahoo", "quote", params, &miss) {
		t.Fatal("hit on empty cache")
	}

	if err := cm.Set("yahoo", "quote", params, quote{Symbol: "AAPL", Price: 182.5}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var hit quote
	if !cm.Get("yahoo", "quote", params, &hit) {
		t.Fatal("miss after Set")
	}
	if hit.Symbol != "AAPL" || hit.Price != 182.5 {
		t.Fatalf("cached value = %+v", hit)
	}

	var other quote
	if cm.Get("yahoo", "quote", map[string]string{"symbol": "MSFT"}, &other) {
		t.Fatal("different params hit the same entry")
	}
}

func TestCacheDisabled(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, false)

	if err := cm.Set("src", "m", "p", "value"); err != nil {
		t.Fatalf("Set on disabled cache errored: %v", err)
	}
	var out string
	if cm.Get("src", "m", "p", &out) {
		t.Fatal("disabled cache returned a hit")
	}
}

func TestCacheExpiry(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), -time.Second, true)

	if err := cm.Set("src", "m", "p", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	var out string
	if cm.Get("src", "m", "p", &out) {
		t.Fatal("expired entry served")
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := WithRetry(cfg, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	err := WithRetry(cfg, func() error {
		calls++
		return errors.New("down")
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestValidateSymbol(t *testing.T) {
	for _, ok := range []string{"AAPL", "700.HK", "BRK-B", "600519.SH", " msft "} {
		if err := ValidateSymbol(ok); err != nil {
			t.Fatalf("ValidateSymbol(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "TOO_LONG_SYMBOL", "AAPL$", "a b"} {
		if err := ValidateSymbol(bad); err == nil {
			t.Fatalf("ValidateSymbol(%q) accepted", bad)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Fatalf("NormalizeSymbol = %q", got)
	}
}

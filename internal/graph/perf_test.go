package graph

import (
	"errors"
	"testing"
	"time"

	"quantcrew/internal/models"
)

func TestBuildPerformanceRecord(t *testing.T) {
	start := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	finish := start.Add(750 * time.Millisecond)

	outcomes := []AgentOutcome{
		{Analyst: models.AnalystMarket, Status: OutcomeSuccess, Duration: 100 * time.Millisecond, Attempts: 1},
		{Analyst: models.AnalystFundamentals, Status: OutcomeTimeout, Duration: 300 * time.Millisecond, Attempts: 2},
		{Analyst: models.AnalystNews, Status: OutcomeError, Err: errors.New("boom"), Duration: 50 * time.Millisecond, Attempts: 3},
	}

	rec := BuildPerformanceRecord("AAPL", "2025-03-14", start, finish, outcomes)

	if rec.Symbol != "AAPL" || rec.TradeDate != "2025-03-14" {
		t.Fatalf("identity fields wrong: %+v", rec)
	}
	if rec.WallTime != 750*time.Millisecond {
		t.Fatalf("wall time = %s", rec.WallTime)
	}
	if rec.TotalCount != 3 || rec.SuccessCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/3", rec.SuccessCount, rec.TotalCount)
	}
	if got := rec.SuccessRate(); got < 0.33 || got > 0.34 {
		t.Fatalf("success rate = %f", got)
	}
	if len(rec.Timings) != 3 {
		t.Fatalf("timings = %d entries", len(rec.Timings))
	}
	if rec.Timings[0].Analyst != models.AnalystMarket || !rec.Timings[0].Success {
		t.Fatalf("first timing wrong: %+v", rec.Timings[0])
	}
	if rec.Timings[2].Error == "" {
		t.Fatal("errored timing lost its message")
	}
}

func TestSuccessRateEmptyRound(t *testing.T) {
	var rec PerformanceRecord
	if rec.SuccessRate() != 0 {
		t.Fatalf("empty round success rate = %f", rec.SuccessRate())
	}
}

func TestRecordPerformanceSwallowsSinkErrors(t *testing.T) {
	var called bool
	sink := PerfSinkFunc(func(rec PerformanceRecord) error {
		called = true
		return errors.New("disk full")
	})

	// Must not panic or propagate.
	recordPerformance(sink, PerformanceRecord{Symbol: "AAPL"})
	if !called {
		t.Fatal("sink was not invoked")
	}

	recordPerformance(nil, PerformanceRecord{Symbol: "AAPL"})
}

package models

import (
	"testing"
	"time"
)

func newState() *AnalysisState {
	return NewAnalysisState("NVDA", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "analyze", 1, 1)
}

func TestSnapshotIsolatesContributions(t *testing.T) {
	state := newState()
	state.SetReport(AnalystMarket, "original")

	snap := state.Snapshot()
	snap.SetReport(AnalystMarket, "changed in snapshot")
	snap.SetReport(AnalystNews, "new in snapshot")
	snap.CompanyOfInterest = "OTHER"
	snap.InvestmentDebateState.Count = 99

	if got := state.Report(AnalystMarket); got != "original" {
		t.Fatalf("snapshot write leaked into state: %q", got)
	}
	if state.Report(AnalystNews) != "" {
		t.Fatal("snapshot-only key appeared in state")
	}
	if state.CompanyOfInterest != "NVDA" {
		t.Fatalf("company mutated: %q", state.CompanyOfInterest)
	}
	if state.InvestmentDebateState.Count != 0 {
		t.Fatal("debate state shared between snapshot and original")
	}
}

func TestSnapshotCarriesCurrentValues(t *testing.T) {
	state := newState()
	state.SetReport(AnalystSocial, "sentiment neutral")
	state.TraderInvestmentPlan = "plan"

	snap := state.Snapshot()
	if snap.Report(AnalystSocial) != "sentiment neutral" {
		t.Fatal("snapshot missing existing contribution")
	}
	if snap.TraderInvestmentPlan != "plan" {
		t.Fatal("snapshot missing scalar field")
	}
	if snap.TradeDate != "2025-03-14" {
		t.Fatalf("trade date = %q", snap.TradeDate)
	}
}

func TestAbsentAndSucceededAreSorted(t *testing.T) {
	state := newState()
	state.MarkAbsent(AnalystSocial, "err")
	state.MarkAbsent(AnalystFundamentals, "err")
	state.SetReport(AnalystNews, "ok")
	state.SetReport(AnalystMarket, "ok")

	absent := state.AbsentAnalysts()
	if len(absent) != 2 || absent[0] != AnalystFundamentals || absent[1] != AnalystSocial {
		t.Fatalf("absent = %v", absent)
	}
	ok := state.SucceededAnalysts()
	if len(ok) != 2 || ok[0] != AnalystMarket || ok[1] != AnalystNews {
		t.Fatalf("succeeded = %v", ok)
	}
}

func TestParseAnalysts(t *testing.T) {
	kinds, err := ParseAnalysts([]string{"market", "news"})
	if err != nil {
		t.Fatalf("ParseAnalysts failed: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != AnalystMarket || kinds[1] != AnalystNews {
		t.Fatalf("kinds = %v", kinds)
	}

	if _, err := ParseAnalysts([]string{"market", "market"}); err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if _, err := ParseAnalysts([]string{"astrology"}); err == nil {
		t.Fatal("expected unknown kind rejection")
	}
}

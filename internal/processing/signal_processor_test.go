package processing

import (
	"testing"
	"time"

	"quantcrew/internal/models"
)

func TestProcessSignalExplicitProposal(t *testing.T) {
	sp := NewSignalProcessor()

	cases := map[string]string{
		"Great setup.\n\nFINAL TRANSACTION PROPOSAL: **BUY**":  "BUY",
		"Too risky.\nFINAL TRANSACTION PROPOSAL: SELL":         "SELL",
		"final transaction proposal: **hold** for now":         "HOLD",
		"FINAL TRANSACTION PROPOSAL:**SELL** with a tight stop": "SELL",
	}
	for text, want := range cases {
		if got := sp.ProcessSignal(text); got != want {
			t.Fatalf("ProcessSignal(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestProcessSignalKeywordFallback(t *testing.T) {
	sp := NewSignalProcessor()

	if got := sp.ProcessSignal("clearly bullish, undervalued with strong upside, buy the dip"); got != "BUY" {
		t.Fatalf("bullish text scored %s", got)
	}
	if got := sp.ProcessSignal("bearish tape, overvalued, time to exit and sell"); got != "SELL" {
		t.Fatalf("bearish text scored %s", got)
	}
	if got := sp.ProcessSignal(""); got != "HOLD" {
		t.Fatalf("empty text scored %s", got)
	}
}

func TestExtractDecision(t *testing.T) {
	sp := NewSignalProcessor()
	state := models.NewAnalysisState("AAPL", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "analyze", 1, 1)
	state.FinalTradeDecision = "Momentum intact, risk contained.\n\nFINAL TRANSACTION PROPOSAL: **BUY**"

	d := sp.ExtractDecision(state)
	if d.Symbol != "AAPL" || d.Date != "2025-03-14" {
		t.Fatalf("identity fields wrong: %+v", d)
	}
	if d.Action != "BUY" {
		t.Fatalf("action = %s", d.Action)
	}
	if d.Confidence != 0.9 {
		t.Fatalf("confidence = %f, explicit proposal should score high", d.Confidence)
	}
	if d.Reason != "Momentum intact, risk contained." {
		t.Fatalf("reason = %q", d.Reason)
	}
}

func TestExtractDecisionFallsBackToTraderPlan(t *testing.T) {
	sp := NewSignalProcessor()
	state := models.NewAnalysisState("AAPL", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "analyze", 1, 1)
	state.TraderInvestmentPlan = "FINAL TRANSACTION PROPOSAL: **SELL**"

	if d := sp.ExtractDecision(state); d.Action != "SELL" {
		t.Fatalf("action = %s, want SELL from trader plan", d.Action)
	}
}

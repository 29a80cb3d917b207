package models

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// AnalysisRequest is the immutable input for one analysis run.
type AnalysisRequest struct {
	Symbol    string        `json:"symbol"`
	TradeDate string        `json:"trade_date"`
	Analysts  []AnalystKind `json:"analysts"`

	Parallel       bool          `json:"parallel"`
	MaxWorkers     int           `json:"max_workers"`
	AnalystTimeout time.Duration `json:"analyst_timeout"`
	RetryCount     int           `json:"retry_count"`
}

// AnalystContribution is one analyst's entry in the merged state. Absent
// contributions are recorded explicitly so downstream stages can tell a failed
// analyst from an unselected one.
type AnalystContribution struct {
	Report string `json:"report"`
	Absent bool   `json:"absent"`
	Reason string `json:"reason,omitempty"`
}

type InvestDebateState struct {
	BullHistory   string `json:"bull_history"`
	BearHistory   string `json:"bear_history"`
	History       string `json:"history"`
	JudgeDecision string `json:"judge_decision"`
	Count         int    `json:"count"`
	MaxRounds     int    `json:"max_rounds"`
}

type RiskDebateState struct {
	RiskyHistory   string `json:"risky_history"`
	SafeHistory    string `json:"safe_history"`
	NeutralHistory string `json:"neutral_history"`
	History        string `json:"history"`
	JudgeDecision  string `json:"judge_decision"`
	LatestSpeaker  string `json:"latest_speaker"`
	Count          int    `json:"count"`
	MaxRounds      int    `json:"max_rounds"`
}

// AnalysisState is the shared state for one analysis run. During the fan-out
// round every task reads a Snapshot; the merger is the only writer, and it runs
// strictly after the round completes.
type AnalysisState struct {
	Messages          []*schema.Message `json:"messages"`
	CompanyOfInterest string            `json:"company_of_interest"`
	TradeDate         string            `json:"trade_date"`
	MarketData        []*MarketData     `json:"market_data"`

	Contributions map[AnalystKind]AnalystContribution `json:"contributions"`

	InvestmentDebateState *InvestDebateState `json:"investment_debate_state"`
	RiskDebateState       *RiskDebateState   `json:"risk_debate_state"`
	TraderInvestmentPlan  string             `json:"trader_investment_plan"`
	InvestmentPlan        string             `json:"investment_plan"`
	FinalTradeDecision    string             `json:"final_trade_decision"`
	Decision              *TradingDecision   `json:"decision"`
	Goto                  string             `json:"goto"`
}

func NewAnalysisState(symbol string, date time.Time, userPrompt string, debateRounds, riskRounds int) *AnalysisState {
	return &AnalysisState{
		Messages: []*schema.Message{
			schema.UserMessage(userPrompt),
		},
		CompanyOfInterest: symbol,
		TradeDate:         date.Format("2006-01-02"),
		MarketData:        make([]*MarketData, 0),
		Contributions:     make(map[AnalystKind]AnalystContribution),
		InvestmentDebateState: &InvestDebateState{
			MaxRounds: debateRounds,
		},
		RiskDebateState: &RiskDebateState{
			MaxRounds: riskRounds,
		},
	}
}

// Snapshot returns a copy safe for concurrent reads while the original awaits
// the round's merge. Message and market-data values are shared: both are
// treated as immutable once attached to the state.
func (s *AnalysisState) Snapshot() *AnalysisState {
	cp := *s

	cp.Messages = append([]*schema.Message(nil), s.Messages...)
	cp.MarketData = append([]*MarketData(nil), s.MarketData...)

	cp.Contributions = make(map[AnalystKind]AnalystContribution, len(s.Contributions))
	for k, v := range s.Contributions {
		cp.Contributions[k] = v
	}

	if s.InvestmentDebateState != nil {
		ids := *s.InvestmentDebateState
		cp.InvestmentDebateState = &ids
	}
	if s.RiskDebateState != nil {
		rds := *s.RiskDebateState
		cp.RiskDebateState = &rds
	}
	if s.Decision != nil {
		d := *s.Decision
		cp.Decision = &d
	}

	return &cp
}

// SetReport records a successful analyst contribution.
func (s *AnalysisState) SetReport(kind AnalystKind, report string) {
	s.Contributions[kind] = AnalystContribution{Report: report}
}

// MarkAbsent records that an analyst produced no contribution this run.
func (s *AnalysisState) MarkAbsent(kind AnalystKind, reason string) {
	s.Contributions[kind] = AnalystContribution{Absent: true, Reason: reason}
}

// Report returns the report text for kind, or "" when absent or unselected.
func (s *AnalysisState) Report(kind AnalystKind) string {
	return s.Contributions[kind].Report
}

// AbsentAnalysts lists analysts that failed this run, in stable order.
func (s *AnalysisState) AbsentAnalysts() []AnalystKind {
	var absent []AnalystKind
	for k, c := range s.Contributions {
		if c.Absent {
			absent = append(absent, k)
		}
	}
	SortAnalysts(absent)
	return absent
}

// SucceededAnalysts lists analysts that contributed a report, in stable order.
func (s *AnalysisState) SucceededAnalysts() []AnalystKind {
	var ok []AnalystKind
	for k, c := range s.Contributions {
		if !c.Absent {
			ok = append(ok, k)
		}
	}
	SortAnalysts(ok)
	return ok
}

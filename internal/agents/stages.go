package agents

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"quantcrew/internal/models"
)

// AnalystSummary renders the merged analyst contributions for downstream
// prompts. Absent analysts are named explicitly so the debate works from an
// honest picture of what the analysis round produced.
func AnalystSummary(state *models.AnalysisState) string {
	var b strings.Builder
	b.WriteString("Analyst team reports:\n")
	for _, kind := range state.SucceededAnalysts() {
		fmt.Fprintf(&b, "\n## %s\n%s\n", kind.DisplayName(), state.Report(kind))
	}
	for _, kind := range state.AbsentAnalysts() {
		c := state.Contributions[kind]
		fmt.Fprintf(&b, "\n## %s\nNO REPORT AVAILABLE (%s). Do not invent this analyst's findings.\n",
			kind.DisplayName(), c.Reason)
	}
	return b.String()
}

func stageContext(state *models.AnalysisState) string {
	return fmt.Sprintf("Company: %s\nTrade date: %s\n\n%s",
		state.CompanyOfInterest, state.TradeDate, AnalystSummary(state))
}

// Bull/bear research debate

func BullMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are a bull researcher arguing the case FOR investing in the company.
Build on the analyst reports and rebut the bear's latest points. Be specific.`
	user := stageContext(state) + "\n\nDebate so far:\n" + state.InvestmentDebateState.History
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(user)}
}

func ApplyBull(state *models.AnalysisState, argument string) {
	applyDebate(state, "Bull Analyst", argument, func(ds *models.InvestDebateState, labeled string) {
		ds.BullHistory = appendLine(ds.BullHistory, labeled)
	})
}

func BearMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are a bear researcher arguing the case AGAINST investing in the company.
Build on the analyst reports and rebut the bull's latest points. Be specific.`
	user := stageContext(state) + "\n\nDebate so far:\n" + state.InvestmentDebateState.History
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(user)}
}

func ApplyBear(state *models.AnalysisState, argument string) {
	applyDebate(state, "Bear Analyst", argument, func(ds *models.InvestDebateState, labeled string) {
		ds.BearHistory = appendLine(ds.BearHistory, labeled)
	})
}

func applyDebate(state *models.AnalysisState, speaker, argument string, record func(*models.InvestDebateState, string)) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		argument = "(no argument provided)"
	}
	labeled := speaker + ": " + argument
	ds := state.InvestmentDebateState
	ds.History = appendLine(ds.History, labeled)
	ds.Count++
	record(ds, labeled)
}

// Research manager verdict

func ResearchManagerMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are the research manager. Weigh the bull and bear arguments and commit
to an investment stance with a concrete plan. Avoid defaulting to a hedge.`
	user := stageContext(state) + "\n\nFull debate:\n" + state.InvestmentDebateState.History
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(user)}
}

func ApplyResearchManager(state *models.AnalysisState, verdict string) {
	state.InvestmentDebateState.JudgeDecision = strings.TrimSpace(verdict)
	state.InvestmentPlan = state.InvestmentDebateState.JudgeDecision
}

// Trader plan

func TraderMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are the trader. Turn the research manager's stance into an actionable
trading plan: direction, sizing considerations, entry and exit conditions.
End with FINAL TRANSACTION PROPOSAL: **BUY**, **SELL**, or **HOLD**.`
	user := stageContext(state) + "\n\nInvestment plan:\n" + state.InvestmentPlan
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(user)}
}

func ApplyTrader(state *models.AnalysisState, plan string) {
	state.TraderInvestmentPlan = strings.TrimSpace(plan)
}

// Risk debate and judgement

func riskContext(state *models.AnalysisState) string {
	return stageContext(state) +
		"\n\nTrader's plan:\n" + state.TraderInvestmentPlan +
		"\n\nRisk discussion so far:\n" + state.RiskDebateState.History
}

func RiskyMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are the aggressive risk analyst. Argue for the upside of the trader's
plan and where caution would cost returns.`
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(riskContext(state))}
}

func SafeMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are the conservative risk analyst. Argue where the trader's plan takes
on too much risk and how to protect capital.`
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(riskContext(state))}
}

func NeutralMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are the neutral risk analyst. Weigh both prior risk arguments and
point out what each side overstates.`
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(riskContext(state))}
}

// ApplyRiskSpeaker records one risk-debate statement under the speaker's node
// name.
func ApplyRiskSpeaker(state *models.AnalysisState, speaker, label, argument string) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		argument = "(no argument provided)"
	}
	labeled := label + ": " + argument
	rs := state.RiskDebateState
	rs.History = appendLine(rs.History, labeled)
	rs.LatestSpeaker = speaker
	rs.Count++
	switch label {
	case "Risky Analyst":
		rs.RiskyHistory = appendLine(rs.RiskyHistory, labeled)
	case "Safe Analyst":
		rs.SafeHistory = appendLine(rs.SafeHistory, labeled)
	case "Neutral Analyst":
		rs.NeutralHistory = appendLine(rs.NeutralHistory, labeled)
	}
}

func RiskJudgeMessages(state *models.AnalysisState) []*schema.Message {
	system := `You are the risk judge making the final call on the trader's plan.
Issue the final trade decision and justify it.
End with FINAL TRANSACTION PROPOSAL: **BUY**, **SELL**, or **HOLD**.`
	return []*schema.Message{schema.SystemMessage(system), schema.UserMessage(riskContext(state))}
}

func ApplyRiskJudge(state *models.AnalysisState, decision string) {
	state.RiskDebateState.JudgeDecision = strings.TrimSpace(decision)
	state.FinalTradeDecision = state.RiskDebateState.JudgeDecision
}

func appendLine(history, line string) string {
	return strings.TrimSpace(history + "\n" + line)
}

package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"quantcrew/internal/graph"
	"quantcrew/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			MarginTop(1)

	bodyStyle = lipgloss.NewStyle().
			Width(78).
			PaddingLeft(2)

	buyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	sellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	holdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	absentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))
)

// Results renders a finished run to the terminal.
type Results struct {
	symbol string
	date   string
}

func NewResults(symbol, date string) *Results {
	return &Results{symbol: symbol, date: date}
}

// Show prints the full analysis: reports, debates, the decision, and the
// round's performance summary when one was recorded.
func (r *Results) Show(state *models.AnalysisState, decision *models.TradingDecision, perf *graph.PerformanceRecord) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Analysis results: %s on %s", r.symbol, r.date)))

	r.showContributions(state)
	r.showDebates(state)
	r.showDecision(decision, state)
	if perf != nil {
		r.showPerformance(perf)
	}
	fmt.Println()
}

func (r *Results) showContributions(state *models.AnalysisState) {
	fmt.Println(sectionStyle.Render("Analyst reports"))
	for _, kind := range state.SucceededAnalysts() {
		fmt.Println(bodyStyle.Render(fmt.Sprintf("%s:\n%s", kind.DisplayName(), state.Report(kind))))
	}
	for _, kind := range state.AbsentAnalysts() {
		c := state.Contributions[kind]
		fmt.Println(absentStyle.Render(fmt.Sprintf("  %s: no report (%s)", kind.DisplayName(), c.Reason)))
	}
}

func (r *Results) showDebates(state *models.AnalysisState) {
	if ds := state.InvestmentDebateState; ds != nil && ds.History != "" {
		fmt.Println(sectionStyle.Render("Research debate"))
		fmt.Println(bodyStyle.Render(ds.History))
		if ds.JudgeDecision != "" {
			fmt.Println(sectionStyle.Render("Research manager verdict"))
			fmt.Println(bodyStyle.Render(ds.JudgeDecision))
		}
	}
	if state.TraderInvestmentPlan != "" {
		fmt.Println(sectionStyle.Render("Trader plan"))
		fmt.Println(bodyStyle.Render(state.TraderInvestmentPlan))
	}
	if rs := state.RiskDebateState; rs != nil && rs.History != "" {
		fmt.Println(sectionStyle.Render("Risk discussion"))
		fmt.Println(bodyStyle.Render(rs.History))
	}
}

func (r *Results) showDecision(decision *models.TradingDecision, state *models.AnalysisState) {
	fmt.Println(sectionStyle.Render("Final decision"))
	if decision == nil {
		fmt.Println(bodyStyle.Render("(no decision produced)"))
		return
	}
	fmt.Println(bodyStyle.Render(fmt.Sprintf("%s  confidence %.0f%%",
		actionStyle(decision.Action).Render(decision.Action), decision.Confidence*100)))
	if state.FinalTradeDecision != "" {
		fmt.Println(bodyStyle.Render(state.FinalTradeDecision))
	}
}

func (r *Results) showPerformance(rec *graph.PerformanceRecord) {
	fmt.Println(sectionStyle.Render("Analyst round performance"))
	var b strings.Builder
	fmt.Fprintf(&b, "wall time %s, %d/%d succeeded\n", rec.WallTime.Round(time.Millisecond), rec.SuccessCount, rec.TotalCount)
	for _, t := range rec.Timings {
		status := "ok"
		if !t.Success {
			status = "failed"
		}
		fmt.Fprintf(&b, "%-14s %-7s %8s  attempts=%d\n", t.Analyst, status, t.Duration.Round(time.Millisecond), t.Attempts)
	}
	fmt.Println(bodyStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func actionStyle(action string) lipgloss.Style {
	switch action {
	case "BUY":
		return buyStyle
	case "SELL":
		return sellStyle
	default:
		return holdStyle
	}
}

// Error prints a styled failure message.
func Error(context string, err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("error in %s: %v", context, err)))
}

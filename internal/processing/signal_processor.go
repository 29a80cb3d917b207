package processing

import (
	"regexp"
	"strings"

	"quantcrew/internal/models"
)

// SignalProcessor distills a BUY/SELL/HOLD action from the risk judge's final
// decision text. It prefers the explicit proposal marker the prompts ask for
// and falls back to keyword scoring over the full text.
type SignalProcessor struct {
	proposal     *regexp.Regexp
	buyPatterns  []*regexp.Regexp
	sellPatterns []*regexp.Regexp
	holdPatterns []*regexp.Regexp
}

func NewSignalProcessor() *SignalProcessor {
	return &SignalProcessor{
		proposal: regexp.MustCompile(`(?i)FINAL TRANSACTION PROPOSAL:?\s*\**\s*(BUY|SELL|HOLD)`),
		buyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(buy|long|bullish|accumulate)\b`),
			regexp.MustCompile(`(?i)\b(undervalued|upside|growth potential)\b`),
		},
		sellPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sell|short|bearish|exit|divest)\b`),
			regexp.MustCompile(`(?i)\b(overvalued|downside|deteriorating)\b`),
		},
		holdPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hold|maintain|neutral|wait)\b`),
		},
	}
}

// ProcessSignal maps decision text to an action. Empty or unreadable text
// defaults to HOLD.
func (sp *SignalProcessor) ProcessSignal(text string) string {
	if m := sp.proposal.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}

	buy := countMatches(sp.buyPatterns, text)
	sell := countMatches(sp.sellPatterns, text)
	hold := countMatches(sp.holdPatterns, text)

	switch {
	case buy > sell && buy > hold:
		return "BUY"
	case sell > buy && sell > hold:
		return "SELL"
	default:
		return "HOLD"
	}
}

// ExtractDecision builds the structured decision from a finished run's state.
func (sp *SignalProcessor) ExtractDecision(state *models.AnalysisState) *models.TradingDecision {
	text := state.FinalTradeDecision
	if text == "" {
		text = state.TraderInvestmentPlan
	}
	return &models.TradingDecision{
		Symbol:     state.CompanyOfInterest,
		Date:       state.TradeDate,
		Action:     sp.ProcessSignal(text),
		Reason:     firstParagraph(text),
		Confidence: sp.confidence(text),
	}
}

// confidence is a rough score: an explicit proposal marker reads as decisive,
// keyword-only extraction less so.
func (sp *SignalProcessor) confidence(text string) float64 {
	if text == "" {
		return 0
	}
	if sp.proposal.MatchString(text) {
		return 0.9
	}
	return 0.5
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllString(text, -1))
	}
	return n
}

func firstParagraph(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "\n\n"); idx > 0 {
		return text[:idx]
	}
	return text
}

package graph

import (
	"quantcrew/consts"
	"quantcrew/internal/models"
)

// ConditionalLogic decides how the debate cycles advance.
type ConditionalLogic struct {
	MaxDebateRounds      int
	MaxRiskDiscussRounds int
}

func NewConditionalLogic(debateRounds, riskRounds int) *ConditionalLogic {
	if debateRounds < 1 {
		debateRounds = 1
	}
	if riskRounds < 1 {
		riskRounds = 1
	}
	return &ConditionalLogic{
		MaxDebateRounds:      debateRounds,
		MaxRiskDiscussRounds: riskRounds,
	}
}

// ShouldContinueDebate reports whether the bull/bear exchange has rounds left.
// One round is a bull statement plus a bear reply.
func (cl *ConditionalLogic) ShouldContinueDebate(state *models.AnalysisState) bool {
	return state.InvestmentDebateState.Count < 2*cl.MaxDebateRounds
}

// NextDebateSpeaker alternates bull and bear until the debate is exhausted,
// then hands off to the research manager.
func (cl *ConditionalLogic) NextDebateSpeaker(state *models.AnalysisState) string {
	if !cl.ShouldContinueDebate(state) {
		return consts.ResearchManager
	}
	if state.InvestmentDebateState.Count%2 == 0 {
		return consts.BullResearcher
	}
	return consts.BearResearcher
}

// ShouldContinueRiskDiscussion reports whether the three-way risk exchange has
// rounds left. One round is risky, safe, and neutral each speaking once.
func (cl *ConditionalLogic) ShouldContinueRiskDiscussion(state *models.AnalysisState) bool {
	return state.RiskDebateState.Count < 3*cl.MaxRiskDiscussRounds
}

// NextRiskSpeaker rotates risky -> safe -> neutral until the discussion is
// exhausted, then hands off to the risk judge.
func (cl *ConditionalLogic) NextRiskSpeaker(state *models.AnalysisState) string {
	if !cl.ShouldContinueRiskDiscussion(state) {
		return consts.RiskJudge
	}
	switch state.RiskDebateState.LatestSpeaker {
	case consts.RiskyAnalyst:
		return consts.SafeAnalyst
	case consts.SafeAnalyst:
		return consts.NeutralAnalyst
	default:
		return consts.RiskyAnalyst
	}
}

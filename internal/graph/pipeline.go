package graph

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"quantcrew/consts"
	"quantcrew/internal/agents"
	"quantcrew/internal/models"
)

// DecisionPipeline runs the sequential stages that follow the analyst round:
// bull/bear debate, research manager verdict, trader plan, risk discussion,
// and the final risk judgement. Stages run strictly one at a time; only the
// analyst round ahead of the pipeline is concurrent.
type DecisionPipeline struct {
	runnable compose.Runnable[*models.AnalysisState, *models.AnalysisState]
}

type stage struct {
	build func(*models.AnalysisState) []*schema.Message
	apply func(*models.AnalysisState, string)
}

// NewDecisionPipeline compiles the staged debate graph. Cycles (bull/bear and
// the three-way risk rotation) are expressed as branches driven by the
// conditional logic, with AnyPredecessor triggering so nodes re-fire on each
// pass.
func NewDecisionPipeline(ctx context.Context, chatModel model.BaseChatModel, logic *ConditionalLogic) (*DecisionPipeline, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("decision pipeline requires a chat model")
	}
	if logic == nil {
		logic = NewConditionalLogic(1, 1)
	}

	stages := map[string]stage{
		consts.BullResearcher:  {build: agents.BullMessages, apply: agents.ApplyBull},
		consts.BearResearcher:  {build: agents.BearMessages, apply: agents.ApplyBear},
		consts.ResearchManager: {build: agents.ResearchManagerMessages, apply: agents.ApplyResearchManager},
		consts.Trader:          {build: agents.TraderMessages, apply: agents.ApplyTrader},
		consts.RiskyAnalyst: {build: agents.RiskyMessages, apply: func(s *models.AnalysisState, out string) {
			agents.ApplyRiskSpeaker(s, consts.RiskyAnalyst, "Risky Analyst", out)
		}},
		consts.SafeAnalyst: {build: agents.SafeMessages, apply: func(s *models.AnalysisState, out string) {
			agents.ApplyRiskSpeaker(s, consts.SafeAnalyst, "Safe Analyst", out)
		}},
		consts.NeutralAnalyst: {build: agents.NeutralMessages, apply: func(s *models.AnalysisState, out string) {
			agents.ApplyRiskSpeaker(s, consts.NeutralAnalyst, "Neutral Analyst", out)
		}},
		consts.RiskJudge: {build: agents.RiskJudgeMessages, apply: agents.ApplyRiskJudge},
	}

	g := compose.NewGraph[*models.AnalysisState, *models.AnalysisState]()

	for name, st := range stages {
		if err := g.AddLambdaNode(name, compose.InvokableLambda(stageLambda(name, chatModel, st)), compose.WithNodeName(name)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
	}

	debateHandOff := func(ctx context.Context, state *models.AnalysisState) (string, error) {
		return logic.NextDebateSpeaker(state), nil
	}
	riskHandOff := func(ctx context.Context, state *models.AnalysisState) (string, error) {
		return logic.NextRiskSpeaker(state), nil
	}

	debateOutMap := map[string]bool{
		consts.BullResearcher:  true,
		consts.BearResearcher:  true,
		consts.ResearchManager: true,
	}
	riskOutMap := map[string]bool{
		consts.RiskyAnalyst:   true,
		consts.SafeAnalyst:    true,
		consts.NeutralAnalyst: true,
		consts.RiskJudge:      true,
	}

	wiring := []error{
		g.AddEdge(compose.START, consts.BullResearcher),
		g.AddBranch(consts.BullResearcher, compose.NewGraphBranch(debateHandOff, debateOutMap)),
		g.AddBranch(consts.BearResearcher, compose.NewGraphBranch(debateHandOff, debateOutMap)),
		g.AddEdge(consts.ResearchManager, consts.Trader),
		g.AddEdge(consts.Trader, consts.RiskyAnalyst),
		g.AddBranch(consts.RiskyAnalyst, compose.NewGraphBranch(riskHandOff, riskOutMap)),
		g.AddBranch(consts.SafeAnalyst, compose.NewGraphBranch(riskHandOff, riskOutMap)),
		g.AddBranch(consts.NeutralAnalyst, compose.NewGraphBranch(riskHandOff, riskOutMap)),
		g.AddEdge(consts.RiskJudge, compose.END),
	}
	for _, err := range wiring {
		if err != nil {
			return nil, fmt.Errorf("wire decision pipeline: %w", err)
		}
	}

	// The debate cycles make this graph cyclic; cap the run so a broken
	// hand-off cannot spin forever.
	runnable, err := g.Compile(ctx,
		compose.WithGraphName("quantcrew-decision-pipeline"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(200),
	)
	if err != nil {
		return nil, fmt.Errorf("compile decision pipeline: %w", err)
	}
	return &DecisionPipeline{runnable: runnable}, nil
}

// Run drives the merged state through the staged debate and returns it with
// the final trade decision populated.
func (p *DecisionPipeline) Run(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
	result, err := p.runnable.Invoke(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("decision pipeline: %w", err)
	}
	return result, nil
}

func stageLambda(name string, chatModel model.BaseChatModel, st stage) func(context.Context, *models.AnalysisState) (*models.AnalysisState, error) {
	return func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		resp, err := chatModel.Generate(ctx, st.build(state))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		content := strings.TrimSpace(resp.Content)
		log.Printf("[Pipeline] %s produced %d chars", name, len(content))
		st.apply(state, content)
		state.Goto = name
		return state, nil
	}
}

package graph

import (
	"context"
	"fmt"
	"log"
	"time"

	"quantcrew/internal/config"
	"quantcrew/internal/models"
	"quantcrew/internal/processing"
)

// TradingGraph ties the run together: the analyst fan-out round, the merge
// into shared state, performance recording, and the staged decision pipeline.
type TradingGraph struct {
	cfg      *config.Config
	registry Registry
	pipeline *DecisionPipeline
	signals  *processing.SignalProcessor
	perfSink PerfSink
}

// NewTradingGraph assembles a graph from an already-built registry and
// pipeline.
func NewTradingGraph(cfg *config.Config, registry Registry, pipeline *DecisionPipeline, perfSink PerfSink) *TradingGraph {
	return &TradingGraph{
		cfg:      cfg,
		registry: registry,
		pipeline: pipeline,
		signals:  processing.NewSignalProcessor(),
		perfSink: perfSink,
	}
}

// buildRequest freezes the run's inputs. Disabled parallelism degrades to a
// single worker through the same executor.
func (g *TradingGraph) buildRequest(symbol, date string) (models.AnalysisRequest, error) {
	analysts, err := models.ParseAnalysts(g.cfg.SelectedAnalysts)
	if err != nil {
		return models.AnalysisRequest{}, err
	}
	workers := g.cfg.MaxParallelWorkers
	if !g.cfg.ParallelAnalysts {
		workers = 1
	}
	return models.AnalysisRequest{
		Symbol:         symbol,
		TradeDate:      date,
		Analysts:       analysts,
		Parallel:       g.cfg.ParallelAnalysts,
		MaxWorkers:     workers,
		AnalystTimeout: g.cfg.AnalystTimeout,
		RetryCount:     g.cfg.AnalystRetries,
	}, nil
}

// Propagate runs one full analysis for symbol on date (YYYY-MM-DD) and
// returns the final state and the extracted trading decision.
func (g *TradingGraph) Propagate(ctx context.Context, symbol, date string) (*models.AnalysisState, *models.TradingDecision, error) {
	parsedDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trade date %q: %w", date, err)
	}

	req, err := g.buildRequest(symbol, date)
	if err != nil {
		return nil, nil, err
	}

	userPrompt := fmt.Sprintf("Analyze trading opportunities for %s on %s", symbol, date)
	state := models.NewAnalysisState(symbol, parsedDate, userPrompt, g.cfg.MaxDebateRounds, g.cfg.MaxRiskDiscussRounds)

	log.Printf("[TradingGraph] run started: %s %s analysts=%v parallel=%t workers=%d",
		symbol, date, req.Analysts, req.Parallel, req.MaxWorkers)

	executor := NewParallelExecutor(req.MaxWorkers, req.AnalystTimeout, req.RetryCount)
	startedAt := time.Now()
	outcomes, err := executor.ExecuteRound(ctx, g.registry, req.Analysts, state)
	if err != nil {
		return nil, nil, fmt.Errorf("analyst round: %w", err)
	}
	finishedAt := time.Now()

	if err := MergeOutcomes(state, outcomes); err != nil {
		return nil, nil, fmt.Errorf("merge analyst outcomes: %w", err)
	}

	rec := BuildPerformanceRecord(symbol, state.TradeDate, startedAt, finishedAt, outcomes)
	recordPerformance(g.perfSink, rec)
	log.Printf("[TradingGraph] analyst round done in %s: %d/%d succeeded",
		rec.WallTime, rec.SuccessCount, rec.TotalCount)

	if rec.SuccessCount == 0 {
		return nil, nil, fmt.Errorf("all %d analysts failed, nothing to deliberate on", rec.TotalCount)
	}

	state, err = g.pipeline.Run(ctx, state)
	if err != nil {
		return nil, nil, err
	}

	state.Decision = g.signals.ExtractDecision(state)
	log.Printf("[TradingGraph] final decision for %s: %s", symbol, state.Decision.Action)
	return state, state.Decision, nil
}

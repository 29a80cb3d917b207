package trading

import (
	"context"
	"fmt"
	"log"
	"time"

	"quantcrew/internal/agents"
	"quantcrew/internal/config"
	"quantcrew/internal/dataflows"
	"quantcrew/internal/display"
	"quantcrew/internal/graph"
	"quantcrew/internal/llm"
	"quantcrew/internal/models"
	"quantcrew/internal/storage"
)

// Session wires one analysis run end to end: config, data sources, model,
// analyst registry, graph, and persistence.
type Session struct {
	cfg    *config.Config
	symbol string
	date   string

	flows *dataflows.Service
	store *storage.Store
	graph *graph.TradingGraph

	lastPerf *graph.PerformanceRecord
}

func NewSession(cfg *config.Config, symbol, date string) *Session {
	return &Session{cfg: cfg, symbol: symbol, date: date}
}

// Execute runs the full analysis and renders the result. The returned error
// covers setup and substrate failures; individual analyst failures are
// absorbed into the run.
func (s *Session) Execute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	defer s.close()

	if _, perr := time.Parse("2006-01-02", s.date); perr != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s.date, perr)
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	if err := s.setup(ctx); err != nil {
		return err
	}

	state, decision, err := s.graph.Propagate(ctx, s.symbol, s.date)
	if err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.SaveRun(state, decision); err != nil {
			log.Printf("[Session] save run failed: %v", err)
		}
	}

	display.NewResults(s.symbol, s.date).Show(state, decision, s.lastPerf)
	return nil
}

func (s *Session) setup(ctx context.Context) error {
	s.flows = dataflows.NewService(s.cfg)

	chatModel, err := llm.NewChatModel(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}

	store, err := storage.NewStore(s.cfg.DatabasePath)
	if err != nil {
		log.Printf("[Session] storage unavailable, continuing without persistence: %v", err)
	} else {
		s.store = store
	}

	analyst := agents.NewAnalystAgent(chatModel, s.flows)
	registry := graph.Registry{}
	for _, kind := range models.AllAnalysts() {
		registry[kind] = analyst
	}

	logic := graph.NewConditionalLogic(s.cfg.MaxDebateRounds, s.cfg.MaxRiskDiscussRounds)
	pipeline, err := graph.NewDecisionPipeline(ctx, chatModel, logic)
	if err != nil {
		return err
	}

	// Capture the round's record for display on top of persisting it.
	sink := graph.PerfSinkFunc(func(rec graph.PerformanceRecord) error {
		s.lastPerf = &rec
		if s.store != nil {
			return s.store.Record(rec)
		}
		return nil
	})

	s.graph = graph.NewTradingGraph(s.cfg, registry, pipeline, sink)
	return nil
}

func (s *Session) close() {
	if s.flows != nil {
		s.flows.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"quantcrew/internal/graph"
	"quantcrew/internal/models"
	"quantcrew/pkg/sqlite"
)

// Store persists finished runs and their fan-out performance records. It
// doubles as the graph's performance sink.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence REAL NOT NULL,
			reason TEXT,
			final_decision TEXT,
			contributions_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS perf_rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			wall_time_ms INTEGER NOT NULL,
			success_count INTEGER NOT NULL,
			total_count INTEGER NOT NULL,
			timings_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_date ON runs(symbol, trade_date);`,
		`CREATE INDEX IF NOT EXISTS idx_perf_symbol_date ON perf_rounds(symbol, trade_date);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes a finished run and its decision.
func (s *Store) SaveRun(state *models.AnalysisState, decision *models.TradingDecision) error {
	if state == nil || decision == nil {
		return fmt.Errorf("run and decision are required")
	}
	contributions, err := json.Marshal(state.Contributions)
	if err != nil {
		return fmt.Errorf("marshal contributions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (symbol, trade_date, action, confidence, reason, final_decision, contributions_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		decision.Symbol, decision.Date, decision.Action, decision.Confidence,
		decision.Reason, state.FinalTradeDecision, string(contributions),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Record implements graph.PerfSink.
func (s *Store) Record(rec graph.PerformanceRecord) error {
	timings, err := json.Marshal(rec.Timings)
	if err != nil {
		return fmt.Errorf("marshal timings: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO perf_rounds (symbol, trade_date, started_at, wall_time_ms, success_count, total_count, timings_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.TradeDate, rec.StartedAt,
		rec.WallTime.Milliseconds(), rec.SuccessCount, rec.TotalCount, string(timings),
	)
	if err != nil {
		return fmt.Errorf("save performance record: %w", err)
	}
	return nil
}

// RunSummary is one row of run history for display.
type RunSummary struct {
	ID         int64
	Symbol     string
	TradeDate  string
	Action     string
	Confidence float64
	CreatedAt  time.Time
}

// RecentRuns returns the latest limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, symbol, trade_date, action, confidence, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Symbol, &r.TradeDate, &r.Action, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PerfHistory returns the stored performance records for a symbol, newest
// first.
func (s *Store) PerfHistory(symbol string, limit int) ([]graph.PerformanceRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT symbol, trade_date, started_at, wall_time_ms, success_count, total_count, timings_json
		 FROM perf_rounds WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query performance records: %w", err)
	}
	defer rows.Close()

	var out []graph.PerformanceRecord
	for rows.Next() {
		var (
			rec     graph.PerformanceRecord
			wallMs  int64
			timings string
		)
		if err := rows.Scan(&rec.Symbol, &rec.TradeDate, &rec.StartedAt, &wallMs, &rec.SuccessCount, &rec.TotalCount, &timings); err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		rec.WallTime = time.Duration(wallMs) * time.Millisecond
		rec.FinishedAt = rec.StartedAt.Add(rec.WallTime)
		if err := json.Unmarshal([]byte(timings), &rec.Timings); err != nil {
			return nil, fmt.Errorf("decode timings: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

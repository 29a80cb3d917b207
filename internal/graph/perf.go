package graph

import (
	"log"
	"time"

	"quantcrew/internal/models"
)

// AnalystTiming is one analyst's share of a PerformanceRecord.
type AnalystTiming struct {
	Analyst  models.AnalystKind `json:"analyst"`
	Duration time.Duration      `json:"duration"`
	Success  bool               `json:"success"`
	Attempts int                `json:"attempts"`
	Error    string             `json:"error,omitempty"`
}

// PerformanceRecord aggregates one fan-out round for observability. It is a
// plain value handed to a caller-supplied sink; nothing on the analysis path
// depends on it.
type PerformanceRecord struct {
	Symbol       string          `json:"symbol"`
	TradeDate    string          `json:"trade_date"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	WallTime     time.Duration   `json:"wall_time"`
	Timings      []AnalystTiming `json:"timings"`
	SuccessCount int             `json:"success_count"`
	TotalCount   int             `json:"total_count"`
}

// SuccessRate is SuccessCount/TotalCount, 0 for an empty round.
func (r PerformanceRecord) SuccessRate() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalCount)
}

// PerfSink receives one record per round. Implementations must tolerate being
// called once per run; errors are logged and swallowed by the caller.
type PerfSink interface {
	Record(record PerformanceRecord) error
}

// PerfSinkFunc adapts a function to the PerfSink interface.
type PerfSinkFunc func(record PerformanceRecord) error

func (f PerfSinkFunc) Record(record PerformanceRecord) error { return f(record) }

// BuildPerformanceRecord assembles the record for one finished round. Timings
// follow request order.
func BuildPerformanceRecord(symbol, tradeDate string, startedAt, finishedAt time.Time, outcomes []AgentOutcome) PerformanceRecord {
	rec := PerformanceRecord{
		Symbol:     symbol,
		TradeDate:  tradeDate,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		WallTime:   finishedAt.Sub(startedAt),
		Timings:    make([]AnalystTiming, 0, len(outcomes)),
		TotalCount: len(outcomes),
	}
	for _, out := range outcomes {
		t := AnalystTiming{
			Analyst:  out.Analyst,
			Duration: out.Duration,
			Success:  !out.Failed(),
			Attempts: out.Attempts,
		}
		if out.Err != nil {
			t.Error = out.Err.Error()
		}
		if t.Success {
			rec.SuccessCount++
		}
		rec.Timings = append(rec.Timings, t)
	}
	return rec
}

// recordPerformance hands the record to the sink. Recording is off the
// critical path: a sink failure is logged, never propagated.
func recordPerformance(sink PerfSink, rec PerformanceRecord) {
	if sink == nil {
		return
	}
	if err := sink.Record(rec); err != nil {
		log.Printf("[PerfRecorder] sink rejected record for %s: %v", rec.Symbol, err)
	}
}

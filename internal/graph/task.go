package graph

import (
	"context"
	"fmt"
	"time"

	"quantcrew/internal/models"
)

// Invoker is the capability behind one analyst: a single blocking call that
// turns a read-only state view into a report. Retry and deadline handling are
// layered on top, never inside.
type Invoker interface {
	Invoke(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
	return f(ctx, kind, state)
}

// Registry maps each analyst kind to its invoker. The table is built once at
// graph construction; a selected analyst without an entry is a wiring bug and
// fails the whole round.
type Registry map[models.AnalystKind]Invoker

func (r Registry) lookup(kind models.AnalystKind) (Invoker, error) {
	inv, ok := r[kind]
	if !ok || inv == nil {
		return nil, fmt.Errorf("no invoker registered for analyst %q", kind)
	}
	return inv, nil
}

// AgentTask is one unit of fan-out work: an analyst, its invoker, and the
// state snapshot taken at round start.
type AgentTask struct {
	Analyst  models.AnalystKind
	invoker  Invoker
	snapshot *models.AnalysisState
}

// OutcomeStatus classifies the terminal result of a task attempt.
type OutcomeStatus int

const (
	OutcomeSuccess OutcomeStatus = iota
	OutcomeTimeout
	OutcomeError
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// AgentOutcome is the final result of one AgentTask. Report is set only on
// success; Err only on error. Attempts counts every try including the first.
type AgentOutcome struct {
	Analyst  models.AnalystKind
	Status   OutcomeStatus
	Report   string
	Err      error
	Duration time.Duration
	Attempts int
}

// Failed reports whether the task ended without a usable report.
func (o AgentOutcome) Failed() bool {
	return o.Status != OutcomeSuccess
}

// FailureReason renders the outcome for the absence marker in merged state.
func (o AgentOutcome) FailureReason() string {
	switch o.Status {
	case OutcomeTimeout:
		return fmt.Sprintf("timed out after %s (%d attempts)", o.Duration, o.Attempts)
	case OutcomeError:
		return fmt.Sprintf("failed after %d attempts: %v", o.Attempts, o.Err)
	default:
		return ""
	}
}

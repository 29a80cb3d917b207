package graph

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"quantcrew/internal/models"
)

const (
	defaultMaxWorkers     = 4
	defaultAnalystTimeout = 300 * time.Second
)

// ParallelExecutor runs the analyst fan-out round for one analysis request
// under a bounded worker pool. Individual analyst failures degrade to absence
// markers; only substrate failures (no invoker wired, run context cancelled)
// abort the round.
type ParallelExecutor struct {
	workers int
	timeout time.Duration
	retries int
}

// NewParallelExecutor builds an executor. workers < 1 degrades to sequential
// execution (the W=1 case of the same contract), timeout <= 0 and retries < 0
// fall back to defaults.
func NewParallelExecutor(workers int, timeout time.Duration, retries int) *ParallelExecutor {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = defaultAnalystTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &ParallelExecutor{workers: workers, timeout: timeout, retries: retries}
}

// ExecuteRound fans out one task per selected analyst and blocks until every
// task has a final outcome. The returned slice is in request order and always
// has one entry per analyst: a task that exhausts its retries is returned as a
// failed outcome, never omitted.
func (e *ParallelExecutor) ExecuteRound(ctx context.Context, reg Registry, selected []models.AnalystKind, state *models.AnalysisState) ([]AgentOutcome, error) {
	if len(selected) == 0 {
		return nil, nil
	}

	// Resolve every invoker and take every snapshot before dispatch: tasks
	// must see the round-start state, never a sibling's partial work, and a
	// missing invoker fails the round before any work starts.
	tasks := make([]AgentTask, len(selected))
	for i, kind := range selected {
		inv, err := reg.lookup(kind)
		if err != nil {
			return nil, err
		}
		tasks[i] = AgentTask{Analyst: kind, invoker: inv, snapshot: state.Snapshot()}
	}

	log.Printf("[ParallelExecutor] starting round: %d analysts, workers=%d timeout=%s retries=%d",
		len(tasks), e.workers, e.timeout, e.retries)

	sem := semaphore.NewWeighted(int64(e.workers))
	outcomes := make([]AgentOutcome, len(tasks))
	substrate := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i := range tasks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				substrate[i] = fmt.Errorf("acquire worker for %s: %w", tasks[i].Analyst, err)
				return
			}
			defer sem.Release(1)
			outcomes[i] = e.runTask(ctx, tasks[i])
		}(i)
	}
	wg.Wait()

	for _, err := range substrate {
		if err != nil {
			return nil, err
		}
	}
	return outcomes, nil
}

// runTask drives one task through up to retries+1 guarded attempts. Retries
// stay inside the task's worker slot, so a retrying task never displaces a
// sibling.
func (e *ParallelExecutor) runTask(ctx context.Context, task AgentTask) AgentOutcome {
	var out AgentOutcome
	for attempt := 1; attempt <= e.retries+1; attempt++ {
		out = runGuarded(ctx, task, e.timeout)
		out.Attempts = attempt
		if out.Status == OutcomeSuccess {
			if attempt > 1 {
				log.Printf("[ParallelExecutor] %s succeeded on attempt %d in %s", task.Analyst, attempt, out.Duration)
			}
			return out
		}
		if ctx.Err() != nil {
			return out
		}
		if attempt <= e.retries {
			log.Printf("[ParallelExecutor] %s attempt %d ended with %s, retrying", task.Analyst, attempt, out.Status)
		}
	}
	log.Printf("[ParallelExecutor] %s exhausted %d attempts, final status %s", task.Analyst, out.Attempts, out.Status)
	return out
}

package graph

import (
	"context"
	"fmt"
	"time"
)

// attemptResult carries the return of a single invoker call. Each attempt owns
// its own buffered channel: when the guard abandons a hung call, the eventual
// late write lands in a channel nobody reads again, so it can never leak into a
// later attempt or round.
type attemptResult struct {
	report string
	err    error
}

// runGuarded executes exactly one invoker attempt under the given deadline.
// The invoker runs on its own goroutine so a call that never returns cannot
// stall the executor; the guard itself always returns within the deadline.
func runGuarded(ctx context.Context, task AgentTask, timeout time.Duration) AgentOutcome {
	start := time.Now()
	done := make(chan attemptResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: fmt.Errorf("analyst %s panicked: %v", task.Analyst, r)}
			}
		}()
		report, err := task.invoker.Invoke(ctx, task.Analyst, task.snapshot)
		done <- attemptResult{report: report, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		out := AgentOutcome{
			Analyst:  task.Analyst,
			Duration: time.Since(start),
		}
		if res.err != nil {
			out.Status = OutcomeError
			out.Err = res.err
		} else {
			out.Status = OutcomeSuccess
			out.Report = res.report
		}
		return out
	case <-timer.C:
		return AgentOutcome{
			Analyst:  task.Analyst,
			Status:   OutcomeTimeout,
			Duration: timeout,
		}
	case <-ctx.Done():
		// Run context cancelled underneath us; report as an error outcome and
		// let the executor surface the substrate failure.
		return AgentOutcome{
			Analyst:  task.Analyst,
			Status:   OutcomeError,
			Err:      ctx.Err(),
			Duration: time.Since(start),
		}
	}
}

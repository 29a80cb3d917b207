package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quantcrew/internal/models"
)

func testState() *models.AnalysisState {
	return models.NewAnalysisState("AAPL", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "analyze", 1, 1)
}

func staticInvoker(report string) Invoker {
	return InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		return report, nil
	})
}

func TestExecuteRoundReturnsOneOutcomePerAnalystInRequestOrder(t *testing.T) {
	selected := []models.AnalystKind{models.AnalystNews, models.AnalystMarket, models.AnalystFundamentals}
	reg := Registry{}
	for _, k := range selected {
		reg[k] = staticInvoker("report for " + string(k))
	}

	e := NewParallelExecutor(4, time.Second, 0)
	outcomes, err := e.ExecuteRound(context.Background(), reg, selected, testState())
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	if len(outcomes) != len(selected) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(selected))
	}
	for i, out := range outcomes {
		if out.Analyst != selected[i] {
			t.Fatalf("outcome %d is for %s, want %s", i, out.Analyst, selected[i])
		}
		if out.Status != OutcomeSuccess {
			t.Fatalf("%s: unexpected status %s", out.Analyst, out.Status)
		}
		if out.Report != "report for "+string(selected[i]) {
			t.Fatalf("%s: wrong report %q", out.Analyst, out.Report)
		}
		if out.Attempts != 1 {
			t.Fatalf("%s: attempts = %d, want 1", out.Analyst, out.Attempts)
		}
	}
}

func TestExecuteRoundEmptySelection(t *testing.T) {
	e := NewParallelExecutor(4, time.Second, 0)
	outcomes, err := e.ExecuteRound(context.Background(), Registry{}, nil, testState())
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("got %d outcomes for empty selection", len(outcomes))
	}
}

func TestExecuteRoundMissingInvokerFailsRound(t *testing.T) {
	reg := Registry{models.AnalystMarket: staticInvoker("ok")}
	e := NewParallelExecutor(4, time.Second, 0)
	_, err := e.ExecuteRound(context.Background(), reg,
		[]models.AnalystKind{models.AnalystMarket, models.AnalystNews}, testState())
	if err == nil {
		t.Fatal("expected error for unregistered analyst")
	}
}

func TestExecuteRoundRespectsWorkerBound(t *testing.T) {
	const workers = 2
	var cur, max int64

	slow := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		n := atomic.AddInt64(&cur, 1)
		for {
			m := atomic.LoadInt64(&max)
			if n <= m || atomic.CompareAndSwapInt64(&max, m, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt64(&cur, -1)
		return "done", nil
	})

	selected := []models.AnalystKind{
		models.AnalystMarket, models.AnalystFundamentals,
		models.AnalystNews, models.AnalystSocial, models.AnalystChinaMarket,
	}
	reg := Registry{}
	for _, k := range selected {
		reg[k] = slow
	}

	e := NewParallelExecutor(workers, time.Second, 0)
	if _, err := e.ExecuteRound(context.Background(), reg, selected, testState()); err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	if got := atomic.LoadInt64(&max); got > workers {
		t.Fatalf("observed %d concurrent analysts, worker bound is %d", got, workers)
	}
}

func TestTimeoutDoesNotBlockSiblings(t *testing.T) {
	const timeout = 100 * time.Millisecond

	hang := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		time.Sleep(10 * time.Second)
		return "too late", nil
	})
	fast := staticInvoker("quick")

	reg := Registry{
		models.AnalystMarket: hang,
		models.AnalystNews:   fast,
	}

	e := NewParallelExecutor(2, timeout, 0)
	start := time.Now()
	outcomes, err := e.ExecuteRound(context.Background(), reg,
		[]models.AnalystKind{models.AnalystMarket, models.AnalystNews}, testState())
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	elapsed := time.Since(start)

	if outcomes[0].Status != OutcomeTimeout {
		t.Fatalf("hung analyst status = %s, want timeout", outcomes[0].Status)
	}
	if outcomes[1].Status != OutcomeSuccess {
		t.Fatalf("fast analyst status = %s, want success", outcomes[1].Status)
	}
	if elapsed > timeout+500*time.Millisecond {
		t.Fatalf("round took %s, hung analyst blocked completion", elapsed)
	}
}

func TestRetryUpperBound(t *testing.T) {
	const retries = 2
	var calls int32
	failing := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("flaky upstream")
	})

	e := NewParallelExecutor(1, time.Second, retries)
	outcomes, err := e.ExecuteRound(context.Background(),
		Registry{models.AnalystMarket: failing},
		[]models.AnalystKind{models.AnalystMarket}, testState())
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != retries+1 {
		t.Fatalf("invoker called %d times, want %d", got, retries+1)
	}
	if outcomes[0].Status != OutcomeError {
		t.Fatalf("status = %s, want error", outcomes[0].Status)
	}
	if outcomes[0].Attempts != retries+1 {
		t.Fatalf("attempts = %d, want %d", outcomes[0].Attempts, retries+1)
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	var calls int32
	flaky := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", errors.New("transient")
		}
		return "recovered", nil
	})

	e := NewParallelExecutor(1, time.Second, 1)
	outcomes, err := e.ExecuteRound(context.Background(),
		Registry{models.AnalystNews: flaky},
		[]models.AnalystKind{models.AnalystNews}, testState())
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	out := outcomes[0]
	if out.Status != OutcomeSuccess {
		t.Fatalf("status = %s, want success", out.Status)
	}
	if out.Report != "recovered" {
		t.Fatalf("report = %q", out.Report)
	}
	if out.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", out.Attempts)
	}
}

func TestPanickingInvokerBecomesErrorOutcome(t *testing.T) {
	boom := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		panic("analyst exploded")
	})

	e := NewParallelExecutor(1, time.Second, 0)
	outcomes, err := e.ExecuteRound(context.Background(),
		Registry{models.AnalystSocial: boom},
		[]models.AnalystKind{models.AnalystSocial}, testState())
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	if outcomes[0].Status != OutcomeError {
		t.Fatalf("status = %s, want error", outcomes[0].Status)
	}
	if outcomes[0].Err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestCancelledContextFailsRound(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewParallelExecutor(1, time.Second, 0)
	_, err := e.ExecuteRound(ctx,
		Registry{models.AnalystMarket: staticInvoker("ok")},
		[]models.AnalystKind{models.AnalystMarket}, testState())
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestTasksSeeRoundStartState(t *testing.T) {
	state := testState()
	state.SetReport(models.AnalystMarket, "earlier round")

	var wg sync.WaitGroup
	wg.Add(1)
	sawEarlier := make(chan bool, 1)

	inspect := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, snap *models.AnalysisState) (string, error) {
		defer wg.Done()
		sawEarlier <- snap.Report(models.AnalystMarket) == "earlier round"
		// Mutating the snapshot must not leak into the shared state.
		snap.CompanyOfInterest = "MUTATED"
		return "ok", nil
	})

	e := NewParallelExecutor(1, time.Second, 0)
	if _, err := e.ExecuteRound(context.Background(),
		Registry{models.AnalystNews: inspect},
		[]models.AnalystKind{models.AnalystNews}, state); err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	wg.Wait()

	if !<-sawEarlier {
		t.Fatal("snapshot did not carry prior state")
	}
	if state.CompanyOfInterest != "AAPL" {
		t.Fatalf("snapshot mutation leaked into shared state: %q", state.CompanyOfInterest)
	}
}

// Sequential (W=1) and parallel (W=N) execution must merge to the same
// contributions for deterministic invokers.
func TestSequentialAndParallelMergeIdentically(t *testing.T) {
	selected := []models.AnalystKind{
		models.AnalystMarket, models.AnalystFundamentals, models.AnalystNews,
	}
	reg := Registry{}
	for _, k := range selected {
		reg[k] = staticInvoker("stable " + string(k))
	}
	reg[models.AnalystFundamentals] = InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		return "", errors.New("always down")
	})

	run := func(workers int) *models.AnalysisState {
		state := testState()
		e := NewParallelExecutor(workers, 200*time.Millisecond, 1)
		outcomes, err := e.ExecuteRound(context.Background(), reg, selected, state)
		if err != nil {
			t.Fatalf("ExecuteRound(workers=%d) failed: %v", workers, err)
		}
		if err := MergeOutcomes(state, outcomes); err != nil {
			t.Fatalf("MergeOutcomes(workers=%d) failed: %v", workers, err)
		}
		return state
	}

	seq := run(1)
	par := run(4)

	if fmt.Sprint(seq.SucceededAnalysts()) != fmt.Sprint(par.SucceededAnalysts()) {
		t.Fatalf("succeeded sets differ: %v vs %v", seq.SucceededAnalysts(), par.SucceededAnalysts())
	}
	if fmt.Sprint(seq.AbsentAnalysts()) != fmt.Sprint(par.AbsentAnalysts()) {
		t.Fatalf("absent sets differ: %v vs %v", seq.AbsentAnalysts(), par.AbsentAnalysts())
	}
	for _, k := range seq.SucceededAnalysts() {
		if seq.Report(k) != par.Report(k) {
			t.Fatalf("report for %s differs between sequential and parallel runs", k)
		}
	}
}

// Scaled version of the canonical mixed round: one fast success, one analyst
// that times out every attempt, one that fails once and recovers.
func TestMixedRoundScenario(t *testing.T) {
	const timeout = 200 * time.Millisecond

	market := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "market looks healthy", nil
	})
	fundamentals := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		time.Sleep(10 * time.Second)
		return "never arrives", nil
	})
	var newsCalls int32
	news := InvokerFunc(func(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
		if atomic.AddInt32(&newsCalls, 1) == 1 {
			return "", errors.New("feed hiccup")
		}
		return "headlines digested", nil
	})

	reg := Registry{
		models.AnalystMarket:       market,
		models.AnalystFundamentals: fundamentals,
		models.AnalystNews:         news,
	}
	selected := []models.AnalystKind{
		models.AnalystMarket, models.AnalystFundamentals, models.AnalystNews,
	}

	state := testState()
	e := NewParallelExecutor(4, timeout, 1)

	start := time.Now()
	outcomes, err := e.ExecuteRound(context.Background(), reg, selected, state)
	if err != nil {
		t.Fatalf("ExecuteRound failed: %v", err)
	}
	finish := time.Now()

	if err := MergeOutcomes(state, outcomes); err != nil {
		t.Fatalf("MergeOutcomes failed: %v", err)
	}

	rec := BuildPerformanceRecord("AAPL", state.TradeDate, start, finish, outcomes)
	if rec.SuccessCount != 2 || rec.TotalCount != 3 {
		t.Fatalf("success/total = %d/%d, want 2/3", rec.SuccessCount, rec.TotalCount)
	}

	if got := state.Report(models.AnalystMarket); got != "market looks healthy" {
		t.Fatalf("market report = %q", got)
	}
	if got := state.Report(models.AnalystNews); got != "headlines digested" {
		t.Fatalf("news report = %q", got)
	}

	absent := state.AbsentAnalysts()
	if len(absent) != 1 || absent[0] != models.AnalystFundamentals {
		t.Fatalf("absent = %v, want [fundamentals]", absent)
	}
	if outcomes[1].Status != OutcomeTimeout {
		t.Fatalf("fundamentals status = %s, want timeout", outcomes[1].Status)
	}
	if outcomes[1].Attempts != 2 {
		t.Fatalf("fundamentals attempts = %d, want 2", outcomes[1].Attempts)
	}
	if outcomes[2].Attempts != 2 {
		t.Fatalf("news attempts = %d, want 2", outcomes[2].Attempts)
	}

	// Both fundamentals attempts run back to back inside one worker slot; with
	// generous slack the round still finishes well under any serialized
	// worst case.
	if rec.WallTime > 2*timeout+500*time.Millisecond {
		t.Fatalf("round wall time %s exceeds expected bound", rec.WallTime)
	}
}

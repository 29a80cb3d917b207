package graph

import (
	"errors"
	"fmt"
	"log"

	"quantcrew/internal/models"
)

// ErrDuplicateOutcome marks two final outcomes for the same analyst in one
// round. The executor guarantees exactly one per task, so hitting this is an
// invariant violation and the round fails loudly.
var ErrDuplicateOutcome = errors.New("duplicate analyst outcome")

// MergeOutcomes folds the round's final outcomes into state. Each analyst key
// is written exactly once, from exactly one outcome: successes carry their
// report, failures an explicit absence marker. Keyed writes make the result
// independent of completion order.
func MergeOutcomes(state *models.AnalysisState, outcomes []AgentOutcome) error {
	seen := make(map[models.AnalystKind]bool, len(outcomes))
	for _, out := range outcomes {
		if seen[out.Analyst] {
			return fmt.Errorf("%w for %q", ErrDuplicateOutcome, out.Analyst)
		}
		seen[out.Analyst] = true

		if out.Failed() {
			state.MarkAbsent(out.Analyst, out.FailureReason())
			continue
		}
		state.SetReport(out.Analyst, out.Report)
	}

	if absent := state.AbsentAnalysts(); len(absent) > 0 {
		log.Printf("[StateMerger] round merged with absent analysts: %v", absent)
	}
	return nil
}

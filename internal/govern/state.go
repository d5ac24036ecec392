// Package govern owns the governance task lifecycle: creation when a gated
// tool call is suspended, the approval state machine, and resumed execution.
package govern

import (
	"fmt"

	"github.com/wardenhq/warden/internal/store"
)

// legalTransitions is the complete state machine. Pending tasks can be
// approved or rejected; approved tasks can complete. Rejected and completed
// are terminal.
var legalTransitions = map[string][]string{
	store.TaskPending:  {store.TaskApproved, store.TaskRejected},
	store.TaskApproved: {store.TaskCompleted},
}

// CanTransition reports whether from -> to is a legal task transition.
func CanTransition(from, to string) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports an attempted illegal task transition. These
// indicate a logic or concurrency bug, never a transient condition, so they
// are surfaced rather than absorbed.
type InvalidTransitionError struct {
	TaskID string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: invalid transition %s -> %s", e.TaskID, e.From, e.To)
}

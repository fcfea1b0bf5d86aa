// Package schedule computes task dates from dependency constraints and
// derives conflicts, rolled-up progress and the critical-path summary.
// Every entry point is a pure function over the task collection it is
// handed: inputs are cloned, never mutated, so callers keep a clean
// snapshot regardless of outcome.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/planforge/planforge/internal/task"
)

// CyclicDependencyError reports a dependency graph that cannot be
// scheduled. TaskIDs names every task caught in or downstream of a cycle.
type CyclicDependencyError struct {
	TaskIDs []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency involving tasks: %s", strings.Join(e.TaskIDs, ", "))
}

// AutoSchedule recomputes start/end dates for the whole collection,
// processing tasks in topological order over their dependency edges.
// A task never moves earlier than its declared start date, and tasks
// with ManualOverrideDates keep their dates untouched (the conflict
// detector surfaces the discrepancy instead). The operation is
// idempotent: scheduling its own output is a no-op.
//
// A dependency cycle fails the whole reschedule with a
// *CyclicDependencyError and leaves the input unchanged.
func AutoSchedule(tasks []*task.Task) ([]*task.Task, error) {
	scheduled := task.CloneAll(tasks)
	byID := task.Index(scheduled)

	order, err := topoOrder(scheduled, byID)
	if err != nil {
		return nil, err
	}

	for _, t := range order {
		earliest := t.StartDate
		for _, edge := range t.Dependencies {
			pred := byID[edge.Predecessor]
			if pred == nil || pred.ID == t.ID {
				// Edges pointing outside the collection are a collaborator
				// filtering artifact; they impose no constraint here.
				continue
			}
			earliest = task.MaxDate(earliest, requiredStart(edge, pred, t.Duration))
		}

		if t.ManualOverrideDates {
			continue
		}
		t.StartDate = earliest
		t.EndDate = earliest.AddDays(t.Duration - 1)
	}
	return scheduled, nil
}

// requiredStart derives the earliest start the edge permits from the
// predecessor's already recomputed dates. End dates are inclusive, hence
// the +1 on finish-to-start. Unknown relation kinds behave as
// finish-to-start, matching the parser's default.
func requiredStart(edge task.DependencyEdge, pred *task.Task, duration int) task.Date {
	switch edge.Relation {
	case task.StartToStart:
		return pred.StartDate.AddDays(edge.Lag)
	case task.FinishToFinish:
		return pred.EndDate.AddDays(edge.Lag - duration + 1)
	case task.StartToFinish:
		return pred.StartDate.AddDays(edge.Lag - duration + 1)
	default:
		return pred.EndDate.AddDays(1 + edge.Lag)
	}
}

// topoOrder runs Kahn's algorithm over the dependency edges. The
// returned order is deterministic: zero in-degree tasks are seeded in
// input order and successors are released in input order. Tasks left
// with positive in-degree are caught in a cycle.
func topoOrder(tasks []*task.Task, byID map[string]*task.Task) ([]*task.Task, error) {
	inDeg := make(map[string]int, len(tasks))
	successors := make(map[string][]*task.Task, len(tasks))
	for _, t := range tasks {
		for _, edge := range t.Dependencies {
			if byID[edge.Predecessor] == nil && edge.Predecessor != t.ID {
				continue
			}
			inDeg[t.ID]++
			successors[edge.Predecessor] = append(successors[edge.Predecessor], t)
		}
	}

	var queue []*task.Task
	for _, t := range tasks {
		if inDeg[t.ID] == 0 {
			queue = append(queue, t)
		}
	}

	order := make([]*task.Task, 0, len(tasks))
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		order = append(order, t)

		for _, succ := range successors[t.ID] {
			inDeg[succ.ID]--
			if inDeg[succ.ID] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(tasks) {
		var cycle []string
		for _, t := range tasks {
			if inDeg[t.ID] > 0 {
				cycle = append(cycle, t.ID)
			}
		}
		sort.Strings(cycle)
		return nil, &CyclicDependencyError{TaskIDs: cycle}
	}
	return order, nil
}

// Package engine wires the scheduling stages into one pipeline:
// hierarchy build, dependency scheduling, progress rollup, conflict
// detection and critical-path analysis. Each stage is pure; the engine
// only sequences them and publishes events about the outcome.
package engine

import (
	"context"
	"fmt"

	"github.com/planforge/planforge/internal/event"
	"github.com/planforge/planforge/internal/hierarchy"
	"github.com/planforge/planforge/internal/schedule"
	"github.com/planforge/planforge/internal/task"
)

// Result carries everything one recompute produced.
type Result struct {
	// Tasks is the rescheduled flat list in hierarchy pre-order, with
	// levels, child flags and rolled-up parent progress refreshed.
	Tasks     []*task.Task
	Conflicts []schedule.Conflict
	Report    schedule.CriticalPathReport
	// Rollups maps each parent task ID to its duration-weighted
	// progress.
	Rollups map[string]int
}

// Service defines the engine operations collaborators call.
type Service interface {
	Recompute(ctx context.Context, tasks []*task.Task) (*Result, error)
	MoveTask(ctx context.Context, tasks []*task.Task, taskID, newParentID string, position int) ([]*task.Task, error)
	Recommend(taskID string, tasks []*task.Task, milestones []*task.Milestone) ([]string, error)
}

// Engine implements Service. The event bus is optional; with a nil bus
// recomputes simply go unannounced.
type Engine struct {
	bus *event.Bus
}

// New creates an engine publishing to bus (nil for none).
func New(bus *event.Bus) *Engine {
	return &Engine{bus: bus}
}

// Recompute runs the full pipeline over a snapshot of the task
// collection. The input is never mutated. A cyclic dependency graph
// fails the whole recompute with *schedule.CyclicDependencyError.
func (e *Engine) Recompute(ctx context.Context, tasks []*task.Task) (*Result, error) {
	ordered := hierarchy.Normalize(task.CloneAll(tasks))

	scheduled, err := schedule.AutoSchedule(ordered)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule: %w", err)
	}

	rollups := make(map[string]int)
	for _, t := range scheduled {
		if t.HasChildren {
			p := schedule.RollupProgress(t.ID, scheduled)
			rollups[t.ID] = p
			t.Progress = p
		}
	}

	conflicts := schedule.DetectConflicts(scheduled)
	report := schedule.AnalyzeCriticalPath(scheduled)

	result := &Result{
		Tasks:     scheduled,
		Conflicts: conflicts,
		Report:    report,
		Rollups:   rollups,
	}
	e.publishRecompute(ctx, result)
	return result, nil
}

// MoveTask applies a hierarchy move and returns the restructured flat
// list. Business refusals come back as *hierarchy.MoveRejection; the
// input list is unchanged on any failure.
func (e *Engine) MoveTask(ctx context.Context, tasks []*task.Task, taskID, newParentID string, position int) ([]*task.Task, error) {
	oldParent := ""
	for _, t := range tasks {
		if t.ID == taskID {
			oldParent = t.ParentID
			break
		}
	}

	moved, err := hierarchy.Move(tasks, taskID, newParentID, position)
	if err != nil {
		return nil, err
	}

	if e.bus != nil {
		_ = e.bus.Publish(ctx, "engine", event.TaskMovedData{
			TaskID:      taskID,
			OldParentID: oldParent,
			NewParentID: newParentID,
		})
	}
	return moved, nil
}

// Recommend returns advisory suggestions for one task.
func (e *Engine) Recommend(taskID string, tasks []*task.Task, milestones []*task.Milestone) ([]string, error) {
	t := task.Index(tasks)[taskID]
	if t == nil {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	return schedule.Recommend(t, tasks, milestones), nil
}

func (e *Engine) publishRecompute(ctx context.Context, result *Result) {
	if e.bus == nil {
		return
	}

	_ = e.bus.Publish(ctx, "engine", event.ScheduleRecomputedData{
		TaskCount:         len(result.Tasks),
		ConflictCount:     len(result.Conflicts),
		TotalDurationDays: result.Report.TotalDurationDays,
	})

	if len(result.Conflicts) == 0 {
		return
	}
	data := event.ConflictsDetectedData{Total: len(result.Conflicts)}
	seen := make(map[string]bool)
	for _, c := range result.Conflicts {
		if !seen[c.TaskID] {
			seen[c.TaskID] = true
			data.TaskIDs = append(data.TaskIDs, c.TaskID)
		}
		if c.Severity == schedule.SeverityHigh {
			data.HighSeverity++
		}
	}
	_ = e.bus.Publish(ctx, "engine", data)
}

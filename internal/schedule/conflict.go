package schedule

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/planforge/planforge/internal/task"
)

// ConflictKind classifies a schedule finding.
type ConflictKind string

const (
	// DependencyViolation means a task starts before a dependency edge
	// permits, typically because its dates are pinned by a manual
	// override.
	DependencyViolation ConflictKind = "dependency_violation"
	// DateConstraint means a task ends past its committed baseline.
	DateConstraint ConflictKind = "date_constraint"
	// ResourceOverallocation is reserved for callers that compute
	// resource capacity; this engine only defines the shape.
	ResourceOverallocation ConflictKind = "resource_overallocation"
)

// Severity grades how urgent a conflict is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Conflict is a business-level finding, returned as data and never
// raised as an error: one violating task must not block scheduling of
// the rest.
type Conflict struct {
	ID          string       `yaml:"id" json:"id"`
	TaskID      string       `yaml:"task_id" json:"task_id"`
	Kind        ConflictKind `yaml:"kind" json:"kind"`
	Description string       `yaml:"description" json:"description"`
	Severity    Severity     `yaml:"severity" json:"severity"`
}

// DetectConflicts scans a scheduled collection for dependency-start
// violations and baseline slippage. It is pure: tasks are never mutated
// and nothing is auto-resolved — surfacing, ignoring or force-resolving
// is the caller's call.
func DetectConflicts(tasks []*task.Task) []Conflict {
	byID := task.Index(tasks)
	var conflicts []Conflict

	for _, t := range tasks {
		for _, edge := range t.Dependencies {
			pred := byID[edge.Predecessor]
			if pred == nil || pred.ID == t.ID {
				continue
			}
			required := requiredStart(edge, pred, t.Duration)
			if t.StartDate.Before(required) {
				conflicts = append(conflicts, Conflict{
					ID:     ulid.Make().String(),
					TaskID: t.ID,
					Kind:   DependencyViolation,
					Description: fmt.Sprintf("task %q starts %s but its %s dependency on %q requires %s or later",
						t.Name, t.StartDate, edge.Relation, pred.Name, required),
					Severity: SeverityHigh,
				})
			}
		}

		if !t.BaselineEndDate.IsZero() && t.EndDate.After(t.BaselineEndDate) {
			slip := t.BaselineEndDate.DaysUntil(t.EndDate)
			conflicts = append(conflicts, Conflict{
				ID:     ulid.Make().String(),
				TaskID: t.ID,
				Kind:   DateConstraint,
				Description: fmt.Sprintf("task %q ends %s, %d day(s) past its baseline end %s",
					t.Name, t.EndDate, slip, t.BaselineEndDate),
				Severity: slipSeverity(slip),
			})
		}
	}
	return conflicts
}

func slipSeverity(days int) Severity {
	switch {
	case days > 7:
		return SeverityHigh
	case days > 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

package schedule

import (
	"fmt"

	"github.com/planforge/planforge/internal/task"
)

const (
	// lateStartThresholdDays is how far into the plan an unlinked task
	// may start before a predecessor link is suggested.
	lateStartThresholdDays = 7
	// longDurationDays is the duration above which splitting is
	// suggested.
	longDurationDays = 10
)

// Recommend produces advisory suggestions for a task. The output is
// display text only: it never blocks scheduling and carries no
// invariant.
func Recommend(t *task.Task, tasks []*task.Task, milestones []*task.Milestone) []string {
	var recs []string

	if len(t.Dependencies) == 0 && !t.StartDate.IsZero() {
		if earliest, ok := earliestStart(tasks); ok {
			if gap := earliest.DaysUntil(t.StartDate); gap > lateStartThresholdDays {
				recs = append(recs, fmt.Sprintf(
					"starts %d days into the plan with no dependencies; link a predecessor or pull the start earlier", gap))
			}
		}
	}

	if t.Duration > longDurationDays {
		recs = append(recs, fmt.Sprintf(
			"runs %d days; consider splitting it into smaller tasks", t.Duration))
	}

	if len(t.AssignedResources) == 0 {
		recs = append(recs, "has no assigned resources")
	}

	if !t.BaselineEndDate.IsZero() && t.EndDate.After(t.BaselineEndDate) {
		recs = append(recs, fmt.Sprintf(
			"is %d day(s) behind its baseline end date", t.BaselineEndDate.DaysUntil(t.EndDate)))
	}

	if m := nearestMilestone(t, milestones); m != nil {
		recs = append(recs, fmt.Sprintf(
			"consider linking it to milestone %q due %s", m.Name, m.DueDate))
	}

	return recs
}

func earliestStart(tasks []*task.Task) (task.Date, bool) {
	var earliest task.Date
	found := false
	for _, t := range tasks {
		if t.StartDate.IsZero() {
			continue
		}
		if !found || t.StartDate.Before(earliest) {
			earliest = t.StartDate
			found = true
		}
	}
	return earliest, found
}

// nearestMilestone picks the closest milestone due on or after the
// task's end date.
func nearestMilestone(t *task.Task, milestones []*task.Milestone) *task.Milestone {
	if t.EndDate.IsZero() {
		return nil
	}
	var nearest *task.Milestone
	for _, m := range milestones {
		if m.DueDate.IsZero() || m.DueDate.Before(t.EndDate) {
			continue
		}
		if nearest == nil || m.DueDate.Before(nearest.DueDate) {
			nearest = m
		}
	}
	return nearest
}

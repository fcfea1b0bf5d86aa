package schedule

import (
	"sort"

	"github.com/planforge/planforge/internal/task"
)

// criticalTaskCap bounds how many tasks the heuristic flags as critical.
const criticalTaskCap = 5

// CriticalPathReport summarizes the schedule for dashboards.
type CriticalPathReport struct {
	// CriticalTaskIDs is a duplicate-free list ranked by end date,
	// latest first.
	CriticalTaskIDs   []string `yaml:"critical_task_ids" json:"critical_task_ids"`
	TotalDurationDays int      `yaml:"total_duration_days" json:"total_duration_days"`
	SlackDays         int      `yaml:"slack_days" json:"slack_days"`
}

// AnalyzeCriticalPath produces the simplified critical-path summary the
// legacy dashboards expect: total duration is the sum of all durations
// in the collection (the caller decides what slice of the project that
// is), critical tasks are the latest-ending high or critical priority
// tasks capped at five, and slack is a flat 10% buffer. This is a
// deliberate heuristic, not a forward/backward-pass CPM computation;
// dependent dashboards rely on these exact numbers.
func AnalyzeCriticalPath(tasks []*task.Task) CriticalPathReport {
	total := 0
	for _, t := range tasks {
		if t.Duration > 0 {
			total += t.Duration
		}
	}

	ranked := append([]*task.Task(nil), tasks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].EndDate.Equal(ranked[j].EndDate) {
			return ranked[i].EndDate.After(ranked[j].EndDate)
		}
		return ranked[i].ID < ranked[j].ID
	})

	var critical []string
	for _, t := range ranked {
		if t.Priority != task.PriorityHigh && t.Priority != task.PriorityCritical {
			continue
		}
		critical = append(critical, t.ID)
		if len(critical) == criticalTaskCap {
			break
		}
	}

	return CriticalPathReport{
		CriticalTaskIDs:   critical,
		TotalDurationDays: total,
		SlackDays:         total / 10,
	}
}

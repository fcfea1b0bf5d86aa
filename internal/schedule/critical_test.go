package schedule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planforge/planforge/internal/task"
)

func prioritized(id string, start task.Date, duration int, p task.Priority) *task.Task {
	t := makeTask(id, start, duration)
	t.Priority = p
	return t
}

func TestAnalyzeCriticalPathTotals(t *testing.T) {
	tasks := []*task.Task{
		prioritized("a", day(1), 10, task.PriorityHigh),
		prioritized("b", day(1), 20, task.PriorityLow),
		prioritized("c", day(1), 5, task.PriorityCritical),
	}

	report := AnalyzeCriticalPath(tasks)
	assert.Equal(t, 35, report.TotalDurationDays)
	assert.Equal(t, 3, report.SlackDays)
}

func TestAnalyzeCriticalPathRanking(t *testing.T) {
	tasks := []*task.Task{
		prioritized("early-high", day(1), 2, task.PriorityHigh),      // ends 01-02
		prioritized("late-low", day(1), 30, task.PriorityLow),        // ends 01-30, wrong priority
		prioritized("late-high", day(10), 5, task.PriorityHigh),      // ends 01-14
		prioritized("mid-crit", day(5), 3, task.PriorityCritical),    // ends 01-07
	}

	report := AnalyzeCriticalPath(tasks)
	assert.Equal(t, []string{"late-high", "mid-crit", "early-high"}, report.CriticalTaskIDs)
}

func TestAnalyzeCriticalPathCap(t *testing.T) {
	var tasks []*task.Task
	for i := 1; i <= 8; i++ {
		tasks = append(tasks, prioritized(fmt.Sprintf("t%d", i), day(i), 1, task.PriorityHigh))
	}

	report := AnalyzeCriticalPath(tasks)
	assert.Len(t, report.CriticalTaskIDs, 5)
	// Latest end dates first.
	assert.Equal(t, []string{"t8", "t7", "t6", "t5", "t4"}, report.CriticalTaskIDs)
}

func TestAnalyzeCriticalPathEmpty(t *testing.T) {
	report := AnalyzeCriticalPath(nil)
	assert.Empty(t, report.CriticalTaskIDs)
	assert.Zero(t, report.TotalDurationDays)
	assert.Zero(t, report.SlackDays)
}

func TestAnalyzeCriticalPathNegativeDurationIgnored(t *testing.T) {
	broken := prioritized("broken", day(1), 5, task.PriorityLow)
	broken.Duration = -3
	tasks := []*task.Task{
		broken,
		prioritized("ok", day(1), 10, task.PriorityLow),
	}
	assert.Equal(t, 10, AnalyzeCriticalPath(tasks).TotalDurationDays)
}

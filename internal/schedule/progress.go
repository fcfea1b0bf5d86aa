package schedule

import (
	"math"

	"github.com/planforge/planforge/internal/task"
)

// RollupProgress computes a task's effective progress. Leaves report
// their own progress; parents report the duration-weighted average of
// their children's rolled-up progress, rounded to the nearest integer.
// Zero-duration children weigh 1 so they still count. The result is
// always within [0, 100]; an unknown task ID yields 0.
func RollupProgress(taskID string, tasks []*task.Task) int {
	byID := task.Index(tasks)
	t := byID[taskID]
	if t == nil {
		return 0
	}

	childrenOf := make(map[string][]*task.Task)
	for _, c := range tasks {
		if c.ParentID != "" && c.ParentID != c.ID {
			childrenOf[c.ParentID] = append(childrenOf[c.ParentID], c)
		}
	}

	// The depth bound keeps recursion shallow; the visited set defends
	// against parent links that loop despite it.
	visited := make(map[string]bool)
	var roll func(t *task.Task) int
	roll = func(t *task.Task) int {
		if visited[t.ID] {
			return 0
		}
		visited[t.ID] = true

		children := childrenOf[t.ID]
		if len(children) == 0 {
			return clampProgress(t.Progress)
		}

		var weighted, weights float64
		for _, c := range children {
			w := float64(c.Duration)
			if w < 1 {
				w = 1
			}
			weighted += float64(roll(c)) * w
			weights += w
		}
		if weights == 0 {
			return 0
		}
		return clampProgress(int(math.Round(weighted / weights)))
	}
	return roll(t)
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

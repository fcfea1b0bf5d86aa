package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planforge/planforge/internal/task"
)

func child(id, parentID string, duration, progress int) *task.Task {
	t := makeTask(id, day(1), duration)
	t.ParentID = parentID
	t.Progress = progress
	return t
}

func TestRollupProgressLeaf(t *testing.T) {
	tasks := []*task.Task{child("leaf", "", 3, 40)}
	assert.Equal(t, 40, RollupProgress("leaf", tasks))
}

func TestRollupProgressEqualWeights(t *testing.T) {
	tasks := []*task.Task{
		child("p", "", 1, 0),
		child("c1", "p", 2, 100),
		child("c2", "p", 2, 0),
	}
	assert.Equal(t, 50, RollupProgress("p", tasks))
}

func TestRollupProgressDurationWeighted(t *testing.T) {
	tasks := []*task.Task{
		child("p", "", 1, 0),
		child("c1", "p", 9, 100),
		child("c2", "p", 1, 0),
	}
	assert.Equal(t, 90, RollupProgress("p", tasks))
}

func TestRollupProgressNested(t *testing.T) {
	tasks := []*task.Task{
		child("root", "", 1, 0),
		child("mid", "root", 1, 0),
		child("leaf1", "mid", 1, 100),
		child("leaf2", "mid", 1, 50),
	}
	// mid rolls up to 75; root has a single child so it inherits 75.
	assert.Equal(t, 75, RollupProgress("root", tasks))
}

func TestRollupProgressZeroDurationChildCounts(t *testing.T) {
	tasks := []*task.Task{
		child("p", "", 1, 0),
		child("milestoneish", "p", 0, 100),
		child("work", "p", 1, 0),
	}
	assert.Equal(t, 50, RollupProgress("p", tasks))
}

func TestRollupProgressClamped(t *testing.T) {
	tasks := []*task.Task{
		child("p", "", 1, 0),
		child("over", "p", 1, 150),
		child("under", "p", 1, -50),
	}
	got := RollupProgress("p", tasks)
	assert.GreaterOrEqual(t, got, 0)
	assert.LessOrEqual(t, got, 100)
	assert.Equal(t, 50, got)
}

func TestRollupProgressUnknownTask(t *testing.T) {
	assert.Equal(t, 0, RollupProgress("ghost", nil))
}

func TestRollupProgressParentCycle(t *testing.T) {
	a := child("a", "b", 1, 80)
	b := child("b", "a", 1, 20)
	got := RollupProgress("a", []*task.Task{a, b})
	assert.GreaterOrEqual(t, got, 0)
	assert.LessOrEqual(t, got, 100)
}

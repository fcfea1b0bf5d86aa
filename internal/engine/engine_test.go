package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/planforge/internal/hierarchy"
	"github.com/planforge/planforge/internal/schedule"
	"github.com/planforge/planforge/internal/task"
)

func day(d int) task.Date {
	return task.NewDate(2024, time.January, d)
}

func planTask(id, parentID string, start task.Date, duration int) *task.Task {
	return &task.Task{
		ID:        id,
		Name:      "Task " + id,
		StartDate: start,
		EndDate:   start.AddDays(duration - 1),
		Duration:  duration,
		Status:    task.StatusNotStarted,
		Priority:  task.PriorityMedium,
		ParentID:  parentID,
		SortOrder: 100,
	}
}

func samplePlan() []*task.Task {
	parent := planTask("phase", "", day(1), 1)
	build := planTask("build", "phase", day(1), 3)
	build.Progress = 100
	test := planTask("test", "phase", day(1), 3)
	test.SortOrder = 200
	test.Dependencies = []task.DependencyEdge{
		{Predecessor: "build", Relation: task.FinishToStart},
	}
	return []*task.Task{parent, build, test}
}

func TestRecomputePipeline(t *testing.T) {
	e := New(nil)

	result, err := e.Recompute(context.Background(), samplePlan())
	require.NoError(t, err)

	byID := task.Index(result.Tasks)

	// Dependency scheduling ran: test follows build.
	assert.Equal(t, day(4), byID["test"].StartDate)
	assert.Equal(t, day(6), byID["test"].EndDate)

	// Hierarchy metadata refreshed.
	assert.True(t, byID["phase"].HasChildren)
	assert.Equal(t, 0, byID["phase"].HierarchyLevel)
	assert.Equal(t, 1, byID["build"].HierarchyLevel)

	// Parent progress is the duration-weighted rollup, applied in place.
	require.Contains(t, result.Rollups, "phase")
	assert.Equal(t, 50, result.Rollups["phase"])
	assert.Equal(t, 50, byID["phase"].Progress)

	assert.Empty(t, result.Conflicts)
	assert.Equal(t, 7, result.Report.TotalDurationDays)
}

func TestRecomputeDoesNotMutateInput(t *testing.T) {
	plan := samplePlan()
	_, err := New(nil).Recompute(context.Background(), plan)
	require.NoError(t, err)

	byID := task.Index(plan)
	assert.Equal(t, day(1), byID["test"].StartDate)
	assert.Equal(t, 0, byID["phase"].Progress)
}

func TestRecomputeCycleFails(t *testing.T) {
	a := planTask("a", "", day(1), 1)
	a.Dependencies = []task.DependencyEdge{{Predecessor: "b", Relation: task.FinishToStart}}
	b := planTask("b", "", day(1), 1)
	b.Dependencies = []task.DependencyEdge{{Predecessor: "a", Relation: task.FinishToStart}}

	_, err := New(nil).Recompute(context.Background(), []*task.Task{a, b})
	var cyc *schedule.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"a", "b"}, cyc.TaskIDs)
}

func TestRecomputeSurfacesConflicts(t *testing.T) {
	pred := planTask("pred", "", day(1), 5)
	pinned := planTask("pinned", "", day(2), 2)
	pinned.ManualOverrideDates = true
	pinned.Dependencies = []task.DependencyEdge{
		{Predecessor: "pred", Relation: task.FinishToStart},
	}

	result, err := New(nil).Recompute(context.Background(), []*task.Task{pred, pinned})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "pinned", result.Conflicts[0].TaskID)
	assert.Equal(t, schedule.DependencyViolation, result.Conflicts[0].Kind)
}

func TestMoveTask(t *testing.T) {
	plan := samplePlan()
	plan = append(plan, planTask("extra", "", day(1), 1))

	moved, err := New(nil).MoveTask(context.Background(), plan, "extra", "phase", 0)
	require.NoError(t, err)
	assert.Equal(t, "phase", task.Index(moved)["extra"].ParentID)

	// Rejections pass through typed.
	_, err = New(nil).MoveTask(context.Background(), moved, "phase", "build", 0)
	var rejection *hierarchy.MoveRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, hierarchy.WouldCreateCycle, rejection.Reason)
}

func TestRecommendUnknownTask(t *testing.T) {
	_, err := New(nil).Recommend("ghost", samplePlan(), nil)
	assert.Error(t, err)
}

func TestRecommendKnownTask(t *testing.T) {
	plan := samplePlan()
	recs, err := New(nil).Recommend("build", plan, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}

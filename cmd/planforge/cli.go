package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/engine"
	"github.com/planforge/planforge/internal/hierarchy"
	"github.com/planforge/planforge/internal/schedule"
	"github.com/planforge/planforge/internal/task"
	"github.com/planforge/planforge/pkg/storage"
)

type cli struct {
	repo   task.Repository
	engine engine.Service
	logger *slog.Logger
}

func newCLI(ctx context.Context, env *config.Env, logger *slog.Logger) (*cli, error) {
	store, err := newStore(ctx, env)
	if err != nil {
		return nil, err
	}
	return &cli{
		repo:   task.NewStoreRepository(store, env.PlanPath),
		engine: engine.New(nil),
		logger: logger,
	}, nil
}

func newStore(ctx context.Context, env *config.Env) (storage.Storage, error) {
	switch env.StorageEnv.Type {
	case "local":
		return storage.NewLocal(env.StorageEnv.BaseDir)
	case "s3":
		return storage.NewS3(ctx, env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
	default:
		return nil, fmt.Errorf("unknown storage type %q", env.StorageEnv.Type)
	}
}

func (c *cli) schedule(ctx context.Context, dryRun bool) error {
	exists, err := c.repo.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		// Don't create an empty plan file as a side effect.
		fmt.Println("No plan found; save a plan first")
		return nil
	}

	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}

	result, err := c.engine.Recompute(ctx, plan.Tasks)
	if err != nil {
		return err
	}
	updated := &task.Plan{Tasks: result.Tasks, Milestones: plan.Milestones}

	if dryRun {
		return printPlanDiff(plan, updated)
	}
	if err := c.repo.Save(ctx, updated); err != nil {
		return err
	}

	fmt.Printf("Rescheduled %d task(s), %d conflict(s)\n", len(result.Tasks), len(result.Conflicts))
	return nil
}

// printPlanDiff renders a unified diff between the stored plan and the
// dry-run result.
func printPlanDiff(before, after *task.Plan) error {
	beforeYAML, err := task.MarshalPlan(before)
	if err != nil {
		return err
	}
	afterYAML, err := task.MarshalPlan(after)
	if err != nil {
		return err
	}
	if beforeYAML == afterYAML {
		fmt.Println("Schedule is already up to date")
		return nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(beforeYAML),
		B:        difflib.SplitLines(afterYAML),
		FromFile: "plan (current)",
		ToFile:   "plan (rescheduled)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("failed to diff plans: %w", err)
	}
	fmt.Print(diff)
	return nil
}

func (c *cli) conflicts(ctx context.Context) error {
	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}

	result, err := c.engine.Recompute(ctx, plan.Tasks)
	if err != nil {
		return err
	}
	if len(result.Conflicts) == 0 {
		fmt.Println("No conflicts")
		return nil
	}

	for _, conflict := range result.Conflicts {
		fmt.Printf("%s  %-24s %s\n", severityLabel(conflict.Severity), conflict.Kind, conflict.Description)
	}
	return nil
}

func severityLabel(s schedule.Severity) string {
	switch s {
	case schedule.SeverityHigh:
		return color.RedString("%-6s", s)
	case schedule.SeverityMedium:
		return color.YellowString("%-6s", s)
	default:
		return color.GreenString("%-6s", s)
	}
}

func (c *cli) critical(ctx context.Context) error {
	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}

	result, err := c.engine.Recompute(ctx, plan.Tasks)
	if err != nil {
		return err
	}

	fmt.Printf("Total duration: %d day(s)\n", result.Report.TotalDurationDays)
	fmt.Printf("Slack buffer:   %d day(s)\n", result.Report.SlackDays)
	if len(result.Report.CriticalTaskIDs) == 0 {
		fmt.Println("No critical tasks")
		return nil
	}

	byID := task.Index(result.Tasks)
	fmt.Println("Critical tasks:")
	for _, id := range result.Report.CriticalTaskIDs {
		if t := byID[id]; t != nil {
			fmt.Printf("  %s  %s (%s, ends %s)\n", color.RedString("*"), t.Name, t.ID, t.EndDate)
		}
	}
	return nil
}

func (c *cli) rollup(ctx context.Context, taskID string) error {
	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}
	if task.Index(plan.Tasks)[taskID] == nil {
		return fmt.Errorf("task %s not found", taskID)
	}
	fmt.Printf("%d%%\n", schedule.RollupProgress(taskID, plan.Tasks))
	return nil
}

func (c *cli) tree(ctx context.Context) error {
	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}

	nodes := hierarchy.BuildTree(plan.Tasks)
	var print func(nodes []*hierarchy.Node)
	print = func(nodes []*hierarchy.Node) {
		for _, n := range nodes {
			indent := strings.Repeat("  ", n.Depth)
			fmt.Printf("%s%s  %s (%d%%, %s – %s)\n",
				indent, n.Task.ID, n.Task.Name, n.Task.Progress, n.Task.StartDate, n.Task.EndDate)
			print(n.Children)
		}
	}
	print(nodes)
	return nil
}

func (c *cli) move(ctx context.Context, taskID, newParentID string, position int) error {
	return c.restructure(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		if position < 0 {
			position = len(tasks)
		}
		return c.engine.MoveTask(ctx, tasks, taskID, newParentID, position)
	})
}

func (c *cli) promote(ctx context.Context, taskID string) error {
	return c.restructure(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		return hierarchy.Promote(tasks, taskID)
	})
}

func (c *cli) demote(ctx context.Context, taskID, newParentID string) error {
	return c.restructure(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		return hierarchy.Demote(tasks, taskID, newParentID)
	})
}

func (c *cli) restructure(ctx context.Context, apply func([]*task.Task) ([]*task.Task, error)) error {
	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}

	moved, err := apply(plan.Tasks)
	if err != nil {
		return err
	}

	result, err := c.engine.Recompute(ctx, moved)
	if err != nil {
		return err
	}
	return c.repo.Save(ctx, &task.Plan{Tasks: result.Tasks, Milestones: plan.Milestones})
}

func (c *cli) recommend(ctx context.Context, taskID string) error {
	plan, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}

	recs, err := c.engine.Recommend(taskID, plan.Tasks, plan.Milestones)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No recommendations")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("  - task %s %s\n", taskID, rec)
	}
	return nil
}

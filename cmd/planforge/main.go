package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/engine"
	"github.com/planforge/planforge/internal/event"
	"github.com/planforge/planforge/internal/watch"
	"github.com/planforge/planforge/pkg/clog"
)

var (
	app = kingpin.New("planforge", "Task dependency and hierarchy scheduling engine")

	// Schedule commands
	scheduleCmd    = app.Command("schedule", "Recompute task dates from dependency constraints")
	scheduleDryRun = scheduleCmd.Flag("dry-run", "Print a diff instead of saving").Bool()

	conflictsCmd = app.Command("conflicts", "List schedule conflicts")

	criticalCmd = app.Command("critical", "Show the critical path report")

	rollupCmd = app.Command("rollup", "Show rolled-up progress for a task")
	rollupID  = rollupCmd.Arg("id", "Task ID").Required().String()

	treeCmd = app.Command("tree", "Show the task hierarchy")

	// Hierarchy commands
	moveCmd      = app.Command("move", "Move a task under a new parent")
	moveID       = moveCmd.Arg("id", "Task ID").Required().String()
	moveParent   = moveCmd.Flag("parent", "New parent task ID (omit for root)").String()
	movePosition = moveCmd.Flag("position", "Position among the new siblings").Default("-1").Int()

	promoteCmd = app.Command("promote", "Move a task up into its grandparent's group")
	promoteID  = promoteCmd.Arg("id", "Task ID").Required().String()

	demoteCmd    = app.Command("demote", "Nest a task under a new parent")
	demoteID     = demoteCmd.Arg("id", "Task ID").Required().String()
	demoteParent = demoteCmd.Flag("parent", "Target parent task ID").Required().String()

	recommendCmd = app.Command("recommend", "Show advisory suggestions for a task")
	recommendID  = recommendCmd.Arg("id", "Task ID").Required().String()

	watchCmd = app.Command("watch", "Reschedule automatically when the plan file changes")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := clog.NewLogger(env.SlogLevel())
	ctx := clog.ContextWithAttrs(context.Background())

	cli, err := newCLI(ctx, env, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case scheduleCmd.FullCommand():
		err = cli.schedule(ctx, *scheduleDryRun)
	case conflictsCmd.FullCommand():
		err = cli.conflicts(ctx)
	case criticalCmd.FullCommand():
		err = cli.critical(ctx)
	case rollupCmd.FullCommand():
		err = cli.rollup(ctx, *rollupID)
	case treeCmd.FullCommand():
		err = cli.tree(ctx)
	case moveCmd.FullCommand():
		err = cli.move(ctx, *moveID, *moveParent, *movePosition)
	case promoteCmd.FullCommand():
		err = cli.promote(ctx, *promoteID)
	case demoteCmd.FullCommand():
		err = cli.demote(ctx, *demoteID, *demoteParent)
	case recommendCmd.FullCommand():
		err = cli.recommend(ctx, *recommendID)
	case watchCmd.FullCommand():
		err = runWatch(ctx, env, cli, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWatch(ctx context.Context, env *config.Env, cli *cli, logger *slog.Logger) error {
	if env.StorageEnv.Type != "local" {
		return fmt.Errorf("watch requires local storage")
	}

	bus, err := event.NewBus()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(bus)
	planFile := localPlanFile(env)
	w := watch.New(planFile, env.WatchDebounce, cli.repo, eng, bus, logger)

	go func() {
		if err := bus.Start(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "event bus stopped", "error", err)
		}
	}()
	<-bus.Running()
	defer bus.Stop()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nWatcher stopped")
	return nil
}

// localPlanFile resolves the on-disk path of the plan for the watcher.
func localPlanFile(env *config.Env) string {
	return filepath.Join(env.StorageEnv.BaseDir, env.PlanPath)
}

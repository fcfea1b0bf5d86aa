// Package watch reloads and reschedules the plan whenever its file
// changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"

	"github.com/planforge/planforge/internal/engine"
	"github.com/planforge/planforge/internal/event"
	"github.com/planforge/planforge/internal/task"
	"github.com/planforge/planforge/pkg/clog"
	"github.com/planforge/planforge/pkg/panicerr"
)

// Watcher observes the plan file and runs a recompute+save cycle after
// each change, debounced so editor write bursts trigger one reload.
type Watcher struct {
	planFile string
	debounce time.Duration
	repo     task.Repository
	engine   engine.Service
	bus      *event.Bus
	logger   *slog.Logger
}

// New creates a watcher for planFile (an absolute or cwd-relative path
// to the file the repository persists to).
func New(planFile string, debounce time.Duration, repo task.Repository, eng engine.Service, bus *event.Bus, logger *slog.Logger) *Watcher {
	return &Watcher{
		planFile: planFile,
		debounce: debounce,
		repo:     repo,
		engine:   eng,
		bus:      bus,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled. Watching the parent
// directory instead of the file itself survives the atomic
// write-temp-then-rename saves the storage layer performs.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.planFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.InfoContext(ctx, "watching plan", "file", w.planFile)

	wg := conc.NewWaitGroup()
	defer wg.Wait()

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	// Debounce: restart the timer on every event in the burst.
	arm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case pending <- struct{}{}:
			default:
			}
		})
	}

	// At most one reload runs at a time; events arriving mid-reload
	// re-arm the debounce instead of stacking a second recompute.
	inFlight := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.planFile) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			arm()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watch error", "error", err)
		case <-pending:
			select {
			case inFlight <- struct{}{}:
			default:
				arm()
				continue
			}
			wg.Go(func() {
				defer func() { <-inFlight }()
				rctx := clog.ContextWithAttrs(ctx)
				if err := panicerr.SafeContext(w.reload)(rctx); err != nil {
					clog.AddError(rctx, err)
					w.logger.ErrorContext(rctx, "reload failed", "error", err)
				}
			})
		}
	}
}

func (w *Watcher) reload(ctx context.Context) error {
	plan, err := w.repo.Load(ctx)
	if err != nil {
		return err
	}

	result, err := w.engine.Recompute(ctx, plan.Tasks)
	if err != nil {
		return err
	}

	// Saving retriggers the watch event; scheduling is idempotent, so an
	// unchanged plan is not written back and the loop terminates.
	before, err := task.MarshalPlan(plan)
	if err != nil {
		return err
	}
	updated := &task.Plan{Tasks: result.Tasks, Milestones: plan.Milestones}
	after, err := task.MarshalPlan(updated)
	if err != nil {
		return err
	}
	if after != before {
		if err := w.repo.Save(ctx, updated); err != nil {
			return err
		}
	}

	if w.bus != nil {
		_ = w.bus.Publish(ctx, "watcher", event.PlanReloadedData{
			Path:      w.planFile,
			TaskCount: len(result.Tasks),
		})
	}
	w.logger.InfoContext(ctx, "plan rescheduled",
		"tasks", len(result.Tasks),
		"conflicts", len(result.Conflicts),
	)
	return nil
}

package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ladislavh/terminwatch/internal/watcher"
)

// ActiveLister is the store slice the registry needs to rebuild its task
// set at boot.
type ActiveLister interface {
	ListActive(ctx context.Context) ([]watcher.Watcher, error)
}

// Registry owns one periodic check task per active watcher. Starting a
// watcher that already has a task replaces it, so activate/create/delete
// flows never duplicate work. Each task is a single goroutine running
// cycles sequentially, and replacement joins the outgoing goroutine before
// spawning the new one, so a watcher never has two cycles in flight.
type Registry struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     *slog.Logger

	// baseCtx parents every task context so process shutdown cancels all.
	baseCtx context.Context

	mu    sync.Mutex
	tasks map[int64]*task
	wg    sync.WaitGroup
}

// task is one watcher's running check loop. done closes when its goroutine
// has fully exited.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates a registry. ctx is the process lifetime context.
func NewRegistry(ctx context.Context, reconciler *Reconciler, interval time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
		baseCtx:    ctx,
		tasks:      make(map[int64]*task),
	}
}

// Start spawns (or replaces) the periodic task for a watcher. The first
// cycle runs immediately, then every interval. A replaced task is cancelled
// and joined before its successor spawns, so a rapid toggle can never have
// two cycles in flight for the same watcher.
func (g *Registry) Start(watcherID int64) {
	for {
		g.mu.Lock()
		old := g.tasks[watcherID]
		if old == nil {
			ctx, cancel := context.WithCancel(g.baseCtx)
			t := &task{cancel: cancel, done: make(chan struct{})}
			g.tasks[watcherID] = t
			g.mu.Unlock()

			g.wg.Add(1)
			go func() {
				defer g.wg.Done()
				defer close(t.done)
				g.loop(ctx, watcherID)
			}()
			g.logger.Info("watcher task started", "watcher", watcherID, "interval", g.interval)
			return
		}
		delete(g.tasks, watcherID)
		g.mu.Unlock()

		old.cancel()
		<-old.done
	}
}

// Stop cancels a watcher's task and waits for an in-flight cycle to finish;
// no further cycles are scheduled. Stopping an unknown watcher is a no-op.
func (g *Registry) Stop(watcherID int64) {
	g.mu.Lock()
	t := g.tasks[watcherID]
	delete(g.tasks, watcherID)
	g.mu.Unlock()
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
	g.logger.Info("watcher task stopped", "watcher", watcherID)
}

// StopAll cancels every task and waits for in-flight cycles to finish.
func (g *Registry) StopAll() {
	g.mu.Lock()
	for id, t := range g.tasks {
		t.cancel()
		delete(g.tasks, id)
	}
	g.mu.Unlock()
	g.wg.Wait()
}

// Running reports whether a task exists for the watcher.
func (g *Registry) Running(watcherID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[watcherID]
	return ok
}

// Count returns the number of running tasks.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// Resync re-derives the task set from persisted active watchers. Called at
// process boot so watchers survive restarts.
func (g *Registry) Resync(ctx context.Context, store ActiveLister) error {
	active, err := store.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, w := range active {
		g.Start(w.ID)
	}
	g.logger.Info("watcher tasks resynced", "count", len(active))
	return nil
}

func (g *Registry) loop(ctx context.Context, watcherID int64) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	// Cancelled before the first cycle got to run, nothing to do.
	if ctx.Err() != nil {
		return
	}

	g.runOnce(ctx, watcherID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.runOnce(ctx, watcherID)
		}
	}
}

// runOnce executes a cycle with a panic guard: one watcher's failure must
// never take down the scheduler or touch other watchers.
func (g *Registry) runOnce(ctx context.Context, watcherID int64) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("check cycle panicked", "watcher", watcherID, "panic", rec)
		}
	}()

	if err := g.reconciler.Run(ctx, watcherID); err != nil {
		g.logger.Error("check cycle failed", "watcher", watcherID, "error", err)
	}
}

// Package maintenance runs periodic housekeeping tasks as Go tickers.
// All scheduled work is driven from Go since the server is already a
// persistent, long-running process.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskStopper cancels the periodic check task of a watcher that is no
// longer active.
type TaskStopper interface {
	Stop(watcherID int64)
}

// SlotPruner removes notified-slot rows whose date is before the given ISO
// date.
type SlotPruner interface {
	DeletePastDates(ctx context.Context, before string) (int64, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Notified-slot rows for past dates
	ExpireInterval  time.Duration // Watchers whose target dates are all past
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 1 * time.Hour,
		ExpireInterval:  6 * time.Hour,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pool *pgxpool.Pool, notified SlotPruner, tasks TaskStopper, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"expire", cfg.ExpireInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Cleanup: drop notified-slot rows whose date has passed
	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { cleanup(ctx, notified, logger) })
	}

	// Expire: deactivate watchers with no future target dates left
	if cfg.ExpireInterval > 0 {
		t := time.NewTicker(cfg.ExpireInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { expireWatchers(ctx, pool, tasks, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// cleanup removes notified-slot rows for dates that are already in the
// past. The reconciler never looks at them again and they only grow the
// table.
func cleanup(ctx context.Context, notified SlotPruner, logger *slog.Logger) {
	today := time.Now().UTC().Format("2006-01-02")
	n, err := notified.DeletePastDates(ctx, today)
	if err != nil {
		logger.Warn("Cleanup: failed to purge past notified slots", "error", err)
	} else if n > 0 {
		logger.Info("Cleanup: purged past notified slots", "count", n)
	}
}

// expireWatchers deactivates watchers whose target dates are all in the
// past and stops their check tasks. The rows stay around so the owner can
// still open the status page and see what happened.
func expireWatchers(ctx context.Context, pool *pgxpool.Pool, tasks TaskStopper, logger *slog.Logger) {
	today := time.Now().UTC().Format("2006-01-02")
	rows, err := pool.Query(ctx, `
		UPDATE watchers
		SET active = FALSE
		WHERE active = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM unnest(target_dates) AS d
			WHERE d >= $1
		  )
		RETURNING id`, today)
	if err != nil {
		logger.Warn("Expire: failed to deactivate finished watchers", "error", err)
		return
	}
	defer rows.Close()

	var expired []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			logger.Warn("Expire: scan failed", "error", err)
			return
		}
		expired = append(expired, id)
	}
	if err := rows.Err(); err != nil {
		logger.Warn("Expire: query failed", "error", err)
		return
	}

	for _, id := range expired {
		tasks.Stop(id)
	}
	if len(expired) > 0 {
		logger.Info("Expire: deactivated finished watchers", "count", len(expired))
	}
}

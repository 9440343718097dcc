package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ladislavh/terminwatch/internal/slot"
	"github.com/ladislavh/terminwatch/internal/watcher"
)

// WatcherStore is the slice of the watcher store the engine needs.
type WatcherStore interface {
	Get(ctx context.Context, id int64) (*watcher.Watcher, error)
	SetLastCheckAt(ctx context.Context, id int64, t time.Time) error
}

// NotifiedStore is the persistence contract for previously-notified slots.
type NotifiedStore interface {
	ListForWatcher(ctx context.Context, watcherID int64) ([]slot.Notified, error)
	InsertMany(ctx context.Context, watcherID int64, slots []slot.Slot) error
	DeleteMany(ctx context.Context, watcherID int64, slots []slot.Slot) error
}

// Fetcher retrieves raw availability markup for one week window.
type Fetcher interface {
	FetchWindow(ctx context.Context, doctorCode, doctorURL string, window int) (string, error)
}

// Dispatcher sends one batched notification covering all new slots.
type Dispatcher interface {
	Send(ctx context.Context, w *watcher.Watcher, slots []slot.Slot) error
}

// Reconciler runs one check cycle for one watcher: fetch the relevant week
// windows, parse availability, diff against notified state, notify once for
// all new slots, and prune notified records whose slot has disappeared.
type Reconciler struct {
	watchers WatcherStore
	notified NotifiedStore
	fetcher  Fetcher
	sender   Dispatcher
	logger   *slog.Logger

	// now is the clock used for window computation and bookkeeping;
	// overridable in tests.
	now func() time.Time
}

// NewReconciler wires the engine's collaborators together.
func NewReconciler(watchers WatcherStore, notified NotifiedStore, fetcher Fetcher, sender Dispatcher, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		watchers: watchers,
		notified: notified,
		fetcher:  fetcher,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one check cycle. A missing or inactive watcher is a no-op,
// not an error. The returned error reports a cycle that could not complete;
// the scheduling layer logs it and carries on — cycles never propagate
// failure beyond their own run.
func (r *Reconciler) Run(ctx context.Context, watcherID int64) error {
	w, err := r.watchers.Get(ctx, watcherID)
	if errors.Is(err, watcher.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load watcher %d: %w", watcherID, err)
	}
	if !w.Active {
		return nil
	}

	log := r.logger.With("watcher", w.ID, "doctor", w.DoctorName)

	// Bookkeeping happens whatever the cycle's outcome.
	defer r.touch(ctx, w.ID)

	windows := QueryWindows(w.TargetDates, r.now())
	if len(windows) == 0 {
		log.Info("all target dates in the past, nothing to check")
		return nil
	}

	// Best-effort gather: each window fetch stands alone, a failed window
	// contributes zero slots and never cancels the others.
	targetSet := w.TargetDateSet()
	var allSlots []slot.Slot
	for _, win := range windows {
		markup, err := r.fetcher.FetchWindow(ctx, w.DoctorCode, w.DoctorURL, win)
		if err != nil {
			log.Warn("window fetch failed", "window", win, "error", err)
			continue
		}
		for _, s := range slot.ParseAvailable(markup) {
			// Windows can return dates outside the requested set.
			if targetSet[s.Date] {
				allSlots = append(allSlots, s)
			}
		}
	}

	notified, err := r.notified.ListForWatcher(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("list notified slots: %w", err)
	}
	notifiedSet := make(map[string]bool, len(notified))
	for _, n := range notified {
		notifiedSet[n.Key()] = true
	}

	var newSlots []slot.Slot
	for _, s := range allSlots {
		if !notifiedSet[s.Key()] {
			newSlots = append(newSlots, s)
		}
	}

	if len(newSlots) > 0 {
		log.Info("new slots found", "count", len(newSlots))
		if err := r.sender.Send(ctx, w, newSlots); err != nil {
			// Nothing is recorded: the whole batch is retried (and re-sent
			// in full) next cycle rather than ever silently dropped.
			log.Warn("notification failed, slots will be retried", "error", err)
		} else if err := r.notified.InsertMany(ctx, w.ID, newSlots); err != nil {
			return fmt.Errorf("record notified slots: %w", err)
		}
	}

	return r.prune(ctx, w.ID, allSlots, notified, log)
}

// prune deletes notified records whose slot is absent from the current
// availability snapshot, so a later re-opening of the same (date, time)
// notifies again.
func (r *Reconciler) prune(ctx context.Context, watcherID int64, current []slot.Slot, notified []slot.Notified, log *slog.Logger) error {
	currentSet := make(map[string]bool, len(current))
	for _, s := range current {
		currentSet[s.Key()] = true
	}

	var stale []slot.Slot
	for _, n := range notified {
		if !currentSet[n.Key()] {
			stale = append(stale, n.Slot)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	if err := r.notified.DeleteMany(ctx, watcherID, stale); err != nil {
		return fmt.Errorf("prune stale notified slots: %w", err)
	}
	log.Info("pruned unavailable slots", "count", len(stale))
	return nil
}

// touch records the check time. Best-effort bookkeeping: it runs whatever
// happened earlier in the cycle, and its own failure is only logged.
func (r *Reconciler) touch(ctx context.Context, watcherID int64) {
	if err := r.watchers.SetLastCheckAt(ctx, watcherID, r.now()); err != nil {
		r.logger.Warn("update last check time failed", "watcher", watcherID, "error", err)
	}
}

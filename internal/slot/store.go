package slot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifiedStore persists notified slots in Postgres. Uniqueness of
// (watcher_id, slot_date, slot_time) is enforced by a table constraint;
// inserts are upsert-or-skip so retries never corrupt state.
type NotifiedStore struct {
	pool *pgxpool.Pool
}

// NewNotifiedStore creates a notified-slot store backed by the shared pool.
func NewNotifiedStore(pool *pgxpool.Pool) *NotifiedStore {
	return &NotifiedStore{pool: pool}
}

// ListForWatcher returns all notified slots for one watcher, ordered by
// (date, time).
func (s *NotifiedStore) ListForWatcher(ctx context.Context, watcherID int64) ([]Notified, error) {
	rows, err := s.pool.Query(ctx, "notified_for_watcher", watcherID)
	if err != nil {
		return nil, fmt.Errorf("list notified slots: %w", err)
	}
	defer rows.Close()

	var out []Notified
	for rows.Next() {
		var n Notified
		if err := rows.Scan(&n.Date, &n.Time, &n.NotifiedAt); err != nil {
			return nil, fmt.Errorf("scan notified slot: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// InsertMany records a batch of slots as notified in one transaction: the
// whole batch lands or none of it does, so a mid-batch failure never leaves
// a partially recorded notification. Duplicates are skipped (ON CONFLICT
// DO NOTHING), keeping the call idempotent.
func (s *NotifiedStore) InsertMany(ctx context.Context, watcherID int64, slots []Slot) error {
	if len(slots) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin notified insert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sl := range slots {
		if _, err := tx.Exec(ctx, "notified_insert", watcherID, sl.Date, sl.Time); err != nil {
			return fmt.Errorf("insert notified slot %s: %w", sl.Key(), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit notified insert: %w", err)
	}
	return nil
}

// DeleteMany removes notified records for slots that have disappeared from
// the remote snapshot, allowing a later re-opening to notify again.
func (s *NotifiedStore) DeleteMany(ctx context.Context, watcherID int64, slots []Slot) error {
	for _, sl := range slots {
		if _, err := s.pool.Exec(ctx, "notified_delete", watcherID, sl.Date, sl.Time); err != nil {
			return fmt.Errorf("delete notified slot %s: %w", sl.Key(), err)
		}
	}
	return nil
}

// CountForWatcher returns the notified-slot count for one watcher.
func (s *NotifiedStore) CountForWatcher(ctx context.Context, watcherID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "notified_count_watcher", watcherID).Scan(&n)
	return n, err
}

// CountAll returns the total notified-slot count (admin dashboard).
func (s *NotifiedStore) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "notified_count_all").Scan(&n)
	return n, err
}

// DeletePastDates removes notified rows whose slot date is before the given
// ISO date. Past slots can never reappear in a fetch, so the reconciler
// never sees them again; this keeps the table from accumulating dead rows.
func (s *NotifiedStore) DeletePastDates(ctx context.Context, before string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM notified_slots WHERE slot_date < $1", before)
	if err != nil {
		return 0, fmt.Errorf("delete past notified slots: %w", err)
	}
	return tag.RowsAffected(), nil
}

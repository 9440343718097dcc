package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists watchers in Postgres. Statement names are registered in
// internal/db at connection time.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a watcher store backed by the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new watcher and returns it with ID, public ID, and
// created_at populated. Target dates are stored deduplicated in input order.
func (s *Store) Create(ctx context.Context, w Watcher) (*Watcher, error) {
	w.PublicID = uuid.NewString()
	w.TargetDates = dedupe(w.TargetDates)
	w.Active = true

	err := s.pool.QueryRow(ctx, `
		INSERT INTO watchers (public_id, doctor_name, doctor_url, doctor_code, target_dates,
			channel, telegram_bot_token, telegram_chat_id, email, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at`,
		w.PublicID, w.DoctorName, w.DoctorURL, w.DoctorCode, w.TargetDates,
		w.Channel, nullable(w.TelegramBotToken), nullable(w.TelegramChatID), nullable(w.Email), w.Active,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert watcher: %w", err)
	}
	return &w, nil
}

// Get returns one watcher by internal ID.
func (s *Store) Get(ctx context.Context, id int64) (*Watcher, error) {
	return s.scanOne(s.pool.QueryRow(ctx, "watcher_by_id", id))
}

// GetByPublicID returns one watcher by its user-facing UUID.
func (s *Store) GetByPublicID(ctx context.Context, publicID string) (*Watcher, error) {
	return s.scanOne(s.pool.QueryRow(ctx, "watcher_by_public_id", publicID))
}

// List returns all watchers, newest first.
func (s *Store) List(ctx context.Context) ([]Watcher, error) {
	rows, err := s.pool.Query(ctx, "watchers_all")
	if err != nil {
		return nil, fmt.Errorf("list watchers: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// ListActive returns all active watchers, newest first. Used at boot to
// re-derive the periodic task set.
func (s *Store) ListActive(ctx context.Context) ([]Watcher, error) {
	rows, err := s.pool.Query(ctx, "watchers_active")
	if err != nil {
		return nil, fmt.Errorf("list active watchers: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// SetActive flips the active flag.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := s.pool.Exec(ctx, "watcher_set_active", id, active)
	return err
}

// SetLastCheckAt records cycle bookkeeping. Best-effort by contract: the
// engine calls this regardless of cycle outcome.
func (s *Store) SetLastCheckAt(ctx context.Context, id int64, t time.Time) error {
	_, err := s.pool.Exec(ctx, "watcher_set_last_check", id, t)
	return err
}

// Delete removes a watcher; notified slots cascade via FK.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, "watcher_delete", id)
	return err
}

// Counts returns (total, active) watcher counts for the admin dashboard.
func (s *Store) Counts(ctx context.Context) (total, active int, err error) {
	err = s.pool.QueryRow(ctx, "watchers_count").Scan(&total, &active)
	return total, active, err
}

// --------------------------------------------------------------------------
// Scan helpers
// --------------------------------------------------------------------------

func (s *Store) scanOne(row pgx.Row) (*Watcher, error) {
	var w Watcher
	var botToken, chatID, email *string
	err := row.Scan(
		&w.ID, &w.PublicID, &w.DoctorName, &w.DoctorURL, &w.DoctorCode, &w.TargetDates,
		&w.Channel, &botToken, &chatID, &email, &w.Active, &w.LastCheckAt, &w.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan watcher: %w", err)
	}
	w.TelegramBotToken = deref(botToken)
	w.TelegramChatID = deref(chatID)
	w.Email = deref(email)
	return &w, nil
}

func scanAll(rows pgx.Rows) ([]Watcher, error) {
	var out []Watcher
	for rows.Next() {
		var w Watcher
		var botToken, chatID, email *string
		if err := rows.Scan(
			&w.ID, &w.PublicID, &w.DoctorName, &w.DoctorURL, &w.DoctorCode, &w.TargetDates,
			&w.Channel, &botToken, &chatID, &email, &w.Active, &w.LastCheckAt, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		w.TelegramBotToken = deref(botToken)
		w.TelegramChatID = deref(chatID)
		w.Email = deref(email)
		out = append(out, w)
	}
	return out, rows.Err()
}

func dedupe(dates []string) []string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

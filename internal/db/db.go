// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladislavh/terminwatch/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the web and watch
// layers use. Prepared statements eliminate parse overhead on every cycle.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Watchers
		"watcher_by_id": `SELECT id, public_id, doctor_name, doctor_url, doctor_code, target_dates,
			channel, telegram_bot_token, telegram_chat_id, email, active, last_check_at, created_at
			FROM watchers WHERE id = $1`,
		"watcher_by_public_id": `SELECT id, public_id, doctor_name, doctor_url, doctor_code, target_dates,
			channel, telegram_bot_token, telegram_chat_id, email, active, last_check_at, created_at
			FROM watchers WHERE public_id = $1`,
		"watchers_all": `SELECT id, public_id, doctor_name, doctor_url, doctor_code, target_dates,
			channel, telegram_bot_token, telegram_chat_id, email, active, last_check_at, created_at
			FROM watchers ORDER BY created_at DESC`,
		"watchers_active": `SELECT id, public_id, doctor_name, doctor_url, doctor_code, target_dates,
			channel, telegram_bot_token, telegram_chat_id, email, active, last_check_at, created_at
			FROM watchers WHERE active ORDER BY created_at DESC`,
		"watcher_set_active":     "UPDATE watchers SET active = $2 WHERE id = $1",
		"watcher_set_last_check": "UPDATE watchers SET last_check_at = $2 WHERE id = $1",
		"watcher_delete":         "DELETE FROM watchers WHERE id = $1",
		"watchers_count":         "SELECT count(*), count(*) FILTER (WHERE active) FROM watchers",

		// Notified slots
		"notified_for_watcher": `SELECT slot_date, slot_time, notified_at
			FROM notified_slots WHERE watcher_id = $1 ORDER BY slot_date, slot_time`,
		"notified_insert": `INSERT INTO notified_slots (watcher_id, slot_date, slot_time)
			VALUES ($1, $2, $3) ON CONFLICT (watcher_id, slot_date, slot_time) DO NOTHING`,
		"notified_delete":        "DELETE FROM notified_slots WHERE watcher_id = $1 AND slot_date = $2 AND slot_time = $3",
		"notified_count_watcher": "SELECT count(*) FROM notified_slots WHERE watcher_id = $1",
		"notified_count_all":     "SELECT count(*) FROM notified_slots",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

// Command watchctl is the Terminwatch operations CLI.
//
// Usage:
//
//	watchctl migrate
//	watchctl watchers list
//	watchctl check --watcher 3
//	watchctl notify test --watcher 3
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ladislavh/terminwatch/internal/config"
	"github.com/ladislavh/terminwatch/internal/db"
	"github.com/ladislavh/terminwatch/internal/notify"
	"github.com/ladislavh/terminwatch/internal/remote"
	"github.com/ladislavh/terminwatch/internal/slot"
	"github.com/ladislavh/terminwatch/internal/watch"
	"github.com/ladislavh/terminwatch/internal/watcher"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "watchctl",
		Short: "Terminwatch operations CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(watchersCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(notifyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				start := time.Now()
				if err := db.Migrate(ctx, pool.Pool); err != nil {
					return err
				}
				logger.Info("Migrations applied", "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// watchers command
// --------------------------------------------------------------------------

func watchersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchers",
		Short: "Inspect watchers",
	}
	cmd.AddCommand(watchersListCmd())
	return cmd
}

func watchersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all watchers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := watcher.NewStore(pool.Pool)
				all, err := store.List(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("%-5s %-10s %-40s %-9s %-7s %-6s %s\n",
					"ID", "CHANNEL", "DOCTOR", "CODE", "ACTIVE", "DATES", "LAST CHECK")
				for _, w := range all {
					lastCheck := "-"
					if w.LastCheckAt != nil {
						lastCheck = w.LastCheckAt.Format("2006-01-02 15:04")
					}
					fmt.Printf("%-5d %-10s %-40s %-9s %-7t %-6d %s\n",
						w.ID, w.Channel, w.DoctorName, w.DoctorCode,
						w.Active, len(w.TargetDates), lastCheck)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var watcherID int64
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one check cycle for a watcher now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watcherID == 0 {
				return fmt.Errorf("--watcher is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				watchers := watcher.NewStore(pool.Pool)
				notified := slot.NewNotifiedStore(pool.Pool)
				fetcher := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteReqsPerMin, logger)
				dispatcher := buildDispatcher(cfg)

				reconciler := watch.NewReconciler(watchers, notified, fetcher, dispatcher, logger)
				start := time.Now()
				if err := reconciler.Run(ctx, watcherID); err != nil {
					return fmt.Errorf("check watcher %d: %w", watcherID, err)
				}
				logger.Info("Check finished", "watcher_id", watcherID, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&watcherID, "watcher", 0, "Watcher ID to check")
	return cmd
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification delivery helpers",
	}
	cmd.AddCommand(notifyTestCmd())
	return cmd
}

func notifyTestCmd() *cobra.Command {
	var watcherID int64
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a fabricated slot through a watcher's channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watcherID == 0 {
				return fmt.Errorf("--watcher is required")
			}
			return run(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := watcher.NewStore(pool.Pool)
				w, err := store.Get(ctx, watcherID)
				if err != nil {
					return err
				}

				dispatcher := buildDispatcher(cfg)
				fake := slot.Slot{
					Date: time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
					Time: "09:00",
				}
				if err := dispatcher.Send(ctx, w, []slot.Slot{fake}); err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				logger.Info("Test notification sent", "watcher_id", w.ID, "channel", w.Channel)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&watcherID, "watcher", 0, "Watcher ID to notify")
	return cmd
}

// buildDispatcher wires the notification senders from configured credentials.
func buildDispatcher(cfg *config.Config) *notify.Dispatcher {
	telegram := notify.NewTelegramSender("", logger)
	email := notify.NewEmailSender("", cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.MailjetSenderEmail, cfg.MailjetSenderName, logger)
	return notify.NewDispatcher(telegram, email, logger)
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// run handles config loading, DB connection, and context cancellation.
func run(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// Package notify delivers slot notifications over the watcher's configured
// channel. One send covers the whole batch of new slots for a cycle — the
// user gets a single message, never one per slot.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ladislavh/terminwatch/internal/slot"
	"github.com/ladislavh/terminwatch/internal/watcher"
)

// Dispatcher routes a notification to the Telegram or email sender based on
// the watcher's stored channel type.
type Dispatcher struct {
	telegram *TelegramSender
	email    *EmailSender // nil when Mailjet is not configured
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. email may be nil; email-channel sends
// then fail until the process is configured with Mailjet credentials.
func NewDispatcher(telegram *TelegramSender, email *EmailSender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{telegram: telegram, email: email, logger: logger}
}

// Send delivers one batched notification for the given slots. An empty
// batch trivially succeeds without sending anything.
func (d *Dispatcher) Send(ctx context.Context, w *watcher.Watcher, slots []slot.Slot) error {
	if len(slots) == 0 {
		return nil
	}

	switch w.Channel {
	case watcher.ChannelEmail:
		if d.email == nil {
			return fmt.Errorf("email channel requested but Mailjet is not configured")
		}
		return d.email.Send(ctx, w.Email, w.DoctorName, w.DoctorURL, slots)
	case watcher.ChannelTelegram:
		return d.telegram.Send(ctx, w.TelegramBotToken, w.TelegramChatID, w.DoctorName, w.DoctorURL, slots)
	default:
		return fmt.Errorf("unknown notification channel %q", w.Channel)
	}
}

// sortedCopy returns the slots ordered by (date, time) ascending, leaving
// the caller's slice untouched.
func sortedCopy(slots []slot.Slot) []slot.Slot {
	out := make([]slot.Slot, len(slots))
	copy(out, slots)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

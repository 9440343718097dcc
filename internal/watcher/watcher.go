// Package watcher defines the Watcher value type and its Postgres store.
// A Watcher is one user's standing request to monitor a doctor listing for
// a set of target dates via one notification channel.
package watcher

import (
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups when no watcher matches.
var ErrNotFound = errors.New("watcher not found")

// Notification channel identifiers stored in the channel column.
const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"
)

// Watcher is a plain immutable snapshot of one watcher row. The watch
// engine operates on these values; all mutation goes through the Store.
type Watcher struct {
	ID       int64
	PublicID string // user-facing UUID

	DoctorName string
	DoctorURL  string
	DoctorCode string

	TargetDates []string // ISO dates, deduplicated

	Channel          string // ChannelTelegram or ChannelEmail
	TelegramBotToken string
	TelegramChatID   string
	Email            string

	Active      bool
	LastCheckAt *time.Time
	CreatedAt   time.Time
}

// TargetDateSet returns the target dates as a membership set.
func (w *Watcher) TargetDateSet() map[string]bool {
	set := make(map[string]bool, len(w.TargetDates))
	for _, d := range w.TargetDates {
		set[d] = true
	}
	return set
}

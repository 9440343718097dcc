// Package slot defines appointment slot values, the availability markup
// parser, and the notified-slot store.
package slot

import "time"

// Slot is one (date, time) appointment opening reported by the remote
// service as currently bookable. Transient: produced fresh each cycle,
// never stored directly — only its identity survives as a notified row.
type Slot struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM
}

// Key is the composite identity used for diffing and reconciliation.
func (s Slot) Key() string {
	return s.Date + " " + s.Time
}

// Notified is a persisted record that a slot has been reported to the user
// and has not since disappeared from the remote availability snapshot.
type Notified struct {
	Slot
	NotifiedAt time.Time
}

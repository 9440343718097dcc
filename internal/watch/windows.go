// Package watch contains the check-cycle engine: query window computation,
// the per-watcher reconciler, and the registry of periodic watcher tasks.
package watch

import (
	"sort"
	"time"
)

const isoDate = "2006-01-02"

// QueryWindows computes the distinct week windows the remote schedule must
// be queried for, given the watcher's target dates. Window 0 is the week
// containing today, window 1 the next week, and so on:
//
//	window = floor((target − today) / 7)  in calendar days
//
// Past dates are discarded (never queried) and unparseable dates skipped.
// The result is sorted ascending; an empty result means nothing to check.
func QueryWindows(targetDates []string, today time.Time) []int {
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	seen := make(map[int]bool)
	for _, ds := range targetDates {
		target, err := time.Parse(isoDate, ds)
		if err != nil {
			continue
		}
		daysDiff := int(target.Sub(todayMidnight).Hours() / 24)
		if daysDiff < 0 {
			continue
		}
		seen[floorDiv(daysDiff, 7)] = true
	}

	windows := make([]int, 0, len(seen))
	for w := range seen {
		windows = append(windows, w)
	}
	sort.Ints(windows)
	return windows
}

// floorDiv rounds toward negative infinity, so that a hypothetical negative
// remainder still lands in the earlier window.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

package watch

import (
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestQueryWindows(t *testing.T) {
	t.Parallel()

	// Saturday 2025-12-20; the week containing today is window 0.
	today := date(2025, time.December, 20)

	tests := []struct {
		name    string
		targets []string
		want    []int
	}{
		{
			name:    "ten days out lands in window 1",
			targets: []string{"2025-12-30"},
			want:    []int{1},
		},
		{
			name:    "today is window 0",
			targets: []string{"2025-12-20"},
			want:    []int{0},
		},
		{
			name:    "six days out still window 0",
			targets: []string{"2025-12-26"},
			want:    []int{0},
		},
		{
			name:    "seven days out is window 1",
			targets: []string{"2025-12-27"},
			want:    []int{1},
		},
		{
			name:    "duplicate windows collapse",
			targets: []string{"2025-12-28", "2025-12-29", "2025-12-30"},
			want:    []int{1},
		},
		{
			name:    "mixed windows sorted ascending",
			targets: []string{"2026-01-15", "2025-12-20", "2025-12-30"},
			want:    []int{0, 1, 3},
		},
		{
			name:    "past dates discarded",
			targets: []string{"2025-12-19", "2025-12-30"},
			want:    []int{1},
		},
		{
			name:    "all past yields empty",
			targets: []string{"2025-12-01", "2024-06-15"},
			want:    []int{},
		},
		{
			name:    "unparseable dates skipped",
			targets: []string{"not-a-date", "2025-12-30", ""},
			want:    []int{1},
		},
		{
			name:    "no targets",
			targets: nil,
			want:    []int{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := QueryWindows(tt.targets, today)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("QueryWindows(%v) = %v, want %v", tt.targets, got, tt.want)
			}
		})
	}
}

func TestFloorDiv(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b, want int
	}{
		{10, 7, 1},
		{7, 7, 1},
		{6, 7, 0},
		{0, 7, 0},
		{-1, 7, -1},
		{-7, 7, -1},
		{-8, 7, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

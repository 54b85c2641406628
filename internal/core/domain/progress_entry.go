package domain

import (
	"sort"
	"time"
)

// DayLayout identifies a calendar day in the host's local time.
const DayLayout = "2006-01-02"

type ProgressEntry struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

func DayOf(t time.Time) string {
	return t.Format(DayLayout)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SortEntries orders entries by day, oldest first. The input is not modified.
func SortEntries(entries []ProgressEntry) []ProgressEntry {
	sorted := make([]ProgressEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	return sorted
}

// ValueOn returns the value recorded for the given day, if any.
func ValueOn(entries []ProgressEntry, day string) (int, bool) {
	for _, e := range entries {
		if e.Date == day {
			return e.Value, true
		}
	}
	return 0, false
}

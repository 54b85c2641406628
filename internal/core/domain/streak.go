package domain

import (
	"sort"
	"time"
)

func uniqueDays(entries []ProgressEntry) []string {
	seen := make(map[string]bool, len(entries))
	days := make([]string, 0, len(entries))
	for _, e := range entries {
		if !seen[e.Date] {
			seen[e.Date] = true
			days = append(days, e.Date)
		}
	}
	return days
}

// CurrentStreak counts consecutive logged days ending today. A day counts when
// it has an entry, whatever its value; no entry today means a streak of 0.
func CurrentStreak(entries []ProgressEntry, now time.Time) int {
	days := uniqueDays(entries)
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	today := StartOfDay(now)
	streak := 0
	for i, day := range days {
		expected := DayOf(today.AddDate(0, 0, -i))
		if day != expected {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak is the longest run of consecutive logged days anywhere in the log.
func LongestStreak(entries []ProgressEntry) int {
	days := uniqueDays(entries)
	sort.Strings(days)

	longest, run := 0, 0
	var prev time.Time
	for _, day := range days {
		t, err := time.ParseInLocation(DayLayout, day, time.Local)
		if err != nil {
			continue
		}
		if run > 0 && DayOf(prev.AddDate(0, 0, 1)) == day {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = t
	}
	return longest
}

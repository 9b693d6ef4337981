// Package streak holds the consecutive-day activity rules.
package streak

import "time"

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Next returns the streak after activity on today. Activity already recorded
// today leaves it unchanged; activity yesterday extends it; anything older
// (or none) starts a new streak of 1.
func Next(lastActivity *time.Time, current int, today time.Time) int {
	today = Day(today)
	if lastActivity == nil || lastActivity.IsZero() {
		return 1
	}

	last := Day(*lastActivity)
	switch {
	case last.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// Longest keeps the best streak seen so far.
func Longest(longest, current int) int {
	if current > longest {
		return current
	}
	return longest
}

// Broken reports whether a streak whose last activity is lastActivity no
// longer counts on today.
func Broken(lastActivity *time.Time, today time.Time) bool {
	if lastActivity == nil {
		return true
	}
	return Day(*lastActivity).Before(Day(today).AddDate(0, 0, -1))
}

package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
	return &t
}

func TestNext(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		last     *time.Time
		current  int
		expected int
	}{
		{"first activity ever", nil, 0, 1},
		{"already active today", day(2026, 3, 10), 4, 4},
		{"active today with zero streak", day(2026, 3, 10), 0, 1},
		{"active yesterday", day(2026, 3, 9), 4, 5},
		{"gap of two days", day(2026, 3, 8), 4, 1},
		{"long gap", day(2025, 12, 1), 40, 1},
		{"across month boundary", day(2026, 2, 28), 2, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Next(tc.last, tc.current, today))
		})
	}
}

func TestNext_MonthBoundaryYesterday(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, 3, Next(day(2026, 2, 28), 2, today))
}

func TestNext_UsesUTCDates(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2026-03-10 02:00 at UTC+10 is 2026-03-09 16:00 UTC.
	today := time.Date(2026, 3, 10, 2, 0, 0, 0, loc)
	assert.Equal(t, 7, Next(day(2026, 3, 9), 7, today))
}

func TestLongest(t *testing.T) {
	assert.Equal(t, 5, Longest(5, 3))
	assert.Equal(t, 6, Longest(5, 6))
}

func TestBroken(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, Broken(nil, today))
	assert.False(t, Broken(day(2026, 3, 10), today))
	assert.False(t, Broken(day(2026, 3, 9), today))
	assert.True(t, Broken(day(2026, 3, 8), today))
}

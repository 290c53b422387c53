// Package analytics implements the statistical heart of LifeTrack:
// streak tracking, trend detection, statistical reports, and time series
// forecasting. Every function here is a pure computation over the record
// collections it is handed; callers own persistence.
package analytics

import (
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// StreakState is the derived streak triple for one habit. It is recomputed
// from the full completion history after every completion write.
type StreakState struct {
	CurrentStreak    int `json:"current_streak"`
	LongestStreak    int `json:"longest_streak"`
	TotalCompletions int `json:"total_completions"`
}

// ComputeStreaks derives streak state from a habit's completion records.
// Records may arrive in any order; dates are compared as calendar days
// anchored at today.
func ComputeStreaks(completions []core.HabitCompletion, today time.Time) StreakState {
	state := StreakState{TotalCompletions: len(completions)}
	if len(completions) == 0 {
		return state
	}

	days := make([]time.Time, len(completions))
	for i, c := range completions {
		days[i] = core.Day(c.Date)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	// Current streak: walk backward from today, stop at the first gap.
	// A missing completion for today means the streak is 0.
	have := make(map[time.Time]bool, len(days))
	for _, d := range days {
		have[d] = true
	}
	check := core.Day(today)
	for have[check] {
		state.CurrentStreak++
		check = check.AddDate(0, 0, -1)
	}

	// Longest streak: scan ascending, counting runs of consecutive days.
	longest := 0
	run := 0
	var prev time.Time
	for i, d := range days {
		switch {
		case i == 0:
			run = 1
		case d.Equal(prev):
			// Duplicate day after aggregation; does not extend the run.
		case core.DaysBetween(prev, d) == 1:
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	state.LongestStreak = longest

	return state
}

// DaysSinceLastCompletion returns the calendar days between the most recent
// completion and today, or -1 when there are no completions.
func DaysSinceLastCompletion(completions []core.HabitCompletion, today time.Time) int {
	if len(completions) == 0 {
		return -1
	}
	latest := core.Day(completions[0].Date)
	for _, c := range completions[1:] {
		if d := core.Day(c.Date); d.After(latest) {
			latest = d
		}
	}
	return core.DaysBetween(latest, today)
}

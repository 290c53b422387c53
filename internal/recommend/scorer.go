// Package recommend ranks pending tasks and active habits by urgency.
// Scoring is a pure function of the record collections supplied per call;
// the optional trained priority model is loaded once and read-only.
package recommend

import (
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// Reason codes attached to recommendations
const (
	ReasonOverdue         = "overdue"
	ReasonDueToday        = "due_today"
	ReasonDueSoon         = "due_soon"
	ReasonHighPriority    = "high_priority"
	ReasonFocusTask       = "focus_task"
	ReasonCategorySuccess = "category_success"
	ReasonNewTask         = "new_task"
	ReasonStreakLapsed    = "streak_lapsed"
	ReasonStreakDeficit   = "streak_deficit"
	ReasonLowCompletion   = "low_completion_rate"
	ReasonOnTrack         = "on_track"
)

// historyWindow is how many recent completed tasks inform category scoring.
const historyWindow = 50

// rateWindowDays bounds the window the habit completion rate is estimated
// over.
const rateWindowDays = 30

// defaultSuccessRate applies to categories absent from the history window.
const defaultSuccessRate = 0.5

// TaskRecommendation ranks one pending task
type TaskRecommendation struct {
	TaskID   core.TaskID   `json:"task_id"`
	Title    string        `json:"title"`
	Category string        `json:"category"`
	Priority core.Priority `json:"priority"`
	DueDate  *time.Time    `json:"due_date,omitempty"`
	Score    float64       `json:"score"`
	Reasons  []string      `json:"reasons"`
}

// RecommendTasks scores pending tasks against the user's completion history
// and returns them ranked by descending urgency, truncated to limit. Ties
// keep input order. With no completed-task history at all, every pending
// task gets a flat score of 10 in input order.
func RecommendTasks(pending, completed []core.Task, limit int, today time.Time) []TaskRecommendation {
	recs := []TaskRecommendation{}

	history := recentCompleted(completed, historyWindow)
	if len(history) == 0 {
		for _, t := range pending {
			recs = append(recs, TaskRecommendation{
				TaskID:   t.ID,
				Title:    t.Title,
				Category: t.Category,
				Priority: t.Priority,
				DueDate:  t.DueDate,
				Score:    10,
				Reasons:  []string{ReasonNewTask},
			})
		}
		return truncate(recs, limit)
	}

	categoryCount := make(map[string]int)
	for _, t := range history {
		categoryCount[t.Category]++
	}

	for _, t := range pending {
		var score float64
		var reasons []string

		// Category success: share of recent completions in this category,
		// defaulting to 50% for unseen categories.
		successRate := defaultSuccessRate
		if count, ok := categoryCount[t.Category]; ok {
			successRate = float64(count) / float64(len(history))
			reasons = append(reasons, ReasonCategorySuccess)
		}
		score += successRate * 30

		if t.DueDate != nil {
			daysUntil := core.DaysBetween(today, *t.DueDate)
			switch {
			case daysUntil < 0:
				score += 50
				reasons = append(reasons, ReasonOverdue)
			case daysUntil < 1:
				score += 40
				reasons = append(reasons, ReasonDueToday)
			case daysUntil < 3:
				score += 20
				reasons = append(reasons, ReasonDueSoon)
			}
		}

		switch t.Priority {
		case core.PriorityHigh:
			score += 30
			reasons = append(reasons, ReasonHighPriority)
		case core.PriorityLow:
			score += 5
		default:
			score += 15
		}

		if t.IsFocus {
			score += 10
			reasons = append(reasons, ReasonFocusTask)
		}

		recs = append(recs, TaskRecommendation{
			TaskID:   t.ID,
			Title:    t.Title,
			Category: t.Category,
			Priority: t.Priority,
			DueDate:  t.DueDate,
			Score:    score,
			Reasons:  reasons,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return truncate(recs, limit)
}

// recentCompleted returns the n most recently completed tasks.
func recentCompleted(tasks []core.Task, n int) []core.Task {
	done := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == core.TaskStatusDone {
			done = append(done, t)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		ti, tj := done[i].CompletedAt, done[j].CompletedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	if len(done) > n {
		done = done[:n]
	}
	return done
}

// HabitRecommendation ranks one active habit
type HabitRecommendation struct {
	HabitID             core.HabitID `json:"habit_id"`
	Title               string       `json:"title"`
	Category            string       `json:"category"`
	CurrentStreak       int          `json:"current_streak"`
	LongestStreak       int          `json:"longest_streak"`
	DaysSinceCompletion int          `json:"days_since_completion"`
	Score               float64      `json:"score"`
	Reasons             []string     `json:"reasons"`
}

// RecommendHabits scores active habits by how urgently they need attention:
// lapsed streaks, streaks well below their best, and low trailing-30-day
// completion rates. Sorted by descending score, truncated to limit.
func RecommendHabits(habits []core.Habit, completions map[core.HabitID][]core.HabitCompletion, limit int, today time.Time) []HabitRecommendation {
	recs := []HabitRecommendation{}
	windowStart := core.Day(today).AddDate(0, 0, -rateWindowDays)

	for _, h := range habits {
		if !h.IsActive {
			continue
		}

		history := completions[h.ID]
		daysSince := -1
		if len(history) > 0 {
			daysSince = daysSinceLast(history, today)
		}

		var score float64
		var reasons []string

		// Urgency decays 5 points per lapsed day, floored at 0.
		if daysSince > 1 {
			if urgency := 50 - float64(daysSince)*5; urgency > 0 {
				score += urgency
			}
			reasons = append(reasons, ReasonStreakLapsed)
		}

		if float64(h.CurrentStreak) < 0.5*float64(h.LongestStreak) {
			score += 20
			reasons = append(reasons, ReasonStreakDeficit)
		}

		var recent int
		for _, c := range history {
			if !core.Day(c.Date).Before(windowStart) {
				recent++
			}
		}
		completionRate := float64(recent) / rateWindowDays * 100
		if completionRate < 50 {
			score += 15
			reasons = append(reasons, ReasonLowCompletion)
		}

		if len(reasons) == 0 {
			reasons = append(reasons, ReasonOnTrack)
		}

		recs = append(recs, HabitRecommendation{
			HabitID:             h.ID,
			Title:               h.Title,
			Category:            h.Category,
			CurrentStreak:       h.CurrentStreak,
			LongestStreak:       h.LongestStreak,
			DaysSinceCompletion: daysSince,
			Score:               score,
			Reasons:             reasons,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return truncate(recs, limit)
}

func daysSinceLast(history []core.HabitCompletion, today time.Time) int {
	latest := core.Day(history[0].Date)
	for _, c := range history[1:] {
		if d := core.Day(c.Date); d.After(latest) {
			latest = d
		}
	}
	return core.DaysBetween(latest, today)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// Package schedule orders tasks into a bounded work day. Placement is a
// greedy pass over urgency-sorted tasks; it never fails, tasks that do not
// fit are simply left out.
package schedule

import (
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// Work window and slot defaults
const (
	DefaultStartHour      = 9
	DefaultEndHour        = 17
	DefaultAvailableHours = 8
	slotMinutes           = 60
)

// defaultSuggestedHour applies when a user has no completion history for a
// task's category.
const defaultSuggestedHour = 14

// Window bounds the schedulable work day. The zero value means the default
// 09:00-17:00 window.
type Window struct {
	StartHour int
	EndHour   int
}

func (w Window) withDefaults() Window {
	if w.StartHour <= 0 {
		w.StartHour = DefaultStartHour
	}
	if w.EndHour <= w.StartHour {
		w.EndHour = DefaultEndHour
	}
	return w
}

// ScheduledTask is one placed slot in a day plan
type ScheduledTask struct {
	TaskID           core.TaskID   `json:"task_id"`
	Title            string        `json:"title"`
	Priority         core.Priority `json:"priority"`
	Category         string        `json:"category"`
	ScheduledTime    time.Time     `json:"scheduled_time"`
	EstimatedMinutes int           `json:"estimated_minutes"`
}

// urgencyScore ranks a task for same-day placement.
func urgencyScore(t core.Task, today time.Time) int {
	score := 1
	switch t.Priority {
	case core.PriorityHigh:
		score = 3
	case core.PriorityMedium:
		score = 2
	}

	if t.DueDate != nil {
		daysUntil := core.DaysBetween(today, *t.DueDate)
		switch {
		case daysUntil < 0:
			score += 10
		case daysUntil == 0:
			score += 5
		case daysUntil < 3:
			score += 2
		}
	}

	if t.IsFocus {
		score += 3
	}
	return score
}

// ScheduleTasks greedily places tasks into fixed one-hour slots starting at
// the window's opening hour, most urgent first. Placement stops when the
// next slot would pass the window's closing hour or availableHours is spent,
// whichever binds first. Ties keep input order; unplaced tasks are omitted.
func ScheduleTasks(tasks []core.Task, availableHours int, window Window, now time.Time) []ScheduledTask {
	if len(tasks) == 0 {
		return []ScheduledTask{}
	}
	if availableHours <= 0 {
		availableHours = DefaultAvailableHours
	}
	window = window.withDefaults()

	type scored struct {
		task  core.Task
		score int
	}
	ranked := make([]scored, 0, len(tasks))
	for _, t := range tasks {
		ranked = append(ranked, scored{task: t, score: urgencyScore(t, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	slot := time.Date(now.Year(), now.Month(), now.Day(), window.StartHour, 0, 0, 0, now.Location())
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), window.EndHour, 0, 0, 0, now.Location())
	duration := slotMinutes * time.Minute

	scheduled := []ScheduledTask{}
	for _, item := range ranked {
		if len(scheduled) >= availableHours || slot.Add(duration).After(endOfDay) {
			break
		}
		scheduled = append(scheduled, ScheduledTask{
			TaskID:           item.task.ID,
			Title:            item.task.Title,
			Priority:         item.task.Priority,
			Category:         item.task.Category,
			ScheduledTime:    slot,
			EstimatedMinutes: slotMinutes,
		})
		slot = slot.Add(duration)
	}
	return scheduled
}

// OptimizeTaskOrder sorts tasks by priority rank (high first), then due
// date ascending; tasks without a due date sort last. No timing is
// assigned.
func OptimizeTaskOrder(tasks []core.Task) []core.TaskID {
	if len(tasks) == 0 {
		return []core.TaskID{}
	}

	rank := func(p core.Priority) int {
		switch p {
		case core.PriorityHigh:
			return 0
		case core.PriorityMedium:
			return 1
		case core.PriorityLow:
			return 2
		default:
			return 1
		}
	}

	sorted := make([]core.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i].Priority), rank(sorted[j].Priority)
		if ri != rj {
			return ri < rj
		}
		di, dj := sorted[i].DueDate, sorted[j].DueDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	ids := make([]core.TaskID, len(sorted))
	for i, t := range sorted {
		ids[i] = t.ID
	}
	return ids
}

// TimingSuggestion proposes a start time for a single task
type TimingSuggestion struct {
	SuggestedTime time.Time `json:"suggested_time"`
	AverageHour   int       `json:"average_hour"`
}

// SuggestTaskTiming averages the completion hour of the user's last 10
// completed tasks in the same category (14:00 when there are none). If the
// task's due date is in the future, the suggestion shifts to tomorrow.
func SuggestTaskTiming(task core.Task, completed []core.Task, now time.Time) TimingSuggestion {
	var sameCategory []core.Task
	for _, t := range completed {
		if t.Status == core.TaskStatusDone && t.Category == task.Category && t.CompletedAt != nil {
			sameCategory = append(sameCategory, t)
		}
	}
	sort.SliceStable(sameCategory, func(i, j int) bool {
		return sameCategory[i].CompletedAt.After(*sameCategory[j].CompletedAt)
	})
	if len(sameCategory) > 10 {
		sameCategory = sameCategory[:10]
	}

	hour := defaultSuggestedHour
	if len(sameCategory) > 0 {
		var sum int
		for _, t := range sameCategory {
			sum += t.CompletedAt.Hour()
		}
		hour = sum / len(sameCategory)
	}

	suggested := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if task.DueDate != nil && core.Day(task.DueDate.UTC()).After(core.Day(now.UTC())) {
		suggested = suggested.AddDate(0, 0, 1)
	}

	return TimingSuggestion{SuggestedTime: suggested, AverageHour: hour}
}

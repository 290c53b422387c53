// Package insights composes daily, weekly, and monthly reports from the
// analytics layer. Reports carry structured flag codes, never prose; the
// API layer (or a client) renders them.
package insights

import (
	"math"
	"time"

	"github.com/lifetrack/lifetrack/internal/analytics"
	"github.com/lifetrack/lifetrack/internal/core"
)

// Period identifies a report window
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Insight flag codes
const (
	FlagHighTaskCompletion  = "high_task_completion"
	FlagLowTaskCompletion   = "low_task_completion"
	FlagHighHabitCompletion = "high_habit_completion"
	FlagLowHabitCompletion  = "low_habit_completion"
	FlagTasksImproving      = "tasks_improving"
	FlagTasksDeclining      = "tasks_declining"
	FlagSuccessfulPeriod    = "successful_period"
	FlagTopSpendCategory    = "top_spend_category"
)

// Recommendation flag codes
const (
	RecSplitTasks       = "split_tasks_smaller"
	RecScheduleHabits   = "schedule_habits_daily"
	RecReviewPriorities = "review_task_priorities"
)

// Flag is one structured insight or recommendation
type Flag struct {
	Code     string  `json:"code"`
	Metric   string  `json:"metric,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Category string  `json:"category,omitempty"`
}

// Summary holds a report's aggregate counts and rates
type Summary struct {
	TasksCompleted       int     `json:"tasks_completed"`
	TasksTotal           int     `json:"tasks_total"`
	TasksCompletionRate  float64 `json:"tasks_completion_rate"`
	HabitsCompleted      int     `json:"habits_completed"`
	HabitsTotal          int     `json:"habits_total"`
	HabitsCompletionRate float64 `json:"habits_completion_rate"`
	TotalExpense         float64 `json:"total_expense"`
	TopCategory          string  `json:"top_category,omitempty"`
}

// Report is a composed insight report for one period
type Report struct {
	Period          Period                             `json:"period"`
	StartDate       time.Time                          `json:"start_date"`
	EndDate         time.Time                          `json:"end_date"`
	Summary         Summary                            `json:"summary"`
	TaskTrend       analytics.Trend                    `json:"task_trend"`
	ExpenseTrends   map[string]analytics.CategoryTrend `json:"expense_trends,omitempty"`
	Insights        []Flag                             `json:"insights"`
	Recommendations []Flag                             `json:"recommendations"`
}

// Records bundles the collections a report is computed from
type Records struct {
	Tasks        []core.Task
	Habits       []core.Habit
	Completions  map[core.HabitID][]core.HabitCompletion
	Transactions []core.Transaction
}

// ComposeDaily builds today's report: tasks created today, habit
// completions today, expenses today, with a 7-day trend for direction.
func ComposeDaily(r Records, today time.Time) *Report {
	day := core.Day(today)

	var tasksTotal, tasksDone int
	for _, t := range r.Tasks {
		if !core.Day(t.CreatedAt).Equal(day) {
			continue
		}
		tasksTotal++
		if t.Status == core.TaskStatusDone {
			tasksDone++
		}
	}

	activeHabits := 0
	habitsDone := 0
	for _, h := range r.Habits {
		if !h.IsActive {
			continue
		}
		activeHabits++
		for _, c := range r.Completions[h.ID] {
			if core.Day(c.Date).Equal(day) {
				habitsDone++
				break
			}
		}
	}

	var expense float64
	for _, tx := range r.Transactions {
		if tx.Type == core.TransactionExpense && core.Day(tx.Date).Equal(day) {
			expense += math.Abs(tx.Amount)
		}
	}

	report := &Report{
		Period:    PeriodDaily,
		StartDate: day,
		EndDate:   day,
		Summary: Summary{
			TasksCompleted:       tasksDone,
			TasksTotal:           tasksTotal,
			TasksCompletionRate:  percentage(tasksDone, tasksTotal),
			HabitsCompleted:      habitsDone,
			HabitsTotal:          activeHabits,
			HabitsCompletionRate: percentage(habitsDone, activeHabits),
			TotalExpense:         expense,
		},
		Insights:        []Flag{},
		Recommendations: []Flag{},
	}

	flagCompletionRates(report)

	trend := analytics.AnalyzeTaskCompletionTrends(r.Tasks, 7, today)
	report.TaskTrend = trend.Trend
	switch trend.Trend {
	case analytics.TrendIncreasing:
		report.Insights = append(report.Insights, Flag{Code: FlagTasksImproving, Metric: "task_trend_slope", Value: trend.TrendPercentage})
	case analytics.TrendDecreasing:
		report.Recommendations = append(report.Recommendations, Flag{Code: RecReviewPriorities, Metric: "task_trend_slope", Value: trend.TrendPercentage})
	}

	return report
}

// ComposeWeekly builds the trailing-7-day report with task and expense
// trend direction.
func ComposeWeekly(r Records, today time.Time) *Report {
	end := core.Day(today)
	start := end.AddDate(0, 0, -7)

	var tasksTotal, tasksDone int
	for _, t := range r.Tasks {
		if core.Day(t.CreatedAt).Before(start) {
			continue
		}
		tasksTotal++
		if t.Status == core.TaskStatusDone {
			tasksDone++
		}
	}

	activeHabits := 0
	habitCompletions := 0
	for _, h := range r.Habits {
		if !h.IsActive {
			continue
		}
		activeHabits++
		for _, c := range r.Completions[h.ID] {
			if !core.Day(c.Date).Before(start) {
				habitCompletions++
			}
		}
	}
	// Each active habit has seven completable days this week.
	habitSlots := activeHabits * 7

	var expense float64
	for _, tx := range r.Transactions {
		if tx.Type == core.TransactionExpense && !core.Day(tx.Date).Before(start) {
			expense += math.Abs(tx.Amount)
		}
	}

	taskTrend := analytics.AnalyzeTaskCompletionTrends(r.Tasks, 7, today)
	expenseTrend := analytics.AnalyzeExpenseCategoryTrends(r.Transactions, 7, today)

	report := &Report{
		Period:    PeriodWeekly,
		StartDate: start,
		EndDate:   end,
		Summary: Summary{
			TasksCompleted:       tasksDone,
			TasksTotal:           tasksTotal,
			TasksCompletionRate:  percentage(tasksDone, tasksTotal),
			HabitsCompleted:      habitCompletions,
			HabitsTotal:          habitSlots,
			HabitsCompletionRate: percentage(habitCompletions, habitSlots),
			TotalExpense:         expense,
		},
		TaskTrend:       taskTrend.Trend,
		ExpenseTrends:   expenseTrend.Trends,
		Insights:        []Flag{},
		Recommendations: []Flag{},
	}

	switch taskTrend.Trend {
	case analytics.TrendIncreasing:
		report.Insights = append(report.Insights, Flag{Code: FlagTasksImproving, Metric: "task_trend_slope", Value: taskTrend.TrendPercentage})
	case analytics.TrendDecreasing:
		report.Insights = append(report.Insights, Flag{Code: FlagTasksDeclining, Metric: "task_trend_slope", Value: taskTrend.TrendPercentage})
	}

	if report.Summary.TasksCompletionRate >= 70 {
		report.Insights = append(report.Insights, Flag{Code: FlagSuccessfulPeriod, Metric: "tasks_completion_rate", Value: report.Summary.TasksCompletionRate})
	}
	if report.Summary.TasksCompletionRate < 50 {
		report.Recommendations = append(report.Recommendations, Flag{Code: RecSplitTasks, Metric: "tasks_completion_rate", Value: report.Summary.TasksCompletionRate})
	}

	return report
}

// ComposeMonthly builds the trailing-30-day report with the top expense
// category called out.
func ComposeMonthly(r Records, today time.Time) *Report {
	end := core.Day(today)
	start := end.AddDate(0, 0, -30)

	var tasksTotal, tasksDone int
	for _, t := range r.Tasks {
		if core.Day(t.CreatedAt).Before(start) {
			continue
		}
		tasksTotal++
		if t.Status == core.TaskStatusDone {
			tasksDone++
		}
	}

	var expense float64
	categoryTotals := make(map[string]float64)
	for _, tx := range r.Transactions {
		if tx.Type != core.TransactionExpense || core.Day(tx.Date).Before(start) {
			continue
		}
		amount := math.Abs(tx.Amount)
		expense += amount
		categoryTotals[tx.Category] += amount
	}

	topCategory := ""
	var topAmount float64
	for cat, amount := range categoryTotals {
		if amount > topAmount || (amount == topAmount && cat < topCategory) {
			topCategory = cat
			topAmount = amount
		}
	}

	report := &Report{
		Period:    PeriodMonthly,
		StartDate: start,
		EndDate:   end,
		Summary: Summary{
			TasksCompleted:      tasksDone,
			TasksTotal:          tasksTotal,
			TasksCompletionRate: percentage(tasksDone, tasksTotal),
			TotalExpense:        expense,
			TopCategory:         topCategory,
		},
		Insights:        []Flag{},
		Recommendations: []Flag{},
	}

	if report.Summary.TasksCompletionRate >= 70 {
		report.Insights = append(report.Insights, Flag{Code: FlagSuccessfulPeriod, Metric: "tasks_completion_rate", Value: report.Summary.TasksCompletionRate})
	}
	if topCategory != "" {
		report.Insights = append(report.Insights, Flag{Code: FlagTopSpendCategory, Metric: "amount", Value: topAmount, Category: topCategory})
	}

	return report
}

// flagCompletionRates adds the high/low task and habit flags shared by the
// daily report.
func flagCompletionRates(report *Report) {
	s := report.Summary

	if s.TasksTotal > 0 {
		if s.TasksCompletionRate >= 80 {
			report.Insights = append(report.Insights, Flag{Code: FlagHighTaskCompletion, Metric: "tasks_completion_rate", Value: s.TasksCompletionRate})
		} else if s.TasksCompletionRate < 50 {
			report.Insights = append(report.Insights, Flag{Code: FlagLowTaskCompletion, Metric: "tasks_completion_rate", Value: s.TasksCompletionRate})
			report.Recommendations = append(report.Recommendations, Flag{Code: RecSplitTasks, Metric: "tasks_completion_rate", Value: s.TasksCompletionRate})
		}
	}

	if s.HabitsTotal > 0 {
		if s.HabitsCompletionRate >= 80 {
			report.Insights = append(report.Insights, Flag{Code: FlagHighHabitCompletion, Metric: "habits_completion_rate", Value: s.HabitsCompletionRate})
		} else if s.HabitsCompletionRate < 50 {
			report.Insights = append(report.Insights, Flag{Code: FlagLowHabitCompletion, Metric: "habits_completion_rate", Value: s.HabitsCompletionRate})
			report.Recommendations = append(report.Recommendations, Flag{Code: RecScheduleHabits, Metric: "habits_completion_rate", Value: s.HabitsCompletionRate})
		}
	}
}

func percentage(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

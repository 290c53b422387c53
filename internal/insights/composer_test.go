package insights

import (
	"testing"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

var testToday = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func taskOn(daysAgo int, done bool) core.Task {
	status := core.TaskStatusPending
	if done {
		status = core.TaskStatusDone
	}
	created := testToday.AddDate(0, 0, -daysAgo)
	t := core.Task{
		ID:        core.TaskID("t"),
		Status:    status,
		CreatedAt: created,
	}
	if done {
		t.CompletedAt = &created
	}
	return t
}

func expenseOn(category string, amount float64, daysAgo int) core.Transaction {
	return core.Transaction{
		Category: category,
		Type:     core.TransactionExpense,
		Amount:   amount,
		Date:     testToday.AddDate(0, 0, -daysAgo),
	}
}

func hasFlag(flags []Flag, code string) bool {
	for _, f := range flags {
		if f.Code == code {
			return true
		}
	}
	return false
}

func TestComposeDaily_HighCompletion(t *testing.T) {
	r := Records{
		Tasks: []core.Task{
			taskOn(0, true), taskOn(0, true), taskOn(0, true), taskOn(0, true),
			taskOn(0, false),
			taskOn(5, false), // outside today, excluded from counts
		},
		Habits: []core.Habit{
			{ID: "h1", IsActive: true},
			{ID: "gone", IsActive: false},
		},
		Completions: map[core.HabitID][]core.HabitCompletion{
			"h1": {{HabitID: "h1", Date: testToday}},
		},
		Transactions: []core.Transaction{
			expenseOn("Food", 30, 0),
			expenseOn("Food", 99, 1), // yesterday, excluded
		},
	}

	got := ComposeDaily(r, testToday)
	if got.Period != PeriodDaily {
		t.Errorf("Period = %v, want daily", got.Period)
	}
	if got.Summary.TasksTotal != 5 || got.Summary.TasksCompleted != 4 {
		t.Errorf("tasks = %d/%d, want 4/5", got.Summary.TasksCompleted, got.Summary.TasksTotal)
	}
	if got.Summary.TasksCompletionRate != 80 {
		t.Errorf("TasksCompletionRate = %v, want 80", got.Summary.TasksCompletionRate)
	}
	if got.Summary.HabitsTotal != 1 || got.Summary.HabitsCompleted != 1 {
		t.Errorf("habits = %d/%d, want 1/1 (inactive skipped)", got.Summary.HabitsCompleted, got.Summary.HabitsTotal)
	}
	if got.Summary.TotalExpense != 30 {
		t.Errorf("TotalExpense = %v, want today's 30", got.Summary.TotalExpense)
	}

	if !hasFlag(got.Insights, FlagHighTaskCompletion) {
		t.Error("80% completion should flag high_task_completion")
	}
	if !hasFlag(got.Insights, FlagHighHabitCompletion) {
		t.Error("all habits done should flag high_habit_completion")
	}
	if len(got.Recommendations) != 0 {
		t.Errorf("a good day produced %d recommendations, want none", len(got.Recommendations))
	}
}

func TestComposeDaily_LowCompletion(t *testing.T) {
	r := Records{
		Tasks: []core.Task{
			taskOn(0, true), taskOn(0, false), taskOn(0, false), taskOn(0, false),
		},
		Habits: []core.Habit{
			{ID: "h1", IsActive: true},
			{ID: "h2", IsActive: true},
		},
	}

	got := ComposeDaily(r, testToday)
	if got.Summary.TasksCompletionRate != 25 {
		t.Errorf("TasksCompletionRate = %v, want 25", got.Summary.TasksCompletionRate)
	}
	if !hasFlag(got.Insights, FlagLowTaskCompletion) {
		t.Error("25% completion should flag low_task_completion")
	}
	if !hasFlag(got.Recommendations, RecSplitTasks) {
		t.Error("low task completion should recommend splitting tasks")
	}
	if !hasFlag(got.Insights, FlagLowHabitCompletion) {
		t.Error("no habits done should flag low_habit_completion")
	}
	if !hasFlag(got.Recommendations, RecScheduleHabits) {
		t.Error("no habits done should recommend scheduling habits")
	}
}

func TestComposeDaily_EmptyDayNoFlags(t *testing.T) {
	got := ComposeDaily(Records{}, testToday)
	if got.Summary.TasksTotal != 0 || got.Summary.HabitsTotal != 0 {
		t.Error("empty records should produce zero counts")
	}
	if len(got.Insights) != 0 || len(got.Recommendations) != 0 {
		t.Error("zero totals must not trigger rate flags")
	}
	if got.Insights == nil || got.Recommendations == nil {
		t.Error("flag slices must be empty, not nil")
	}
}

func TestComposeWeekly_SuccessfulPeriod(t *testing.T) {
	r := Records{
		Tasks: []core.Task{
			taskOn(1, true), taskOn(2, true), taskOn(3, true),
			taskOn(4, false),
			taskOn(20, false), // outside the week
		},
		Habits: []core.Habit{{ID: "h1", IsActive: true}},
		Completions: map[core.HabitID][]core.HabitCompletion{
			"h1": {
				{HabitID: "h1", Date: testToday.AddDate(0, 0, -1)},
				{HabitID: "h1", Date: testToday.AddDate(0, 0, -2)},
				{HabitID: "h1", Date: testToday.AddDate(0, 0, -20)}, // excluded
			},
		},
		Transactions: []core.Transaction{
			expenseOn("Food", 40, 2),
			expenseOn("Food", 60, 3),
			expenseOn("Food", 500, 25), // excluded
		},
	}

	got := ComposeWeekly(r, testToday)
	if got.Period != PeriodWeekly {
		t.Errorf("Period = %v, want weekly", got.Period)
	}
	if !got.StartDate.Equal(core.Day(testToday).AddDate(0, 0, -7)) {
		t.Errorf("StartDate = %v, want seven days back", got.StartDate)
	}
	if got.Summary.TasksTotal != 4 || got.Summary.TasksCompleted != 3 {
		t.Errorf("tasks = %d/%d, want 3/4", got.Summary.TasksCompleted, got.Summary.TasksTotal)
	}
	if got.Summary.HabitsTotal != 7 {
		t.Errorf("HabitsTotal = %d, want 7 slots for one active habit", got.Summary.HabitsTotal)
	}
	if got.Summary.HabitsCompleted != 2 {
		t.Errorf("HabitsCompleted = %d, want 2 in-window completions", got.Summary.HabitsCompleted)
	}
	if got.Summary.TotalExpense != 100 {
		t.Errorf("TotalExpense = %v, want the in-window 100", got.Summary.TotalExpense)
	}
	if !hasFlag(got.Insights, FlagSuccessfulPeriod) {
		t.Error("75% completion should flag successful_period")
	}
	if hasFlag(got.Recommendations, RecSplitTasks) {
		t.Error("75% completion must not recommend splitting tasks")
	}
}

func TestComposeWeekly_LowCompletionRecommendation(t *testing.T) {
	r := Records{
		Tasks: []core.Task{
			taskOn(1, true),
			taskOn(2, false), taskOn(3, false), taskOn(4, false),
		},
	}

	got := ComposeWeekly(r, testToday)
	if got.Summary.TasksCompletionRate != 25 {
		t.Errorf("TasksCompletionRate = %v, want 25", got.Summary.TasksCompletionRate)
	}
	if hasFlag(got.Insights, FlagSuccessfulPeriod) {
		t.Error("25% completion is not a successful period")
	}
	if !hasFlag(got.Recommendations, RecSplitTasks) {
		t.Error("sub-50% week should recommend splitting tasks")
	}
}

func TestComposeMonthly_TopCategory(t *testing.T) {
	r := Records{
		Tasks: []core.Task{
			taskOn(5, true), taskOn(10, true), taskOn(15, true), taskOn(20, false),
		},
		Transactions: []core.Transaction{
			expenseOn("Food", 300, 5),
			expenseOn("Transport", 120, 10),
			expenseOn("Food", 80, 15),
			expenseOn("Housing", 900, 45), // outside the month
		},
	}

	got := ComposeMonthly(r, testToday)
	if got.Period != PeriodMonthly {
		t.Errorf("Period = %v, want monthly", got.Period)
	}
	if got.Summary.TotalExpense != 500 {
		t.Errorf("TotalExpense = %v, want the in-window 500", got.Summary.TotalExpense)
	}
	if got.Summary.TopCategory != "Food" {
		t.Errorf("TopCategory = %s, want Food", got.Summary.TopCategory)
	}
	if !hasFlag(got.Insights, FlagSuccessfulPeriod) {
		t.Error("75% completion should flag successful_period")
	}

	foundTop := false
	for _, f := range got.Insights {
		if f.Code == FlagTopSpendCategory {
			foundTop = true
			if f.Category != "Food" || f.Value != 380 {
				t.Errorf("top spend flag = %+v, want Food at 380", f)
			}
		}
	}
	if !foundTop {
		t.Error("spend history should flag the top category")
	}
}

func TestComposeMonthly_TopCategoryTieIsDeterministic(t *testing.T) {
	r := Records{
		Transactions: []core.Transaction{
			expenseOn("Transport", 100, 5),
			expenseOn("Food", 100, 10),
		},
	}

	// Equal totals resolve alphabetically, so repeated runs agree.
	for i := 0; i < 10; i++ {
		got := ComposeMonthly(r, testToday)
		if got.Summary.TopCategory != "Food" {
			t.Fatalf("TopCategory = %s, want Food on a tie", got.Summary.TopCategory)
		}
	}
}

func TestComposeMonthly_NoExpenses(t *testing.T) {
	got := ComposeMonthly(Records{Tasks: []core.Task{taskOn(5, false)}}, testToday)
	if got.Summary.TopCategory != "" {
		t.Errorf("TopCategory = %s, want empty with no spend", got.Summary.TopCategory)
	}
	if hasFlag(got.Insights, FlagTopSpendCategory) {
		t.Error("no spend must not flag a top category")
	}
}

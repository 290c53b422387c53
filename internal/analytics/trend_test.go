package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// tasksWithDailyRates builds one task per percent point so each day's bucket
// completion rate matches the requested percentage.
func tasksWithDailyRates(rates []float64, today time.Time) []core.Task {
	var tasks []core.Task
	for i, r := range rates {
		day := core.Day(today).AddDate(0, 0, -(len(rates) - 1 - i))
		done := int(r / 10)
		for j := 0; j < 10; j++ {
			status := core.TaskStatusPending
			if j < done {
				status = core.TaskStatusDone
			}
			tasks = append(tasks, core.Task{
				ID:        core.TaskID("t"),
				Status:    status,
				CreatedAt: day,
			})
		}
	}
	return tasks
}

func TestAnalyzeTaskCompletionTrends(t *testing.T) {
	tests := []struct {
		name      string
		rates     []float64
		wantTrend Trend
	}{
		{
			name:      "constant rates are stable",
			rates:     []float64{50, 50, 50, 50, 50},
			wantTrend: TrendStable,
		},
		{
			name:      "steadily improving rates",
			rates:     []float64{10, 30, 50, 70, 90},
			wantTrend: TrendIncreasing,
		},
		{
			name:      "steadily declining rates",
			rates:     []float64{90, 70, 50, 30, 10},
			wantTrend: TrendDecreasing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeTaskCompletionTrends(tasksWithDailyRates(tt.rates, testToday), 30, testToday)
			if got.Trend != tt.wantTrend {
				t.Errorf("Trend = %v (slope %.2f), want %v", got.Trend, got.TrendPercentage, tt.wantTrend)
			}
			if len(got.DailyCompletion) != len(tt.rates) {
				t.Errorf("DailyCompletion has %d days, want %d", len(got.DailyCompletion), len(tt.rates))
			}
		})
	}
}

func TestAnalyzeTaskCompletionTrends_NoTasks(t *testing.T) {
	got := AnalyzeTaskCompletionTrends(nil, 30, testToday)
	if got.Trend != TrendStable {
		t.Errorf("Trend = %v, want stable", got.Trend)
	}
	if got.CompletionRate != 0 {
		t.Errorf("CompletionRate = %v, want 0", got.CompletionRate)
	}
	if len(got.DailyCompletion) != 0 {
		t.Errorf("DailyCompletion should be empty, got %d entries", len(got.DailyCompletion))
	}
}

func TestAnalyzeTaskCompletionTrends_SingleDayIsStable(t *testing.T) {
	// One bucket cannot define a direction.
	got := AnalyzeTaskCompletionTrends(tasksWithDailyRates([]float64{80}, testToday), 30, testToday)
	if got.Trend != TrendStable {
		t.Errorf("Trend = %v, want stable for a single day", got.Trend)
	}
}

func expenseTx(category string, amount float64, daysAgo int) core.Transaction {
	return core.Transaction{
		ID:       core.TransactionID("tx"),
		Category: category,
		Type:     core.TransactionExpense,
		Amount:   amount,
		Date:     testToday.AddDate(0, 0, -daysAgo),
	}
}

func TestAnalyzeExpenseCategoryTrends(t *testing.T) {
	transactions := []core.Transaction{
		// Food: 100 in the recent week vs 50 the week before -> +100%
		expenseTx("Food", 100, 2),
		expenseTx("Food", 50, 10),
		// Transport: 30 recent vs 60 previous -> -50%
		expenseTx("Transport", 30, 1),
		expenseTx("Transport", 60, 9),
		// Income is ignored entirely
		{Category: "Salary", Type: core.TransactionIncome, Amount: 3000, Date: testToday},
	}

	got := AnalyzeExpenseCategoryTrends(transactions, 30, testToday)

	if got.TotalExpense != 240 {
		t.Errorf("TotalExpense = %v, want 240", got.TotalExpense)
	}
	if _, ok := got.Categories["Salary"]; ok {
		t.Error("income categories must not appear in expense trends")
	}

	food := got.Trends["Food"]
	if food.Trend != TrendIncreasing {
		t.Errorf("Food trend = %v, want increasing", food.Trend)
	}
	if math.Abs(food.ChangePercentage-100) > 1e-9 {
		t.Errorf("Food change = %v, want 100", food.ChangePercentage)
	}

	transport := got.Trends["Transport"]
	if transport.Trend != TrendDecreasing {
		t.Errorf("Transport trend = %v, want decreasing", transport.Trend)
	}

	if got.Categories["Food"].Average != 75 {
		t.Errorf("Food average = %v, want 75", got.Categories["Food"].Average)
	}
}

func TestAnalyzeExpenseCategoryTrends_NewCategoryIsIncreasing(t *testing.T) {
	// Spend only in the recent week: no baseline, treated as increasing.
	transactions := []core.Transaction{
		expenseTx("Books", 40, 1),
		expenseTx("Books", 20, 2),
	}

	got := AnalyzeExpenseCategoryTrends(transactions, 30, testToday)
	if got.Trends["Books"].Trend != TrendIncreasing {
		t.Errorf("Books trend = %v, want increasing", got.Trends["Books"].Trend)
	}
}

func TestAnalyzeExpenseCategoryTrends_NegativeAmounts(t *testing.T) {
	// Amounts stored as negative still aggregate by absolute value.
	transactions := []core.Transaction{
		expenseTx("Food", -25, 1),
		expenseTx("Food", -25, 3),
	}

	got := AnalyzeExpenseCategoryTrends(transactions, 30, testToday)
	if got.TotalExpense != 50 {
		t.Errorf("TotalExpense = %v, want 50", got.TotalExpense)
	}
}

func TestAnalyzeHabitStreakTrends(t *testing.T) {
	habits := []core.Habit{
		{ID: "h1", Title: "Run", IsActive: true, CurrentStreak: 4, LongestStreak: 10},
		{ID: "h2", Title: "Read", IsActive: true, CurrentStreak: 2, LongestStreak: 2},
		{ID: "h3", Title: "Old", IsActive: false, CurrentStreak: 9},
	}
	completions := map[core.HabitID][]core.HabitCompletion{
		"h1": completionsOn(0, -1, -2, -3),
		"h2": completionsOn(0, -1),
		"h3": completionsOn(0),
	}

	got := AnalyzeHabitStreakTrends(habits, completions, testToday)

	if len(got.Habits) != 2 {
		t.Fatalf("Habits has %d entries, want 2 (inactive skipped)", len(got.Habits))
	}
	if got.AverageStreak != 3 {
		t.Errorf("AverageStreak = %v, want 3", got.AverageStreak)
	}
	if got.Trend != TrendIncreasing {
		t.Errorf("Trend = %v, want increasing", got.Trend)
	}
}

func TestAnalyzeHabitStreakTrends_RateCountsTrailingWindowOnly(t *testing.T) {
	habits := []core.Habit{
		{ID: "steady", Title: "Run", IsActive: true, CurrentStreak: 3, LongestStreak: 40},
		{ID: "stale", Title: "Write", IsActive: true, CurrentStreak: 0, LongestStreak: 40},
	}

	// Forty lifetime completions but only fifteen inside the last 30 days;
	// the stale habit's completions are all older than the window.
	steady := make([]int, 0, 40)
	for i := 0; i < 15; i++ {
		steady = append(steady, -i)
	}
	for i := 35; i < 60; i++ {
		steady = append(steady, -i)
	}
	stale := make([]int, 0, 40)
	for i := 40; i < 80; i++ {
		stale = append(stale, -i)
	}
	completions := map[core.HabitID][]core.HabitCompletion{
		"steady": completionsOn(steady...),
		"stale":  completionsOn(stale...),
	}

	got := AnalyzeHabitStreakTrends(habits, completions, testToday)

	if len(got.Habits) != 1 {
		t.Fatalf("Habits has %d entries, want 1 (stale history excluded)", len(got.Habits))
	}
	if got.Habits[0].HabitID != "steady" {
		t.Fatalf("entry = %s, want steady", got.Habits[0].HabitID)
	}
	if got.Habits[0].CompletionRate != 50 {
		t.Errorf("CompletionRate = %v, want 50 from the trailing window", got.Habits[0].CompletionRate)
	}
}

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{
			name:   "window larger than series expands from one point",
			values: []float64{10, 20},
			window: 7,
			want:   []float64{10, 15},
		},
		{
			name:   "zero window returns copy",
			values: []float64{1, 2, 3},
			window: 0,
			want:   []float64{1, 2, 3},
		},
		{
			name:   "window 3 shrinks at the edge",
			values: []float64{3, 6, 9, 12},
			window: 3,
			want:   []float64{3, 4.5, 6, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage(tt.values, tt.window)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("value[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExponentialSmoothing(t *testing.T) {
	got := ExponentialSmoothing([]float64{10, 20, 30}, 0.5)
	want := []float64{10, 15, 22.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if len(ExponentialSmoothing(nil, 0.5)) != 0 {
		t.Error("empty input should produce empty output")
	}
}

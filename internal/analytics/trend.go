package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// Trend labels a series direction
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Slope thresholds for labeling a fitted daily-rate trend. Fixed constants,
// not relative to data scale.
const (
	slopeIncreasing = 1.0
	slopeDecreasing = -1.0
)

// Category trend thresholds: week-over-week change in percent.
const (
	categoryChangeUp   = 5.0
	categoryChangeDown = -5.0
)

// DailyRate is one day's completion rate sample
type DailyRate struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// TaskTrendResult summarizes task completion direction over a window
type TaskTrendResult struct {
	Trend           Trend       `json:"trend"`
	CompletionRate  float64     `json:"completion_rate"`  // mean daily rate
	TrendPercentage float64     `json:"trend_percentage"` // fitted slope
	DailyCompletion []DailyRate `json:"daily_completion"`
}

// AnalyzeTaskCompletionTrends buckets tasks created in the trailing window
// by day, computes each day's completion rate, and labels the direction of
// a degree-1 least squares fit over the rate sequence.
func AnalyzeTaskCompletionTrends(tasks []core.Task, days int, today time.Time) TaskTrendResult {
	start := core.Day(today).AddDate(0, 0, -days)

	type bucket struct{ total, completed int }
	buckets := make(map[time.Time]*bucket)
	for _, t := range tasks {
		day := core.Day(t.CreatedAt)
		if day.Before(start) {
			continue
		}
		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		b.total++
		if t.Status == core.TaskStatusDone {
			b.completed++
		}
	}

	if len(buckets) == 0 {
		return TaskTrendResult{Trend: TrendStable, DailyCompletion: []DailyRate{}}
	}

	dates := make([]time.Time, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	daily := make([]DailyRate, 0, len(dates))
	rates := make([]float64, 0, len(dates))
	for _, d := range dates {
		b := buckets[d]
		rate := 0.0
		if b.total > 0 {
			rate = float64(b.completed) / float64(b.total) * 100
		}
		daily = append(daily, DailyRate{Date: d, Rate: rate})
		rates = append(rates, rate)
	}

	result := TaskTrendResult{
		Trend:           TrendStable,
		CompletionRate:  mean(rates),
		DailyCompletion: daily,
	}

	if len(rates) >= 2 {
		xs := make([]float64, len(rates))
		for i := range xs {
			xs[i] = float64(i)
		}
		slope, _ := linearFit(xs, rates)
		result.TrendPercentage = slope
		result.Trend = labelSlope(slope)
	}

	return result
}

func labelSlope(slope float64) Trend {
	switch {
	case slope > slopeIncreasing:
		return TrendIncreasing
	case slope < slopeDecreasing:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// CategorySpend aggregates one category's expense activity
type CategorySpend struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// CategoryTrend labels one category's week-over-week spend direction
type CategoryTrend struct {
	Trend            Trend   `json:"trend"`
	ChangePercentage float64 `json:"change_percentage"`
}

// ExpenseTrendResult summarizes category spend and its direction
type ExpenseTrendResult struct {
	Categories   map[string]CategorySpend `json:"categories"`
	TotalExpense float64                  `json:"total_expense"`
	Trends       map[string]CategoryTrend `json:"trends"`
}

// AnalyzeExpenseCategoryTrends groups expense transactions from the trailing
// window by category and compares each category's trailing 7-day total
// against the preceding 7 days.
func AnalyzeExpenseCategoryTrends(transactions []core.Transaction, days int, today time.Time) ExpenseTrendResult {
	start := core.Day(today).AddDate(0, 0, -days)

	result := ExpenseTrendResult{
		Categories: make(map[string]CategorySpend),
		Trends:     make(map[string]CategoryTrend),
	}

	var window []core.Transaction
	for _, tx := range transactions {
		if tx.Type != core.TransactionExpense || core.Day(tx.Date).Before(start) {
			continue
		}
		window = append(window, tx)
	}
	if len(window) == 0 {
		return result
	}

	byCategory := make(map[string][]core.Transaction)
	for _, tx := range window {
		byCategory[tx.Category] = append(byCategory[tx.Category], tx)
		result.TotalExpense += math.Abs(tx.Amount)
	}

	recentStart := core.Day(today).AddDate(0, 0, -7)
	previousStart := recentStart.AddDate(0, 0, -7)

	for cat, txs := range byCategory {
		spend := CategorySpend{Count: len(txs)}
		for _, tx := range txs {
			spend.Total += math.Abs(tx.Amount)
		}
		if spend.Count > 0 {
			spend.Average = spend.Total / float64(spend.Count)
		}
		result.Categories[cat] = spend

		trend := CategoryTrend{Trend: TrendStable}
		if len(txs) >= 2 {
			var recent, previous float64
			for _, tx := range txs {
				day := core.Day(tx.Date)
				switch {
				case !day.Before(recentStart):
					recent += math.Abs(tx.Amount)
				case !day.Before(previousStart):
					previous += math.Abs(tx.Amount)
				}
			}
			if previous > 0 {
				change := (recent - previous) / previous * 100
				trend.ChangePercentage = change
				switch {
				case change > categoryChangeUp:
					trend.Trend = TrendIncreasing
				case change < categoryChangeDown:
					trend.Trend = TrendDecreasing
				}
			} else if recent > 0 {
				trend.Trend = TrendIncreasing
			}
		}
		result.Trends[cat] = trend
	}

	return result
}

// HabitStreakOverview summarizes streak health across active habits
type HabitStreakOverview struct {
	AverageStreak float64            `json:"average_streak"`
	Trend         Trend              `json:"trend"`
	Habits        []HabitStreakEntry `json:"habits"`
}

// HabitStreakEntry is one habit's streak line in the overview
type HabitStreakEntry struct {
	HabitID        core.HabitID `json:"habit_id"`
	Title          string       `json:"title"`
	CurrentStreak  int          `json:"current_streak"`
	LongestStreak  int          `json:"longest_streak"`
	CompletionRate float64      `json:"completion_rate"` // trailing 30 days
}

// AnalyzeHabitStreakTrends builds the streak overview for a set of active
// habits. Completion rates count only the trailing 30 days before today;
// habits with nothing in that window are left out.
func AnalyzeHabitStreakTrends(habits []core.Habit, completions map[core.HabitID][]core.HabitCompletion, today time.Time) HabitStreakOverview {
	overview := HabitStreakOverview{Trend: TrendStable, Habits: []HabitStreakEntry{}}
	windowStart := core.Day(today).AddDate(0, 0, -30)

	var streaks []float64
	for _, h := range habits {
		if !h.IsActive {
			continue
		}
		var recent int
		for _, c := range completions[h.ID] {
			if !core.Day(c.Date).Before(windowStart) {
				recent++
			}
		}
		if recent == 0 {
			continue
		}
		overview.Habits = append(overview.Habits, HabitStreakEntry{
			HabitID:        h.ID,
			Title:          h.Title,
			CurrentStreak:  h.CurrentStreak,
			LongestStreak:  h.LongestStreak,
			CompletionRate: float64(recent) / 30 * 100,
		})
		streaks = append(streaks, float64(h.CurrentStreak))
	}

	if len(streaks) > 0 {
		overview.AverageStreak = mean(streaks)
		if overview.AverageStreak > 0 {
			overview.Trend = TrendIncreasing
		}
	}

	return overview
}

// MovingAverage computes a trailing-window average. At the edges, and for
// series shorter than the window, the window shrinks to however many points
// are available (min_periods=1 semantics).
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		out[i] = mean(values[lo : i+1])
	}
	return out
}

// ExponentialSmoothing applies single exponential smoothing with factor alpha.
func ExponentialSmoothing(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}

	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// linearFit returns the least squares slope and intercept of y over x.
// Callers guarantee len(x) == len(y) >= 2.
func linearFit(x, y []float64) (slope, intercept float64) {
	mx := mean(x)
	my := mean(y)

	var num, den float64
	for i := range x {
		num += (x[i] - mx) * (y[i] - my)
		den += (x[i] - mx) * (x[i] - mx)
	}
	if den == 0 {
		return 0, my
	}
	slope = num / den
	intercept = my - slope*mx
	return slope, intercept
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

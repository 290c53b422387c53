package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// Period selects the aggregation granularity of a series
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period string, defaulting empty to daily.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	case "":
		return PeriodDaily, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownPeriod, s)
	}
}

// bucketStart maps a day to the start of its aggregation bucket.
// Weeks start on Monday.
func bucketStart(day time.Time, period Period) time.Time {
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// ProductivitySeries is the aggregated productivity view over a date range
type ProductivitySeries struct {
	Dates                []time.Time `json:"dates"`
	TasksCompleted       []float64   `json:"tasks_completed"`
	TasksTotal           []float64   `json:"tasks_total"`
	HabitsCompleted      []float64   `json:"habits_completed"`
	HabitsTotal          []float64   `json:"habits_total"`
	FocusMinutes         []float64   `json:"focus_minutes"`
	EnergyLevel          []float64   `json:"energy_level"`
	TasksCompletionRate  []float64   `json:"tasks_completion_rate"`
	HabitsCompletionRate []float64   `json:"habits_completion_rate"`
}

// BuildProductivitySeries aggregates productivity logs into the requested
// granularity. Counts are summed per bucket; energy level is averaged.
func BuildProductivitySeries(logs []core.ProductivityLog, start, end time.Time, period Period) (*ProductivitySeries, error) {
	if start.After(end) {
		return nil, core.ErrInvalidRange
	}

	type agg struct {
		tasksDone, tasksTotal, habitsDone, habitsTotal, focus float64
		energySum                                             float64
		samples                                               int
	}
	buckets := make(map[time.Time]*agg)
	for _, log := range logs {
		day := core.Day(log.Date)
		if day.Before(core.Day(start)) || day.After(core.Day(end)) {
			continue
		}
		key := bucketStart(day, period)
		a := buckets[key]
		if a == nil {
			a = &agg{}
			buckets[key] = a
		}
		a.tasksDone += float64(log.TasksCompleted)
		a.tasksTotal += float64(log.TasksTotal)
		a.habitsDone += float64(log.HabitsCompleted)
		a.habitsTotal += float64(log.HabitsTotal)
		a.focus += float64(log.FocusMinutes)
		energy := log.EnergyLevel
		if energy == 0 {
			energy = 5
		}
		a.energySum += float64(energy)
		a.samples++
	}

	series := &ProductivitySeries{}
	if len(buckets) == 0 {
		return series, nil
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	for _, k := range keys {
		a := buckets[k]
		series.Dates = append(series.Dates, k)
		series.TasksCompleted = append(series.TasksCompleted, a.tasksDone)
		series.TasksTotal = append(series.TasksTotal, a.tasksTotal)
		series.HabitsCompleted = append(series.HabitsCompleted, a.habitsDone)
		series.HabitsTotal = append(series.HabitsTotal, a.habitsTotal)
		series.FocusMinutes = append(series.FocusMinutes, a.focus)
		series.EnergyLevel = append(series.EnergyLevel, a.energySum/float64(a.samples))
		series.TasksCompletionRate = append(series.TasksCompletionRate, rate(a.tasksDone, a.tasksTotal))
		series.HabitsCompletionRate = append(series.HabitsCompletionRate, rate(a.habitsDone, a.habitsTotal))
	}
	return series, nil
}

func rate(done, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return done / total * 100
}

// ExpenseSeries is the aggregated expense view over a date range
type ExpenseSeries struct {
	Dates      []time.Time        `json:"dates"`
	Amounts    []float64          `json:"amounts"`
	Categories map[string]float64 `json:"categories"`
}

// BuildExpenseSeries sums absolute expense amounts into the requested
// granularity and totals per category across the whole range.
func BuildExpenseSeries(transactions []core.Transaction, start, end time.Time, period Period) (*ExpenseSeries, error) {
	if start.After(end) {
		return nil, core.ErrInvalidRange
	}

	buckets := make(map[time.Time]float64)
	categories := make(map[string]float64)
	for _, tx := range transactions {
		if tx.Type != core.TransactionExpense {
			continue
		}
		day := core.Day(tx.Date)
		if day.Before(core.Day(start)) || day.After(core.Day(end)) {
			continue
		}
		amount := math.Abs(tx.Amount)
		buckets[bucketStart(day, period)] += amount
		categories[tx.Category] += amount
	}

	series := &ExpenseSeries{Categories: categories}
	if len(buckets) == 0 {
		series.Categories = map[string]float64{}
		return series, nil
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	for _, k := range keys {
		series.Dates = append(series.Dates, k)
		series.Amounts = append(series.Amounts, buckets[k])
	}
	return series, nil
}

// productivityRatePoints converts logs to a daily completion-rate series.
func productivityRatePoints(logs []core.ProductivityLog, start, today time.Time) []core.TimePoint {
	byDay := make(map[time.Time]core.ProductivityLog)
	for _, log := range logs {
		day := core.Day(log.Date)
		if day.Before(start) || day.After(core.Day(today)) {
			continue
		}
		byDay[day] = log
	}
	return sortedPoints(byDay, func(l core.ProductivityLog) float64 { return l.CompletionRate() })
}

// expenseDailyPoints converts transactions to a daily absolute-spend series.
func expenseDailyPoints(transactions []core.Transaction, start, today time.Time) []core.TimePoint {
	totals := make(map[time.Time]float64)
	for _, tx := range transactions {
		if tx.Type != core.TransactionExpense {
			continue
		}
		day := core.Day(tx.Date)
		if day.Before(start) || day.After(core.Day(today)) {
			continue
		}
		totals[day] += math.Abs(tx.Amount)
	}
	return sortedPoints(totals, func(v float64) float64 { return v })
}

func sortedPoints[T any](byDay map[time.Time]T, value func(T) float64) []core.TimePoint {
	if len(byDay) == 0 {
		return nil
	}
	keys := make([]time.Time, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]core.TimePoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, core.TimePoint{Date: k, Value: value(byDay[k])})
	}
	return points
}

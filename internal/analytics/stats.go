package analytics

import (
	"math"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// Significance bands a correlation or fit-quality statistic
type Significance string

const (
	SignificanceStrong       Significance = "strong"
	SignificanceModerate     Significance = "moderate"
	SignificanceWeak         Significance = "weak"
	SignificanceNone         Significance = "none"
	SignificanceInsufficient Significance = "insufficient_data"
)

// CategoryShare is one category's count and share of the total
type CategoryShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Distribution maps categories to their share of a record set
type Distribution struct {
	Categories map[string]CategoryShare `json:"categories"`
	Total      int                      `json:"total"`
}

// EntityType selects which record collection a distribution covers
type EntityType string

const (
	EntityTask        EntityType = "task"
	EntityHabit       EntityType = "habit"
	EntityTransaction EntityType = "transaction"
)

// CategoryDistribution counts records per category. The caller supplies
// category names already filtered to the window of interest; unknown entity
// types are rejected upstream.
func CategoryDistribution(categories []string) Distribution {
	counts := make(map[string]int)
	for _, c := range categories {
		if c == "" {
			c = "Unknown"
		}
		counts[c]++
	}

	total := len(categories)
	dist := Distribution{
		Categories: make(map[string]CategoryShare, len(counts)),
		Total:      total,
	}
	for cat, count := range counts {
		share := CategoryShare{Count: count}
		if total > 0 {
			share.Percentage = float64(count) / float64(total) * 100
		}
		dist.Categories[cat] = share
	}
	return dist
}

// TaskCategories extracts category names from tasks created in the window.
func TaskCategories(tasks []core.Task, days int, today time.Time) []string {
	start := core.Day(today).AddDate(0, 0, -days)
	var out []string
	for _, t := range tasks {
		if !core.Day(t.CreatedAt).Before(start) {
			out = append(out, t.Category)
		}
	}
	return out
}

// HabitCategories extracts category names from active habits.
func HabitCategories(habits []core.Habit) []string {
	var out []string
	for _, h := range habits {
		if h.IsActive {
			out = append(out, h.Category)
		}
	}
	return out
}

// TransactionCategories extracts category names from transactions in the window.
func TransactionCategories(transactions []core.Transaction, days int, today time.Time) []string {
	start := core.Day(today).AddDate(0, 0, -days)
	var out []string
	for _, tx := range transactions {
		if !core.Day(tx.Date).Before(start) {
			out = append(out, tx.Category)
		}
	}
	return out
}

// CorrelationResult reports the task-completion vs energy-level relationship
type CorrelationResult struct {
	Correlation  float64      `json:"correlation"`
	Significance Significance `json:"significance"`
	SampleSize   int          `json:"sample_size"`
}

// minCorrelationSamples is the smallest sample that yields a correlation;
// below it the result is labeled insufficient_data.
const minCorrelationSamples = 3

// AnalyzeCorrelation computes the Pearson correlation between daily task
// completion rate and energy level across productivity logs from the
// trailing window. Logs with no tasks are skipped.
func AnalyzeCorrelation(logs []core.ProductivityLog, days int, today time.Time) CorrelationResult {
	start := core.Day(today).AddDate(0, 0, -days)

	var rates, energy []float64
	for _, log := range logs {
		if core.Day(log.Date).Before(start) || log.TasksTotal <= 0 {
			continue
		}
		rates = append(rates, log.CompletionRate())
		level := log.EnergyLevel
		if level == 0 {
			level = 5
		}
		energy = append(energy, float64(level))
	}

	if len(rates) < minCorrelationSamples {
		return CorrelationResult{Significance: SignificanceInsufficient}
	}

	r := pearson(rates, energy)
	return CorrelationResult{
		Correlation:  r,
		Significance: correlationBand(r),
		SampleSize:   len(rates),
	}
}

func correlationBand(r float64) Significance {
	abs := math.Abs(r)
	switch {
	case abs > 0.7:
		return SignificanceStrong
	case abs > 0.4:
		return SignificanceModerate
	case abs > 0.2:
		return SignificanceWeak
	default:
		return SignificanceNone
	}
}

// pearson computes the Pearson correlation coefficient of two equal-length
// samples. Returns 0 when either sample has zero variance.
func pearson(x, y []float64) float64 {
	mx := mean(x)
	my := mean(y)

	var cov, vx, vy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

// RegressionResult reports the habits-completed vs tasks-completed fit
type RegressionResult struct {
	RSquared     float64      `json:"r_squared"`
	Coefficient  float64      `json:"coefficient"`
	Intercept    float64      `json:"intercept"`
	Significance Significance `json:"significance"`
}

// RegressionAnalysis fits daily tasks-completed against daily
// habits-completed over the trailing window. Requires at least 3 distinct
// days and nonzero variance in the habit counts.
func RegressionAnalysis(tasks []core.Task, completions []core.HabitCompletion, days int, today time.Time) RegressionResult {
	start := core.Day(today).AddDate(0, 0, -days)

	type counts struct{ habitsDone, tasksDone int }
	daily := make(map[time.Time]*counts)
	dayOf := func(t time.Time) *counts {
		d := core.Day(t)
		c := daily[d]
		if c == nil {
			c = &counts{}
			daily[d] = c
		}
		return c
	}

	for _, t := range tasks {
		if core.Day(t.CreatedAt).Before(start) {
			continue
		}
		c := dayOf(t.CreatedAt)
		if t.Status == core.TaskStatusDone {
			c.tasksDone++
		}
	}
	for _, hc := range completions {
		if core.Day(hc.Date).Before(start) {
			continue
		}
		dayOf(hc.Date).habitsDone++
	}

	if len(daily) < 3 {
		return RegressionResult{Significance: SignificanceInsufficient}
	}

	x := make([]float64, 0, len(daily))
	y := make([]float64, 0, len(daily))
	for _, c := range daily {
		x = append(x, float64(c.habitsDone))
		y = append(y, float64(c.tasksDone))
	}

	if stddev(x) == 0 {
		return RegressionResult{Significance: SignificanceInsufficient}
	}

	slope, intercept := linearFit(x, y)

	my := mean(y)
	var ssRes, ssTot float64
	for i := range x {
		pred := slope*x[i] + intercept
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - my) * (y[i] - my)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	sig := SignificanceWeak
	switch {
	case r2 > 0.5:
		sig = SignificanceStrong
	case r2 > 0.3:
		sig = SignificanceModerate
	}

	return RegressionResult{
		RSquared:     r2,
		Coefficient:  slope,
		Intercept:    intercept,
		Significance: sig,
	}
}

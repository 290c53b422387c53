// Package anomaly flags outlier transactions and habit-performance
// regressions. Detection is a pure function of the supplied records; the
// outlier-forest strategy is chosen at construction and silently degrades
// to the z-score method when it is absent or fails.
package anomaly

import (
	"math"
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/analytics"
	"github.com/lifetrack/lifetrack/internal/core"
	"github.com/lifetrack/lifetrack/internal/logging"
)

// Reason codes for anomaly reports
const (
	ReasonAmountOutlier      = "amount_outlier"
	ReasonStreakBreak        = "streak_break"
	ReasonCompletionRateDrop = "completion_rate_drop"
)

// Config carries the detector's tunable thresholds
type Config struct {
	Contamination       float64 // outlier-forest expected anomaly fraction
	StreakBreakDays     int     // gap before a broken streak flags
	StreakBreakHighDays int     // gap that escalates severity to high
	RateDropThreshold   float64 // week-over-week completion change, e.g. -0.5
}

// DefaultConfig returns the detector's default thresholds
func DefaultConfig() Config {
	return Config{
		Contamination:       0.1,
		StreakBreakDays:     7,
		StreakBreakHighDays: 14,
		RateDropThreshold:   -0.5,
	}
}

// OutlierStrategy is the pluggable multivariate outlier contract
type OutlierStrategy interface {
	Name() string
	Detect(features [][]float64) ([]bool, error)
}

// Detector finds expense and habit anomalies
type Detector struct {
	forest OutlierStrategy // nil when the capability is unavailable
	cfg    Config
	log    *logging.Logger
}

// New creates a detector. forest may be nil; every expense detection then
// uses the z-score method directly.
func New(forest OutlierStrategy, cfg Config) *Detector {
	if cfg.StreakBreakDays == 0 {
		cfg = DefaultConfig()
	}
	return &Detector{
		forest: forest,
		cfg:    cfg,
		log:    logging.WithField("component", "anomaly"),
	}
}

// minExpenseSamples is the smallest transaction set worth analyzing.
const minExpenseSamples = 5

// minForestSamples is the smallest set the outlier forest runs on.
const minForestSamples = 10

// ExpenseAnomaly reports one unusual transaction
type ExpenseAnomaly struct {
	TransactionID core.TransactionID `json:"transaction_id"`
	Title         string             `json:"title"`
	Amount        float64            `json:"amount"`
	Category      string             `json:"category"`
	Date          time.Time          `json:"date"`
	Reason        string             `json:"reason"`
	MeanAmount    float64            `json:"mean_amount"`
	Severity      core.Severity      `json:"severity"`
}

// DetectExpenseAnomalies flags unusual expense transactions in the trailing
// window. Fewer than 5 transactions yields an empty list. Results are sorted
// by amount descending.
func (d *Detector) DetectExpenseAnomalies(transactions []core.Transaction, days int, today time.Time) []ExpenseAnomaly {
	start := core.Day(today).AddDate(0, 0, -days)

	var window []core.Transaction
	for _, tx := range transactions {
		if tx.Type == core.TransactionExpense && !core.Day(tx.Date).Before(start) {
			window = append(window, tx)
		}
	}
	if len(window) < minExpenseSamples {
		return []ExpenseAnomaly{}
	}

	amounts := make([]float64, len(window))
	for i, tx := range window {
		amounts[i] = math.Abs(tx.Amount)
	}
	meanAmount := meanOf(amounts)
	stdAmount := stdOf(amounts, meanAmount)

	var anomalies []ExpenseAnomaly

	if d.forest != nil && len(window) >= minForestSamples {
		flags, err := d.forest.Detect(d.buildFeatures(window, meanAmount, stdAmount))
		if err != nil {
			d.log.Warn("%s failed, falling back to z-score: %v", d.forest.Name(), err)
		} else {
			for i, tx := range window {
				if !flags[i] {
					continue
				}
				amount := math.Abs(tx.Amount)
				severity := core.SeverityMedium
				if amount > meanAmount+2*stdAmount {
					severity = core.SeverityHigh
				}
				anomalies = append(anomalies, ExpenseAnomaly{
					TransactionID: tx.ID,
					Title:         tx.Title,
					Amount:        amount,
					Category:      tx.Category,
					Date:          core.Day(tx.Date),
					Reason:        ReasonAmountOutlier,
					MeanAmount:    meanAmount,
					Severity:      severity,
				})
			}
		}
	}

	// Z-score fallback: also applies when the forest found nothing.
	if len(anomalies) == 0 {
		threshold := meanAmount + 2*stdAmount
		for _, tx := range window {
			amount := math.Abs(tx.Amount)
			if amount <= threshold {
				continue
			}
			severity := core.SeverityMedium
			if amount > meanAmount+3*stdAmount {
				severity = core.SeverityHigh
			}
			anomalies = append(anomalies, ExpenseAnomaly{
				TransactionID: tx.ID,
				Title:         tx.Title,
				Amount:        amount,
				Category:      tx.Category,
				Date:          core.Day(tx.Date),
				Reason:        ReasonAmountOutlier,
				MeanAmount:    meanAmount,
				Severity:      severity,
			})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool { return anomalies[i].Amount > anomalies[j].Amount })
	if anomalies == nil {
		anomalies = []ExpenseAnomaly{}
	}
	return anomalies
}

// buildFeatures encodes each transaction as [z-scored amount, category
// index, weekday] for the outlier forest.
func (d *Detector) buildFeatures(window []core.Transaction, meanAmount, stdAmount float64) [][]float64 {
	categoryIndex := make(map[string]int)
	features := make([][]float64, 0, len(window))
	for _, tx := range window {
		idx, ok := categoryIndex[tx.Category]
		if !ok {
			idx = len(categoryIndex)
			categoryIndex[tx.Category] = idx
		}
		normalized := (math.Abs(tx.Amount) - meanAmount) / (stdAmount + 1e-8)
		features = append(features, []float64{
			normalized,
			float64(idx),
			float64(core.Day(tx.Date).Weekday()),
		})
	}
	return features
}

// minHabitCompletions is the smallest history a habit needs before its
// performance is judged.
const minHabitCompletions = 5

// habitWindowDays bounds how much completion history the habit checks see.
const habitWindowDays = 30

// minRateDropCompletions gates the week-over-week rate comparison.
const minRateDropCompletions = 14

// HabitAnomaly reports one habit performance regression
type HabitAnomaly struct {
	HabitID       core.HabitID  `json:"habit_id"`
	Title         string        `json:"title"`
	Reason        string        `json:"reason"`
	Severity      core.Severity `json:"severity"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	DaysSince     int           `json:"days_since_completion,omitempty"`
	RateChange    float64       `json:"rate_change,omitempty"`
}

// DetectHabitAnomalies flags broken streaks and completion-rate drops across
// active habits. Only the trailing 30 days of each habit's completions are
// considered; anything older is discarded before the minimum-sample gates.
func (d *Detector) DetectHabitAnomalies(habits []core.Habit, completions map[core.HabitID][]core.HabitCompletion, today time.Time) []HabitAnomaly {
	anomalies := []HabitAnomaly{}

	for _, habit := range habits {
		if !habit.IsActive {
			continue
		}
		history := recentCompletions(completions[habit.ID], today)
		if len(history) < minHabitCompletions {
			continue
		}

		// Streak break: a once-long streak that has gone quiet.
		if habit.CurrentStreak == 0 && habit.LongestStreak > d.cfg.StreakBreakDays {
			daysSince := analytics.DaysSinceLastCompletion(history, today)
			if daysSince > d.cfg.StreakBreakDays {
				severity := core.SeverityMedium
				if daysSince > d.cfg.StreakBreakHighDays {
					severity = core.SeverityHigh
				}
				anomalies = append(anomalies, HabitAnomaly{
					HabitID:       habit.ID,
					Title:         habit.Title,
					Reason:        ReasonStreakBreak,
					Severity:      severity,
					CurrentStreak: habit.CurrentStreak,
					LongestStreak: habit.LongestStreak,
					DaysSince:     daysSince,
				})
			}
		}

		// Completion-rate drop: this week's completions vs the week before.
		if len(history) >= minRateDropCompletions {
			recentStart := core.Day(today).AddDate(0, 0, -7)
			previousStart := recentStart.AddDate(0, 0, -7)

			var recent, previous int
			for _, c := range history {
				day := core.Day(c.Date)
				switch {
				case !day.Before(recentStart):
					recent++
				case !day.Before(previousStart):
					previous++
				}
			}

			if previous > 0 {
				change := float64(recent-previous) / float64(previous)
				if change < d.cfg.RateDropThreshold {
					anomalies = append(anomalies, HabitAnomaly{
						HabitID:       habit.ID,
						Title:         habit.Title,
						Reason:        ReasonCompletionRateDrop,
						Severity:      core.SeverityMedium,
						CurrentStreak: habit.CurrentStreak,
						LongestStreak: habit.LongestStreak,
						RateChange:    change,
					})
				}
			}
		}
	}

	return anomalies
}

func recentCompletions(history []core.HabitCompletion, today time.Time) []core.HabitCompletion {
	start := core.Day(today).AddDate(0, 0, -habitWindowDays)
	out := make([]core.HabitCompletion, 0, len(history))
	for _, c := range history {
		if !core.Day(c.Date).Before(start) {
			out = append(out, c)
		}
	}
	return out
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdOf(values []float64, m float64) float64 {
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

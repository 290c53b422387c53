package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
	"github.com/lifetrack/lifetrack/internal/logging"
)

// minForecastHistory is the smallest history that permits a forecast attempt.
const minForecastHistory = 7

// FallbackReason records why a forecast degraded. Empty means the primary
// estimator produced the result.
type FallbackReason string

const (
	FallbackNone                  FallbackReason = ""
	FallbackInsufficientData      FallbackReason = "insufficient_data"
	FallbackCapabilityUnavailable FallbackReason = "capability_unavailable"
	FallbackComputationFailure    FallbackReason = "computation_failure"
)

// MetricKind selects the bound policy for a forecast
type MetricKind int

const (
	MetricPercent  MetricKind = iota // values in [0, 100]
	MetricCurrency                   // non-negative amounts
)

// ForecastResult is an N-day-ahead forecast with uncertainty bounds.
// All four slices share the requested horizon length, except when history
// was too sparse, in which case all are empty.
type ForecastResult struct {
	Dates          []time.Time    `json:"dates"`
	Forecast       []float64      `json:"forecast"`
	LowerBound     []float64      `json:"lower_bound"`
	UpperBound     []float64      `json:"upper_bound"`
	Method         string         `json:"method"`
	FallbackReason FallbackReason `json:"fallback_reason,omitempty"`
}

// Estimator is the forecasting strategy contract. Implementations must be
// deterministic for identical input.
type Estimator interface {
	Name() string
	Forecast(history []core.TimePoint, horizon int, today time.Time) (*ForecastResult, error)
}

// Forecaster produces productivity and expense forecasts, delegating to a
// primary estimator when one is configured and falling back to the flat
// historical mean otherwise. The primary is selected once at construction,
// never probed per call.
type Forecaster struct {
	primary     Estimator
	historyDays int
	log         *logging.Logger
}

// NewForecaster creates a forecaster. primary may be nil, in which case
// every forecast takes the fallback path with reason capability_unavailable.
func NewForecaster(primary Estimator, historyDays int) *Forecaster {
	if historyDays <= 0 {
		historyDays = 90
	}
	return &Forecaster{
		primary:     primary,
		historyDays: historyDays,
		log:         logging.WithField("component", "forecaster"),
	}
}

// ForecastProductivity forecasts the daily task completion rate.
func (f *Forecaster) ForecastProductivity(logs []core.ProductivityLog, horizon int, today time.Time) (*ForecastResult, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidHorizon, horizon)
	}
	start := core.Day(today).AddDate(0, 0, -f.historyDays)
	history := productivityRatePoints(logs, start, today)
	return f.forecast(history, horizon, today, MetricPercent), nil
}

// ForecastExpenses forecasts total daily spend.
func (f *Forecaster) ForecastExpenses(transactions []core.Transaction, horizon int, today time.Time) (*ForecastResult, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidHorizon, horizon)
	}
	start := core.Day(today).AddDate(0, 0, -f.historyDays)
	history := expenseDailyPoints(transactions, start, today)
	return f.forecast(history, horizon, today, MetricCurrency), nil
}

func (f *Forecaster) forecast(history []core.TimePoint, horizon int, today time.Time, kind MetricKind) *ForecastResult {
	// Below the minimum there is nothing worth extrapolating; return the
	// documented empty result rather than an error.
	if len(history) < minForecastHistory {
		return &ForecastResult{
			Dates:          []time.Time{},
			Forecast:       []float64{},
			LowerBound:     []float64{},
			UpperBound:     []float64{},
			Method:         "none",
			FallbackReason: FallbackInsufficientData,
		}
	}

	if f.primary == nil {
		return flatMeanForecast(history, horizon, today, kind, FallbackCapabilityUnavailable)
	}

	result, err := f.primary.Forecast(history, horizon, today)
	if err != nil {
		f.log.Warn("primary estimator %s failed, using flat mean: %v", f.primary.Name(), err)
		return flatMeanForecast(history, horizon, today, kind, FallbackComputationFailure)
	}
	result.Method = f.primary.Name()
	clampBounds(result, kind)
	return result
}

// flatMeanForecast predicts every future day as the historical mean.
// Percent metrics bound at mean±10 clamped to [0,100]; currency metrics
// bound at [mean×0.7, mean×1.3].
func flatMeanForecast(history []core.TimePoint, horizon int, today time.Time, kind MetricKind, reason FallbackReason) *ForecastResult {
	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Value
	}
	avg := mean(values)

	result := &ForecastResult{
		Dates:          make([]time.Time, 0, horizon),
		Forecast:       make([]float64, 0, horizon),
		LowerBound:     make([]float64, 0, horizon),
		UpperBound:     make([]float64, 0, horizon),
		Method:         "flat_mean",
		FallbackReason: reason,
	}

	day := core.Day(today)
	for i := 1; i <= horizon; i++ {
		result.Dates = append(result.Dates, day.AddDate(0, 0, i))
		result.Forecast = append(result.Forecast, avg)
		if kind == MetricPercent {
			result.LowerBound = append(result.LowerBound, math.Max(0, avg-10))
			result.UpperBound = append(result.UpperBound, math.Min(100, avg+10))
		} else {
			result.LowerBound = append(result.LowerBound, avg*0.7)
			result.UpperBound = append(result.UpperBound, avg*1.3)
		}
	}
	return result
}

func clampBounds(r *ForecastResult, kind MetricKind) {
	for i := range r.Forecast {
		if r.LowerBound[i] < 0 {
			r.LowerBound[i] = 0
		}
		if kind == MetricPercent {
			if r.UpperBound[i] > 100 {
				r.UpperBound[i] = 100
			}
			if r.Forecast[i] < 0 {
				r.Forecast[i] = 0
			}
			if r.Forecast[i] > 100 {
				r.Forecast[i] = 100
			}
		}
	}
}

// -----------------------------------------------------------------------------
// SeasonalEstimator - the primary decomposition strategy
// -----------------------------------------------------------------------------

// SeasonalEstimator fits a linear trend plus additive weekly seasonality by
// least squares and bounds the forecast with the residual spread. No yearly
// or daily seasonality is modeled.
type SeasonalEstimator struct{}

// NewSeasonalEstimator returns the default primary estimator.
func NewSeasonalEstimator() *SeasonalEstimator {
	return &SeasonalEstimator{}
}

// Name identifies the strategy in forecast results.
func (e *SeasonalEstimator) Name() string { return "seasonal_trend" }

// residualZ is the bound half-width in residual standard deviations.
const residualZ = 1.96

// Forecast fits the model and extrapolates horizon days past today.
func (e *SeasonalEstimator) Forecast(history []core.TimePoint, horizon int, today time.Time) (*ForecastResult, error) {
	if len(history) < minForecastHistory {
		return nil, fmt.Errorf("seasonal fit needs %d points, have %d", minForecastHistory, len(history))
	}

	origin := core.Day(history[0].Date)

	// Design: y = intercept + slope*t + weekday effect. Weekday effects are
	// computed from detrended residuals per day-of-week.
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, p := range history {
		xs[i] = float64(core.DaysBetween(origin, p.Date))
		ys[i] = p.Value
	}
	slope, intercept := linearFit(xs, ys)

	var dowSum [7]float64
	var dowCount [7]int
	for i, p := range history {
		resid := ys[i] - (intercept + slope*xs[i])
		dow := int(core.Day(p.Date).Weekday())
		dowSum[dow] += resid
		dowCount[dow]++
	}
	var dowEffect [7]float64
	for d := 0; d < 7; d++ {
		if dowCount[d] > 0 {
			dowEffect[d] = dowSum[d] / float64(dowCount[d])
		}
	}

	// Residual spread after removing trend and seasonality.
	residuals := make([]float64, len(history))
	for i, p := range history {
		dow := int(core.Day(p.Date).Weekday())
		residuals[i] = ys[i] - (intercept + slope*xs[i] + dowEffect[dow])
	}
	spread := stddev(residuals) * residualZ

	result := &ForecastResult{
		Dates:      make([]time.Time, 0, horizon),
		Forecast:   make([]float64, 0, horizon),
		LowerBound: make([]float64, 0, horizon),
		UpperBound: make([]float64, 0, horizon),
	}

	day := core.Day(today)
	for i := 1; i <= horizon; i++ {
		future := day.AddDate(0, 0, i)
		t := float64(core.DaysBetween(origin, future))
		dow := int(future.Weekday())
		value := intercept + slope*t + dowEffect[dow]
		result.Dates = append(result.Dates, future)
		result.Forecast = append(result.Forecast, value)
		result.LowerBound = append(result.LowerBound, value-spread)
		result.UpperBound = append(result.UpperBound, value+spread)
	}
	return result, nil
}

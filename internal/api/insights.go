package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifetrack/lifetrack/internal/analytics"
	"github.com/lifetrack/lifetrack/internal/core"
	"github.com/lifetrack/lifetrack/internal/insights"
)

// --- Query helpers ---

// intQuery parses an integer query parameter with a fallback
func intQuery(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// dateRange parses optional start/end query parameters (YYYY-MM-DD).
// ok is false when neither is present.
func dateRange(r *http.Request) (start, end time.Time, ok bool, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" && endStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid start date: %s", startStr)
		}
	}
	end = core.Day(time.Now().UTC())
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid end date: %s", endStr)
		}
	}
	return start, end, true, nil
}

// userRecords loads the collections the composed reports need
func (s *Server) userRecords(user string) (insights.Records, error) {
	tasks, err := s.taskStore.ListByUser(user)
	if err != nil {
		return insights.Records{}, err
	}
	habits, err := s.habitStore.ListByUser(user)
	if err != nil {
		return insights.Records{}, err
	}
	completions, err := s.habitStore.CompletionsByUser(user)
	if err != nil {
		return insights.Records{}, err
	}
	transactions, err := s.transactionStore.ListByUser(user)
	if err != nil {
		return insights.Records{}, err
	}
	return insights.Records{
		Tasks:        tasks,
		Habits:       habits,
		Completions:  completions,
		Transactions: transactions,
	}, nil
}

// --- Insight reports ---

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")

	records, err := s.userRecords(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	now := time.Now().UTC()
	var report *insights.Report
	switch insights.Period(period) {
	case insights.PeriodDaily:
		report = insights.ComposeDaily(records, now)
	case insights.PeriodWeekly:
		report = insights.ComposeWeekly(records, now)
	case insights.PeriodMonthly:
		report = insights.ComposeMonthly(records, now)
	default:
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("%v: %s", core.ErrUnknownPeriod, period))
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

// --- Trends ---

func (s *Server) handleTaskTrends(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	tasks, err := s.taskStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analytics.AnalyzeTaskCompletionTrends(tasks, days, time.Now().UTC()))
}

func (s *Server) handleExpenseTrends(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	transactions, err := s.transactionStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analytics.AnalyzeExpenseCategoryTrends(transactions, days, time.Now().UTC()))
}

func (s *Server) handleHabitTrends(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	habits, err := s.habitStore.ListByUser(user)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	completions, err := s.habitStore.CompletionsByUser(user)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analytics.AnalyzeHabitStreakTrends(habits, completions, time.Now().UTC()))
}

// --- Series ---

func (s *Server) handleProductivitySeries(w http.ResponseWriter, r *http.Request) {
	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	now := time.Now().UTC()
	start, end, ok, err := dateRange(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		end = core.Day(now)
		start = end.AddDate(0, 0, -30)
	}

	logs, err := s.productivityStore.ListByRange(userID(r), start, end)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	series, err := analytics.BuildProductivitySeries(logs, start, end, period)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, series)
}

func (s *Server) handleExpenseSeries(w http.ResponseWriter, r *http.Request) {
	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	now := time.Now().UTC()
	start, end, ok, err := dateRange(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		end = core.Day(now)
		start = end.AddDate(0, 0, -30)
	}

	transactions, err := s.transactionStore.ListByRange(userID(r), start, end.AddDate(0, 0, 1))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	series, err := analytics.BuildExpenseSeries(transactions, start, end, period)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, series)
}

// --- Statistics ---

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	now := time.Now().UTC()

	logs, err := s.productivityStore.ListRecent(userID(r), days, now)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analytics.AnalyzeCorrelation(logs, days, now))
}

func (s *Server) handleRegression(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	days := intQuery(r, "days", 30)
	now := time.Now().UTC()

	tasks, err := s.taskStore.ListByUser(user)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	byHabit, err := s.habitStore.CompletionsByUser(user)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	var completions []core.HabitCompletion
	for _, cs := range byHabit {
		completions = append(completions, cs...)
	}

	s.respondJSON(w, http.StatusOK, analytics.RegressionAnalysis(tasks, completions, days, now))
}

func (s *Server) handleCategoryDistribution(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	days := intQuery(r, "days", 30)
	now := time.Now().UTC()

	entity := r.URL.Query().Get("entity")
	var categories []string
	switch entity {
	case "tasks", "":
		tasks, err := s.taskStore.ListByUser(user)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		categories = analytics.TaskCategories(tasks, days, now)
	case "habits":
		habits, err := s.habitStore.ListByUser(user)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		categories = analytics.HabitCategories(habits)
	case "transactions":
		transactions, err := s.transactionStore.ListByUser(user)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		categories = analytics.TransactionCategories(transactions, days, now)
	default:
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("%v: %s", core.ErrUnknownEntity, entity))
		return
	}

	s.respondJSON(w, http.StatusOK, analytics.CategoryDistribution(categories))
}

// --- Forecasts ---

func (s *Server) handleForecastProductivity(w http.ResponseWriter, r *http.Request) {
	horizon := intQuery(r, "days", s.engine.ForecastDays)
	now := time.Now().UTC()

	logs, err := s.productivityStore.ListRecent(userID(r), s.engine.ForecastHistory, now)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	result, err := s.forecaster.ForecastProductivity(logs, horizon, now)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleForecastExpenses(w http.ResponseWriter, r *http.Request) {
	horizon := intQuery(r, "days", s.engine.ForecastDays)
	now := time.Now().UTC()

	transactions, err := s.transactionStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	result, err := s.forecaster.ForecastExpenses(transactions, horizon, now)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// --- Anomalies ---

func (s *Server) handleExpenseAnomalies(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	transactions, err := s.transactionStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.detector.DetectExpenseAnomalies(transactions, days, time.Now().UTC()))
}

func (s *Server) handleHabitAnomalies(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	habits, err := s.habitStore.ListByUser(user)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	completions, err := s.habitStore.CompletionsByUser(user)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.detector.DetectHabitAnomalies(habits, completions, time.Now().UTC()))
}

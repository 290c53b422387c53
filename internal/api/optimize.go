package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifetrack/lifetrack/internal/budget"
	"github.com/lifetrack/lifetrack/internal/core"
	"github.com/lifetrack/lifetrack/internal/recommend"
	"github.com/lifetrack/lifetrack/internal/schedule"
)

// --- Recommendations ---

func (s *Server) handleRecommendTasks(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	limit := intQuery(r, "limit", 5)

	pending, err := s.taskStore.ListByStatus(user, core.TaskStatusPending)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	completed, err := s.taskStore.ListByStatus(user, core.TaskStatusDone)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, recommend.RecommendTasks(pending, completed, limit, time.Now().UTC()))
}

func (s *Server) handleRecommendHabits(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	limit := intQuery(r, "limit", 5)

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

	s.respondJSON(w, http.StatusOK, recommend.RecommendHabits(habits, completions, limit, time.Now().UTC()))
}

// --- Scheduling ---

func (s *Server) handleScheduleDay(w http.ResponseWriter, r *http.Request) {
	availableHours := intQuery(r, "available_hours", s.engine.AvailableHours)

	pending, err := s.taskStore.ListByStatus(userID(r), core.TaskStatusPending)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	window := schedule.Window{
		StartHour: s.engine.WorkDayStartHour,
		EndHour:   s.engine.WorkDayEndHour,
	}
	s.respondJSON(w, http.StatusOK, schedule.ScheduleTasks(pending, availableHours, window, time.Now().UTC()))
}

func (s *Server) handleOptimizeOrder(w http.ResponseWriter, r *http.Request) {
	pending, err := s.taskStore.ListByStatus(userID(r), core.TaskStatusPending)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"task_order": schedule.OptimizeTaskOrder(pending),
	})
}

func (s *Server) handleSuggestTiming(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetByID(core.TaskID(chi.URLParam(r, "taskID")))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	completed, err := s.taskStore.ListByStatus(task.UserID, core.TaskStatusDone)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, schedule.SuggestTaskTiming(*task, completed, time.Now().UTC()))
}

// --- Budget optimization ---

func (s *Server) handleSuggestAllocations(w http.ResponseWriter, r *http.Request) {
	totalStr := r.URL.Query().Get("total")
	total, err := strconv.ParseFloat(totalStr, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "total query parameter is required")
		return
	}

	transactions, err := s.transactionStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	allocations, err := budget.SuggestAllocations(transactions, total, time.Now().UTC())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, allocations)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgetStore.GetByID(core.BudgetID(chi.URLParam(r, "budgetID")))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	transactions, err := s.transactionStore.ListByUser(b.UserID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, budget.GetStatus(*b, transactions, time.Now().UTC()))
}

func (s *Server) handleOptimizeBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgetStore.GetByID(core.BudgetID(chi.URLParam(r, "budgetID")))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	transactions, err := s.transactionStore.ListByUser(b.UserID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, budget.Optimize(*b, transactions, time.Now().UTC()))
}

// --- Priority prediction ---

func (s *Server) handlePredictPriority(w http.ResponseWriter, r *http.Request) {
	var task core.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if task.UserID == "" {
		task.UserID = userID(r)
	}

	now := time.Now().UTC()

	// Fall back to the due-date heuristic when no model is trained.
	if s.priorityModel == nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"priority": recommend.FallbackPriority(task, now),
			"method":   "heuristic",
		})
		return
	}

	history, err := s.taskStore.ListByUser(task.UserID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"priority": s.priorityModel.Predict(task, history, now),
		"method":   "model",
		"version":  s.priorityModel.Version,
	})
}

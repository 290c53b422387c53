package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifetrack/lifetrack/internal/core"
)

// --- Tasks ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	var tasks []core.Task
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		tasks, err = s.taskStore.ListByStatus(user, core.TaskStatus(status))
	} else {
		tasks, err = s.taskStore.ListByUser(user)
	}
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task core.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if task.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if task.UserID == "" {
		task.UserID = userID(r)
	}

	if err := s.taskStore.Create(&task); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetByID(core.TaskID(chi.URLParam(r, "taskID")))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetByID(core.TaskID(chi.URLParam(r, "taskID")))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	var updates struct {
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Category    string        `json:"category"`
		Status      string        `json:"status"`
		Priority    core.Priority `json:"priority"`
		IsFocus     *bool         `json:"is_focus"`
		DueDate     *time.Time    `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if updates.Title != "" {
		task.Title = updates.Title
	}
	if updates.Description != "" {
		task.Description = updates.Description
	}
	if updates.Category != "" {
		task.Category = updates.Category
	}
	if updates.Status != "" {
		task.Status = core.TaskStatus(updates.Status)
	}
	if updates.Priority != "" {
		task.Priority = updates.Priority
	}
	if updates.IsFocus != nil {
		task.IsFocus = *updates.IsFocus
	}
	if updates.DueDate != nil {
		task.DueDate = updates.DueDate
	}

	if err := s.taskStore.Update(task); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.taskStore.Delete(core.TaskID(chi.URLParam(r, "taskID"))); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Habits ---

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.habitStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var habit core.Habit
	if err := json.NewDecoder(r.Body).Decode(&habit); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if habit.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if habit.UserID == "" {
		habit.UserID = userID(r)
	}
	habit.IsActive = true

	if err := s.habitStore.Create(&habit); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, habit)
}

func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	habitID := core.HabitID(chi.URLParam(r, "habitID"))

	var body struct {
		Date     *time.Time `json:"date"`
		Progress int        `json:"progress"`
		Notes    string     `json:"notes"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	now := time.Now().UTC()
	date := now
	if body.Date != nil {
		date = *body.Date
	}

	completion := &core.HabitCompletion{
		HabitID:  habitID,
		Date:     date,
		Progress: body.Progress,
		Notes:    body.Notes,
	}
	if err := s.habitStore.RecordCompletion(completion, now); err != nil {
		s.respondStoreError(w, err)
		return
	}

	habit, err := s.habitStore.GetByID(habitID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"completion": completion,
		"habit":      habit,
	})
}

func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	completions, err := s.habitStore.ListCompletions(core.HabitID(chi.URLParam(r, "habitID")))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, completions)
}

// --- Transactions ---

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	start, end, ok, err := dateRange(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var transactions []core.Transaction
	if ok {
		transactions, err = s.transactionStore.ListByRange(user, start, end)
	} else {
		transactions, err = s.transactionStore.ListByUser(user)
	}
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if tx.Type != core.TransactionIncome && tx.Type != core.TransactionExpense {
		s.respondError(w, http.StatusBadRequest, "type must be income or expense")
		return
	}
	if tx.UserID == "" {
		tx.UserID = userID(r)
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	if err := s.transactionStore.Create(&tx); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, tx)
}

// --- Productivity logs ---

func (s *Server) handleUpsertProductivity(w http.ResponseWriter, r *http.Request) {
	var log core.ProductivityLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if log.UserID == "" {
		log.UserID = userID(r)
	}
	if log.Date.IsZero() {
		log.Date = time.Now().UTC()
	}

	if err := s.productivityStore.Upsert(&log); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleListProductivity(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	logs, err := s.productivityStore.ListRecent(userID(r), days, time.Now().UTC())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, logs)
}

// --- Budgets ---

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgetStore.ListByUser(userID(r))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if b.Category == "" {
		s.respondError(w, http.StatusBadRequest, "category is required")
		return
	}
	if b.Amount <= 0 {
		s.respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if b.UserID == "" {
		b.UserID = userID(r)
	}
	if b.StartDate.IsZero() {
		b.StartDate = core.Day(time.Now().UTC())
	}

	if err := s.budgetStore.Create(&b); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgetStore.Delete(core.BudgetID(chi.URLParam(r, "budgetID"))); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

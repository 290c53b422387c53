// Package core defines the fundamental types for LifeTrack.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// TASK - A unit of work with a deadline and a priority
// -----------------------------------------------------------------------------

// TaskID is a type-safe identifier for tasks
type TaskID string

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Priority represents task priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task represents a single unit of work
type Task struct {
	ID          TaskID     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	IsFocus     bool       `json:"is_focus"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// HABIT - A recurring behavior tracked by daily completions
// -----------------------------------------------------------------------------

// HabitID is a type-safe identifier for habits
type HabitID string

// Habit represents a recurring behavior
type Habit struct {
	ID       HabitID `json:"id"`
	UserID   string  `json:"user_id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	IsActive bool    `json:"is_active"`

	// Derived streak state, recomputed after every completion write.
	// Never mutated directly.
	CurrentStreak    int `json:"current_streak"`
	LongestStreak    int `json:"longest_streak"`
	TotalCompletions int `json:"total_completions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitCompletion records one completed day for a habit.
// At most one completion exists per (habit_id, date); writing a second
// completion for the same date overwrites the first.
type HabitCompletion struct {
	ID       string    `json:"id"`
	HabitID  HabitID   `json:"habit_id"`
	Date     time.Time `json:"date"`     // calendar day, time component zeroed
	Progress int       `json:"progress"` // 0-100
	Notes    string    `json:"notes,omitempty"`
}

// -----------------------------------------------------------------------------
// TRANSACTION - A single income or expense record
// -----------------------------------------------------------------------------

// TransactionID is a type-safe identifier for transactions
type TransactionID string

// TransactionType distinguishes income from expense
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction represents a single financial record.
// Amount is stored as entered; expense math always uses the absolute value.
type Transaction struct {
	ID       TransactionID   `json:"id"`
	UserID   string          `json:"user_id"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	Amount   float64         `json:"amount"`
	Date     time.Time       `json:"date"`

	CreatedAt time.Time `json:"created_at"`
}

// -----------------------------------------------------------------------------
// PRODUCTIVITY LOG - One day's aggregated productivity sample
// -----------------------------------------------------------------------------

// ProductivityLog is a per-day roll-up of activity
type ProductivityLog struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            time.Time `json:"date"`
	TasksCompleted  int       `json:"tasks_completed"`
	TasksTotal      int       `json:"tasks_total"`
	HabitsCompleted int       `json:"habits_completed"`
	HabitsTotal     int       `json:"habits_total"`
	FocusMinutes    int       `json:"focus_minutes"`
	EnergyLevel     int       `json:"energy_level"` // 1-10, 5 when unset
}

// CompletionRate returns the day's task completion rate in percent,
// or 0 when no tasks were logged.
func (l ProductivityLog) CompletionRate() float64 {
	if l.TasksTotal <= 0 {
		return 0
	}
	return float64(l.TasksCompleted) / float64(l.TasksTotal) * 100
}

// -----------------------------------------------------------------------------
// BUDGET - A spending limit for one category over a date range
// -----------------------------------------------------------------------------

// BudgetID is a type-safe identifier for budgets
type BudgetID string

// Budget represents a category spending limit
type Budget struct {
	ID        BudgetID   `json:"id"`
	UserID    string     `json:"user_id"`
	Category  string     `json:"category"`
	Amount    float64    `json:"amount"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // open-ended when nil
	CreatedAt time.Time  `json:"created_at"`
}

// -----------------------------------------------------------------------------
// Shared result primitives
// -----------------------------------------------------------------------------

// TimePoint is one aggregated metric sample. Within a series, dates are
// strictly increasing and unique.
type TimePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Severity grades an anomaly or diagnostic
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (positive when b is after a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

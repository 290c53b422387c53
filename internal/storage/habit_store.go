// Package storage provides persistence for LifeTrack.
package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lifetrack/lifetrack/internal/analytics"
	"github.com/lifetrack/lifetrack/internal/core"
)

// HabitStore handles habit and completion persistence. Streak fields on a
// habit are derived: every completion write recomputes them inside the same
// transaction.
type HabitStore struct {
	db *DB
}

// NewHabitStore creates a new habit store
func NewHabitStore(db *DB) *HabitStore {
	return &HabitStore{db: db}
}

// Create creates a new habit
func (s *HabitStore) Create(habit *core.Habit) error {
	if habit.ID == "" {
		habit.ID = core.HabitID(uuid.NewString())
	}
	now := time.Now().UTC()
	habit.CreatedAt = now
	habit.UpdatedAt = now

	_, err := s.db.conn.Exec(`
		INSERT INTO habits (
		    id, user_id, title, category, is_active,
		    current_streak, longest_streak, total_completions,
		    created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		habit.ID, habit.UserID, habit.Title, habit.Category, habit.IsActive,
		habit.CurrentStreak, habit.LongestStreak, habit.TotalCompletions,
		habit.CreatedAt, habit.UpdatedAt,
	)

	return err
}

// GetByID returns a habit by ID
func (s *HabitStore) GetByID(id core.HabitID) (*core.Habit, error) {
	habit := &core.Habit{}
	err := s.db.conn.QueryRow(`
		SELECT id, user_id, title, category, is_active,
		       current_streak, longest_streak, total_completions,
		       created_at, updated_at
		FROM habits WHERE id = ?
	`, id).Scan(
		&habit.ID, &habit.UserID, &habit.Title, &habit.Category, &habit.IsActive,
		&habit.CurrentStreak, &habit.LongestStreak, &habit.TotalCompletions,
		&habit.CreatedAt, &habit.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return habit, nil
}

// ListByUser returns all of a user's habits
func (s *HabitStore) ListByUser(userID string) ([]core.Habit, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, title, category, is_active,
		       current_streak, longest_streak, total_completions,
		       created_at, updated_at
		FROM habits
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []core.Habit{}
	for rows.Next() {
		var h core.Habit
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.Title, &h.Category, &h.IsActive,
			&h.CurrentStreak, &h.LongestStreak, &h.TotalCompletions,
			&h.CreatedAt, &h.UpdatedAt,
		); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// RecordCompletion writes one completion for a calendar day and recomputes
// the habit's streak state. A second write for the same (habit, day)
// replaces the first.
func (s *HabitStore) RecordCompletion(c *core.HabitCompletion, today time.Time) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Date = core.Day(c.Date)
	if c.Progress == 0 {
		c.Progress = 100
	}

	return s.db.Transaction(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow("SELECT COUNT(1) FROM habits WHERE id = ?", c.HabitID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return core.ErrRecordNotFound
		}

		_, err = tx.Exec(`
			INSERT INTO habit_completions (id, habit_id, date, progress, notes)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(habit_id, date) DO UPDATE SET
			    progress = excluded.progress,
			    notes = excluded.notes
		`, c.ID, c.HabitID, c.Date, c.Progress, c.Notes)
		if err != nil {
			return err
		}

		completions, err := completionsInTx(tx, c.HabitID)
		if err != nil {
			return err
		}

		state := analytics.ComputeStreaks(completions, today)
		_, err = tx.Exec(`
			UPDATE habits SET
			    current_streak = ?, longest_streak = ?, total_completions = ?,
			    updated_at = ?
			WHERE id = ?
		`, state.CurrentStreak, state.LongestStreak, state.TotalCompletions,
			time.Now().UTC(), c.HabitID)
		return err
	})
}

// ListCompletions returns a habit's completions, oldest first
func (s *HabitStore) ListCompletions(habitID core.HabitID) ([]core.HabitCompletion, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, habit_id, date, progress, notes
		FROM habit_completions
		WHERE habit_id = ?
		ORDER BY date ASC
	`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCompletions(rows)
}

// CompletionsByUser returns every completion for a user's habits, keyed by
// habit ID.
func (s *HabitStore) CompletionsByUser(userID string) (map[core.HabitID][]core.HabitCompletion, error) {
	rows, err := s.db.conn.Query(`
		SELECT c.id, c.habit_id, c.date, c.progress, c.notes
		FROM habit_completions c
		JOIN habits h ON h.id = c.habit_id
		WHERE h.user_id = ?
		ORDER BY c.date ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions, err := scanCompletions(rows)
	if err != nil {
		return nil, err
	}

	byHabit := make(map[core.HabitID][]core.HabitCompletion)
	for _, c := range completions {
		byHabit[c.HabitID] = append(byHabit[c.HabitID], c)
	}
	return byHabit, nil
}

func completionsInTx(tx *sql.Tx, habitID core.HabitID) ([]core.HabitCompletion, error) {
	rows, err := tx.Query(`
		SELECT id, habit_id, date, progress, notes
		FROM habit_completions
		WHERE habit_id = ?
		ORDER BY date ASC
	`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCompletions(rows)
}

func scanCompletions(rows *sql.Rows) ([]core.HabitCompletion, error) {
	completions := []core.HabitCompletion{}
	for rows.Next() {
		var c core.HabitCompletion
		var notes sql.NullString
		if err := rows.Scan(&c.ID, &c.HabitID, &c.Date, &c.Progress, &notes); err != nil {
			return nil, err
		}
		c.Notes = notes.String
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// Package storage provides persistence for LifeTrack.
package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifetrack/lifetrack/internal/core"
)

// ProductivityStore handles daily productivity roll-ups. One row exists per
// (user, day); writing again for the same day replaces it.
type ProductivityStore struct {
	db *DB
}

// NewProductivityStore creates a new productivity store
func NewProductivityStore(db *DB) *ProductivityStore {
	return &ProductivityStore{db: db}
}

// Upsert writes the day's roll-up
func (s *ProductivityStore) Upsert(log *core.ProductivityLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.Date = core.Day(log.Date)
	if log.EnergyLevel == 0 {
		log.EnergyLevel = 5
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO productivity_logs (
		    id, user_id, date, tasks_completed, tasks_total,
		    habits_completed, habits_total, focus_minutes, energy_level
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
		    tasks_completed = excluded.tasks_completed,
		    tasks_total = excluded.tasks_total,
		    habits_completed = excluded.habits_completed,
		    habits_total = excluded.habits_total,
		    focus_minutes = excluded.focus_minutes,
		    energy_level = excluded.energy_level
	`, log.ID, log.UserID, log.Date, log.TasksCompleted, log.TasksTotal,
		log.HabitsCompleted, log.HabitsTotal, log.FocusMinutes, log.EnergyLevel)

	return err
}

// ListByRange returns a user's logs with date in [start, end], oldest first
func (s *ProductivityStore) ListByRange(userID string, start, end time.Time) ([]core.ProductivityLog, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, date, tasks_completed, tasks_total,
		       habits_completed, habits_total, focus_minutes, energy_level
		FROM productivity_logs
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, userID, core.Day(start), core.Day(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []core.ProductivityLog{}
	for rows.Next() {
		var l core.ProductivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Date, &l.TasksCompleted, &l.TasksTotal,
			&l.HabitsCompleted, &l.HabitsTotal, &l.FocusMinutes, &l.EnergyLevel); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListRecent returns the user's logs from the trailing N days
func (s *ProductivityStore) ListRecent(userID string, days int, today time.Time) ([]core.ProductivityLog, error) {
	end := core.Day(today)
	start := end.AddDate(0, 0, -days)
	return s.ListByRange(userID, start, end)
}

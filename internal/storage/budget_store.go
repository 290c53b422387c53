// Package storage provides persistence for LifeTrack.
package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lifetrack/lifetrack/internal/core"
)

// BudgetStore handles budget persistence
type BudgetStore struct {
	db *DB
}

// NewBudgetStore creates a new budget store
func NewBudgetStore(db *DB) *BudgetStore {
	return &BudgetStore{db: db}
}

// Create creates a new budget
func (s *BudgetStore) Create(b *core.Budget) error {
	if b.ID == "" {
		b.ID = core.BudgetID(uuid.NewString())
	}
	b.CreatedAt = time.Now().UTC()

	_, err := s.db.conn.Exec(`
		INSERT INTO budgets (id, user_id, category, amount, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.UserID, b.Category, b.Amount, b.StartDate, b.EndDate, b.CreatedAt)

	return err
}

// GetByID returns a budget by ID
func (s *BudgetStore) GetByID(id core.BudgetID) (*core.Budget, error) {
	b := &core.Budget{}
	var endDate sql.NullTime

	err := s.db.conn.QueryRow(`
		SELECT id, user_id, category, amount, start_date, end_date, created_at
		FROM budgets WHERE id = ?
	`, id).Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.StartDate, &endDate, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		e := endDate.Time
		b.EndDate = &e
	}
	return b, nil
}

// ListByUser returns a user's budgets
func (s *BudgetStore) ListByUser(userID string) ([]core.Budget, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, category, amount, start_date, end_date, created_at
		FROM budgets
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		var b core.Budget
		var endDate sql.NullTime
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount,
			&b.StartDate, &endDate, &b.CreatedAt); err != nil {
			return nil, err
		}
		if endDate.Valid {
			e := endDate.Time
			b.EndDate = &e
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// Delete removes a budget
func (s *BudgetStore) Delete(id core.BudgetID) error {
	res, err := s.db.conn.Exec("DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Package storage provides persistence for LifeTrack.
package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/lifetrack/lifetrack/internal/core"
)

// TransactionStore handles financial record persistence
type TransactionStore struct {
	db *DB
}

// NewTransactionStore creates a new transaction store
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create creates a new transaction record
func (s *TransactionStore) Create(tx *core.Transaction) error {
	if tx.ID == "" {
		tx.ID = core.TransactionID(uuid.NewString())
	}
	tx.CreatedAt = time.Now().UTC()

	_, err := s.db.conn.Exec(`
		INSERT INTO transactions (id, user_id, title, category, type, amount, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.UserID, tx.Title, tx.Category, tx.Type, tx.Amount, tx.Date, tx.CreatedAt)

	return err
}

// GetByID returns a transaction by ID
func (s *TransactionStore) GetByID(id core.TransactionID) (*core.Transaction, error) {
	tx := &core.Transaction{}
	err := s.db.conn.QueryRow(`
		SELECT id, user_id, title, category, type, amount, date, created_at
		FROM transactions WHERE id = ?
	`, id).Scan(&tx.ID, &tx.UserID, &tx.Title, &tx.Category, &tx.Type, &tx.Amount, &tx.Date, &tx.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListByUser returns a user's transactions ordered by date ascending
func (s *TransactionStore) ListByUser(userID string) ([]core.Transaction, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, title, category, type, amount, date, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByRange returns a user's transactions with date in [start, end]
func (s *TransactionStore) ListByRange(userID string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_id, title, category, type, amount, date, created_at
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	transactions := []core.Transaction{}
	for rows.Next() {
		var tx core.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Title, &tx.Category, &tx.Type,
			&tx.Amount, &tx.Date, &tx.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

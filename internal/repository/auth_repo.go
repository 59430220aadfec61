package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fan_controller/internal/models"
)

// ErrOperatorExists is returned by CreateOperator once any account exists.
var ErrOperatorExists = errors.New("operator account already exists")

// OperatorSQLite stores the single operator account allowed to change
// controller settings.
type OperatorSQLite struct {
	db *sql.DB
}

func NewOperatorSQLite(db *sql.DB) *OperatorSQLite {
	return &OperatorSQLite{db: db}
}

var _ Authorization = (*OperatorSQLite)(nil)

const (
	// The NOT EXISTS guard makes "first account wins" a single statement,
	// so two concurrent bootstraps cannot both succeed.
	insertOperatorSQL = `
		INSERT INTO users (username, password_hash)
		SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM users)
	`
	selectOperatorSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
	countOperatorsSQL = `SELECT COUNT(*) FROM users`
)

// CreateOperator inserts the account only while the users table is empty.
func (r *OperatorSQLite) CreateOperator(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertOperatorSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for operator %q: %w", username, err)
	}
	if n == 0 {
		return 0, ErrOperatorExists
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id for operator %q: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) when no such account exists.
func (r *OperatorSQLite) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectOperatorSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	return &u, nil
}

// Count reports how many accounts exist; zero means sign-up is still open.
func (r *OperatorSQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countOperatorsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return n, nil
}

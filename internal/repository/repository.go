package repository

import (
	"context"
	"database/sql"
	"time"

	"fan_controller/internal/models"
)

// Authorization stores the operator account. There is at most one.
type Authorization interface {
	CreateOperator(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// StateRepo stores the single latest controller snapshot.
type StateRepo interface {
	Save(ctx context.Context, s models.FanState) error
	Load(ctx context.Context) (models.FanState, error)
}

// EventRepo is the append-only controller event log.
type EventRepo interface {
	Append(ctx context.Context, e models.FanEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.FanEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewOperatorSQLite(db),
	}
}

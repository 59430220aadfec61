package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fan_controller/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	fanStateRowID = 1

	upsertStateSQL = `
		INSERT INTO fan_state (id, status, tool_path, interval_s, reading_c, smoothed_c, target_duty, duty, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			tool_path=excluded.tool_path,
			interval_s=excluded.interval_s,
			reading_c=excluded.reading_c,
			smoothed_c=excluded.smoothed_c,
			target_duty=excluded.target_duty,
			duty=excluded.duty,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, status, tool_path, interval_s, reading_c, smoothed_c, target_duty, duty, updated_at
		FROM fan_state WHERE id=?
	`
)

// Save overwrites the fan_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state models.FanState) error {
	ts := state.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		fanStateRowID,
		state.Status,
		state.ToolPath,
		state.IntervalSeconds,
		state.ReadingC,
		state.SmoothedC,
		state.TargetDuty,
		state.Duty,
		ts,
	)
	return err
}

// Load fetches the fan_state row. A zero FanState (ID 0) means nothing has
// been recorded yet.
func (r *StateSQLite) Load(ctx context.Context) (models.FanState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, fanStateRowID)

	var s models.FanState
	if err := row.Scan(
		&s.ID,
		&s.Status,
		&s.ToolPath,
		&s.IntervalSeconds,
		&s.ReadingC,
		&s.SmoothedC,
		&s.TargetDuty,
		&s.Duty,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FanState{}, nil
		}
		return models.FanState{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

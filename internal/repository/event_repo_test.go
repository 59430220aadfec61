package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"fan_controller/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

const eventQueryAll = selectEventSQL + orderEventSQL

var eventColumns = []string{"id", "occurred_at", "type", "message", "meta"}

func newEventRepo(t *testing.T) (*EventSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewEventSQLite(db), mock
}

func TestEventSQLite_Append(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))

	tests := []struct {
		name   string
		event  models.FanEvent
		expect func(sqlmock.Sqlmock)
	}{
		{
			name: "explicit id and time stored as UTC text",
			event: models.FanEvent{
				EventID: "evt-1", OccurredAt: at, Type: "stop", Description: "control loop stopped",
			},
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertEventSQL).
					WithArgs("evt-1", "2025-03-04 08:00:00", "STOP", "control loop stopped", nil).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "generated id and time, metadata as JSON",
			event: models.FanEvent{
				Type: " tool_missing ", Description: "ectool path is empty or does not exist",
				Metadata: map[string]any{"tool_path": `C:\ectool.exe`},
			},
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insertEventSQL).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "TOOL_MISSING",
						"ectool path is empty or does not exist", `{"tool_path":"C:\\ectool.exe"}`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newEventRepo(t)
			tc.expect(mock)
			if err := repo.Append(context.Background(), tc.event); err != nil {
				t.Fatalf("Append: %v", err)
			}
		})
	}
}

func TestEventSQLite_AppendErrors(t *testing.T) {
	repo, mock := newEventRepo(t)
	down := errors.New("disk I/O error")
	mock.ExpectExec(insertEventSQL).WillReturnError(down)

	err := repo.Append(context.Background(), models.FanEvent{Type: "CONFIG_CHANGE"})
	if !errors.Is(err, down) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}

	// unencodable metadata never reaches the database
	err = repo.Append(context.Background(), models.FanEvent{Type: "START", Metadata: map[string]any{"ch": make(chan int)}})
	if err == nil {
		t.Fatalf("expected metadata encoding error")
	}
}

func TestEventSQLite_ListFilters(t *testing.T) {
	from := time.Date(2025, 1, 1, 13, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to time.Time
		typ      string
		query    string
		args     []driver.Value
	}{
		{name: "unfiltered", query: eventQueryAll},
		{
			name: "lower bound only", from: from,
			query: selectEventSQL + " WHERE occurred_at >= ?" + orderEventSQL,
			args:  []driver.Value{"2025-01-01 11:00:00"},
		},
		{
			name: "range and type", from: from, to: to, typ: " sensor_lost ",
			query: selectEventSQL + " WHERE occurred_at >= ? AND occurred_at <= ? AND type = ?" + orderEventSQL,
			args:  []driver.Value{"2025-01-01 11:00:00", "2025-01-01 12:00:00", "SENSOR_LOST"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newEventRepo(t)
			q := mock.ExpectQuery(tc.query)
			if len(tc.args) > 0 {
				q = q.WithArgs(tc.args...)
			}
			q.WillReturnRows(sqlmock.NewRows(eventColumns))

			got, err := repo.List(context.Background(), tc.from, tc.to, tc.typ)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestEventSQLite_ListDecodesRows(t *testing.T) {
	repo, mock := newEventRepo(t)
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(eventQueryAll).WillReturnRows(sqlmock.NewRows(eventColumns).
		AddRow("1", at, "TOOL_FOUND", "ectool found", `{"tool_path":"p","from":"","to":"ACTIVE"}`).
		AddRow("2", at, "SENSOR_LOST", "no usable temperature reading", nil).
		AddRow("3", at.Add(time.Second), "STOP", "control loop stopped", "not json"))

	got, err := repo.List(context.Background(), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events", len(got))
	}
	meta, ok := got[0].Metadata.(map[string]any)
	if !ok || meta["to"] != "ACTIVE" {
		t.Fatalf("metadata = %#v", got[0].Metadata)
	}
	if got[1].Metadata != nil {
		t.Fatalf("null meta decoded as %#v", got[1].Metadata)
	}
	if got[2].Metadata != "not json" {
		t.Fatalf("raw meta = %#v", got[2].Metadata)
	}
}

func TestEventSQLite_ListErrors(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectQuery(eventQueryAll).WillReturnError(errors.New("database is locked"))
	if _, err := repo.List(context.Background(), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected query error")
	}

	mock.ExpectQuery(eventQueryAll).WillReturnRows(sqlmock.NewRows(eventColumns).
		AddRow("x", "yesterday", "START", "m", nil))
	if _, err := repo.List(context.Background(), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error")
	}
}

package service

import (
	"context"
	"time"

	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// Snapshot statuses outside the per-tick ones. IDLE is reported before the
// control loop has completed a tick, STOPPED after it has exited.
const (
	StatusIdle    = "IDLE"
	StatusStopped = "STOPPED"
)

// MonitoringService reads the snapshot the controller last recorded.
type MonitoringService struct {
	states repository.StateRepo
	now    func() time.Time
}

func NewMonitoringService(states repository.StateRepo) *MonitoringService {
	return &MonitoringService{states: states, now: time.Now}
}

// GetState returns the stored snapshot, or an IDLE one stamped now when the
// table is still empty.
func (s *MonitoringService) GetState(ctx context.Context) (models.FanState, error) {
	st, err := s.states.Load(ctx)
	if err != nil {
		return models.FanState{}, err
	}
	if st.ID == 0 {
		return models.FanState{ID: 1, Status: StatusIdle, UpdatedAt: s.now().UTC()}, nil
	}
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

// toUTC converts t to UTC; the zero time stays zero.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

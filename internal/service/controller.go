package service

import (
	"context"
	"time"

	"fan_controller/internal/config"
	"fan_controller/internal/control"
	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"

	"github.com/google/uuid"
)

// stopEventTimeout bounds the STOP write after the loop context is gone.
const stopEventTimeout = 2 * time.Second

// ControllerService runs the control loop and records what it does.
type ControllerService struct {
	loop      *control.Loop
	settings  control.Settings
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	feed      *StateFeed
	log       *logger.Logger

	// last status seen by the observer; only touched on the loop goroutine
	lastStatus control.Status
}

// NewControllerService builds the loop around the given sensor and actuator.
func NewControllerService(
	settings control.Settings,
	sensor control.Sensor,
	actuator control.Actuator,
	stateRepo repository.StateRepo,
	eventRepo repository.EventRepo,
	feed *StateFeed,
	log *logger.Logger,
	opts ...control.Option,
) *ControllerService {
	s := &ControllerService{
		settings:  settings,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		feed:      feed,
		log:       log,
	}
	opts = append([]control.Option{control.WithObserver(s.observe)}, opts...)
	s.loop = control.New(settings, sensor, actuator, opts...)
	return s
}

// Run blocks until ctx is cancelled. The stored snapshot reads IDLE until
// the first tick and STOPPED once the loop has exited.
func (s *ControllerService) Run(ctx context.Context) error {
	s.record(ctx, s.lifecycleSnapshot(StatusIdle))
	s.appendEvent(ctx, EventStart, "control loop started", nil)
	s.infow("control_loop_started")

	err := s.loop.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopEventTimeout)
	defer cancel()
	s.record(stopCtx, s.lifecycleSnapshot(StatusStopped))
	s.appendEvent(stopCtx, EventStop, "control loop stopped", nil)
	s.infow("control_loop_stopped")
	return err
}

// observe records every tick as the current snapshot and logs status
// transitions as events.
func (s *ControllerService) observe(ctx context.Context, t control.Tick) {
	s.record(ctx, snapshotOf(t))

	if t.Status == control.StatusActive {
		s.debugw("tick", "reading_c", t.Reading, "smoothed_c", t.Smoothed, "target", t.Target, "duty", t.Duty)
	}

	prev := s.lastStatus
	s.lastStatus = t.Status
	if prev == t.Status {
		return
	}

	meta := map[string]any{"tool_path": t.ToolPath, "from": string(prev), "to": string(t.Status)}
	switch {
	case t.Status == control.StatusNoTool:
		s.appendEvent(ctx, EventToolMissing, "ectool path is empty or does not exist", meta)
		s.infow("ectool_missing", "path", t.ToolPath)
	case prev == control.StatusNoTool || prev == "":
		s.appendEvent(ctx, EventToolFound, "ectool found", meta)
		s.infow("ectool_found", "path", t.ToolPath)
		if t.Status == control.StatusNoReading {
			s.appendEvent(ctx, EventSensorLost, "no usable temperature reading", meta)
		}
	case t.Status == control.StatusNoReading:
		s.appendEvent(ctx, EventSensorLost, "no usable temperature reading", meta)
		s.infow("sensor_lost", "path", t.ToolPath)
	case t.Status == control.StatusActive:
		s.appendEvent(ctx, EventSensorRestored, "temperature readings resumed", meta)
		s.infow("sensor_restored", "path", t.ToolPath)
	}
}

// record stores st as the current snapshot and publishes it to live
// subscribers. Publishing does not wait for the store.
func (s *ControllerService) record(ctx context.Context, st models.FanState) {
	if s.feed != nil {
		s.feed.Publish(st)
	}
	if err := s.stateRepo.Save(ctx, st); err != nil && ctx.Err() == nil {
		s.errorw("fan_state_save_failed", "status", st.Status, "err", err)
	}
}

func (s *ControllerService) lifecycleSnapshot(status string) models.FanState {
	rt := s.settings.Get()
	return models.FanState{
		ID:              1,
		Status:          status,
		ToolPath:        rt.ToolPath,
		IntervalSeconds: rt.IntervalSeconds,
		UpdatedAt:       time.Now().UTC(),
	}
}

func snapshotOf(t control.Tick) models.FanState {
	st := models.FanState{
		ID:              1,
		Status:          string(t.Status),
		ToolPath:        t.ToolPath,
		IntervalSeconds: int(t.Interval / time.Second),
		UpdatedAt:       t.At,
	}
	if t.Status == control.StatusActive {
		st.ReadingC = t.Reading
		st.SmoothedC = t.Smoothed
		st.TargetDuty = t.Target
		st.Duty = t.Duty
	}
	return st
}

func (s *ControllerService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	ev := models.FanEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.errorw("fan_event_append_failed", "type", typ, "err", err)
	}
}

func (s *ControllerService) infow(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Infow(msg, kv...)
	}
}

func (s *ControllerService) debugw(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Debugw(msg, kv...)
	}
}

func (s *ControllerService) errorw(msg string, kv ...interface{}) {
	if s.log != nil {
		s.log.Errorw(msg, kv...)
	}
}

var _ control.Settings = (*config.Holder)(nil)

// Package control runs the fan control loop: sample, smooth, map to a duty
// cycle, rate-limit, actuate, sleep.
package control

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"fan_controller/internal/config"
)

// Sensor returns the hottest sensor reading in °C, or ok=false when no
// usable reading is available this tick.
type Sensor interface {
	MaxTemp(ctx context.Context, path string) (temp int, ok bool)
}

// Actuator commands a fan duty cycle. It never reports failure.
type Actuator interface {
	SetDuty(ctx context.Context, path string, percent int)
}

// Settings supplies the runtime configuration, read once per tick.
type Settings interface {
	Get() config.Runtime
}

// Observer receives every tick after it completes. It runs on the loop
// goroutine and delays the next sleep, so keep it short.
type Observer func(ctx context.Context, t Tick)

// Status describes how a tick ended.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusNoTool    Status = "NO_TOOL"
	StatusNoReading Status = "NO_READING"
)

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("control loop already running")

// State is the loop's memory between ticks. The zero value is "nothing seen
// yet".
type State struct {
	Smoothed    float64
	HasSmoothed bool
	PrevDuty    int
	HasDuty     bool
}

// Tick is the outcome of one iteration. Reading, Smoothed, Target and Duty
// are only meaningful when Status is StatusActive.
type Tick struct {
	At       time.Time
	Status   Status
	ToolPath string
	Interval time.Duration
	Reading  int
	Smoothed float64
	Target   int
	Duty     int
}

// Loop owns State exclusively; Step and Run must not be called concurrently.
type Loop struct {
	settings   Settings
	sensor     Sensor
	actuator   Actuator
	toolExists func(path string) bool
	observer   Observer
	now        func() time.Time

	state   State
	running atomic.Bool
}

// Option customises a Loop.
type Option func(*Loop)

// WithObserver registers a callback invoked after every tick.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// WithToolCheck replaces the default existence check for the tool path.
func WithToolCheck(fn func(path string) bool) Option {
	return func(l *Loop) { l.toolExists = fn }
}

// New builds a loop with empty state.
func New(settings Settings, sensor Sensor, actuator Actuator, opts ...Option) *Loop {
	l := &Loop{
		settings:   settings,
		sensor:     sensor,
		actuator:   actuator,
		toolExists: fileExists,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns a copy of the current loop state.
func (l *Loop) State() State {
	return l.state
}

// Step performs one iteration without sleeping.
func (l *Loop) Step(ctx context.Context) Tick {
	rt := l.settings.Get()
	tick := Tick{
		At:       l.now().UTC(),
		ToolPath: rt.ToolPath,
		Interval: time.Duration(rt.IntervalSeconds) * time.Second,
	}

	if rt.ToolPath == "" || !l.toolExists(rt.ToolPath) {
		tick.Status = StatusNoTool
		return tick
	}

	reading, ok := l.sensor.MaxTemp(ctx, rt.ToolPath)
	if !ok {
		// Keep smoothing and ramp history across gaps.
		tick.Status = StatusNoReading
		return tick
	}

	if l.state.HasSmoothed {
		l.state.Smoothed = Smooth(l.state.Smoothed, reading)
	} else {
		l.state.Smoothed = float64(reading)
		l.state.HasSmoothed = true
	}

	target := TargetDuty(l.state.Smoothed)
	duty := target
	if l.state.HasDuty {
		duty = Ramp(l.state.PrevDuty, target)
	}

	// Re-sent every tick even when unchanged.
	l.actuator.SetDuty(ctx, rt.ToolPath, duty)
	l.state.PrevDuty = duty
	l.state.HasDuty = true

	tick.Status = StatusActive
	tick.Reading = reading
	tick.Smoothed = l.state.Smoothed
	tick.Target = target
	tick.Duty = duty
	return tick
}

// Run steps and sleeps until ctx is cancelled. The interval is re-read on
// every tick.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		if ctx.Err() != nil {
			return nil
		}
		tick := l.Step(ctx)
		if l.observer != nil {
			l.observer(ctx, tick)
		}
		if !sleep(ctx, tick.Interval) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fan_controller/internal/config"
	"fan_controller/internal/control"
	"fan_controller/internal/models"
)

type stateRepoRecorder struct {
	mu     sync.Mutex
	states []models.FanState
	err    error
	onSave func(n int)
}

func (r *stateRepoRecorder) Save(ctx context.Context, s models.FanState) error {
	r.mu.Lock()
	r.states = append(r.states, s)
	n := len(r.states)
	r.mu.Unlock()
	if r.onSave != nil {
		r.onSave(n)
	}
	return r.err
}

func (r *stateRepoRecorder) Load(ctx context.Context) (models.FanState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return models.FanState{}, nil
	}
	return r.states[len(r.states)-1], nil
}

type scriptedSensor struct {
	mu       sync.Mutex
	readings []int // negative means no reading
}

func (s *scriptedSensor) MaxTemp(ctx context.Context, path string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readings) == 0 {
		return 0, false
	}
	r := s.readings[0]
	s.readings = s.readings[1:]
	return r, r >= 0
}

type dutyRecorder struct {
	mu     sync.Mutex
	duties []int
}

func (d *dutyRecorder) SetDuty(ctx context.Context, path string, percent int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.duties = append(d.duties, percent)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestControllerService_RunRecordsTicksAndLifecycle(t *testing.T) {
	holder := config.NewHolder(config.Runtime{ToolPath: "/opt/ectool", IntervalSeconds: 0})
	sensor := &scriptedSensor{readings: []int{40, 90, -1, 40}}
	act := &dutyRecorder{}
	events := &recordingEventRepo{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := &stateRepoRecorder{onSave: func(n int) {
		if n == 5 {
			cancel()
		}
	}}

	svc := NewControllerService(holder, sensor, act, states, events, nil, nil,
		control.WithToolCheck(func(string) bool { return true }))

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	// 40 -> 50; 90 smooths to 55 -> target 87, ramped to 70;
	// absent reading keeps state; 40 smooths to 50.5 -> target 76.
	wantDuties := []int{50, 70, 76}
	act.mu.Lock()
	gotDuties := append([]int(nil), act.duties...)
	act.mu.Unlock()
	if len(gotDuties) != len(wantDuties) {
		t.Fatalf("duties = %v, want %v", gotDuties, wantDuties)
	}
	for i := range wantDuties {
		if gotDuties[i] != wantDuties[i] {
			t.Fatalf("duties = %v, want %v", gotDuties, wantDuties)
		}
	}

	states.mu.Lock()
	saved := append([]models.FanState(nil), states.states...)
	states.mu.Unlock()
	if len(saved) != 6 {
		t.Fatalf("saved %d snapshots, want idle + 4 ticks + stopped", len(saved))
	}
	first, last := saved[0], saved[len(saved)-1]
	if first.Status != StatusIdle || first.ToolPath != "/opt/ectool" || first.Duty != 0 {
		t.Fatalf("first snapshot = %+v, want IDLE", first)
	}
	if last.Status != StatusStopped || last.ID != 1 || last.UpdatedAt.IsZero() {
		t.Fatalf("last snapshot = %+v, want STOPPED", last)
	}
	second, third := saved[2], saved[3]
	if second.Status != string(control.StatusActive) || second.Duty != 70 || second.TargetDuty != 87 || second.SmoothedC != 55 || second.ReadingC != 90 {
		t.Fatalf("second snapshot = %+v", second)
	}
	if third.Status != string(control.StatusNoReading) || third.Duty != 0 {
		t.Fatalf("third snapshot = %+v", third)
	}
	if second.ID != 1 || second.ToolPath != "/opt/ectool" || second.UpdatedAt.IsZero() {
		t.Fatalf("snapshot identity fields = %+v", second)
	}

	want := []string{EventStart, EventToolFound, EventSensorLost, EventSensorRestored, EventStop}
	if got := events.types(); !equalStrings(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestControllerService_ObserveTransitions(t *testing.T) {
	tests := []struct {
		name     string
		statuses []control.Status
		want     []string
	}{
		{
			name:     "steady active logs tool found once",
			statuses: []control.Status{control.StatusActive, control.StatusActive, control.StatusActive},
			want:     []string{EventToolFound},
		},
		{
			name:     "missing tool then fixed",
			statuses: []control.Status{control.StatusNoTool, control.StatusNoTool, control.StatusActive},
			want:     []string{EventToolMissing, EventToolFound},
		},
		{
			name:     "first tick without reading",
			statuses: []control.Status{control.StatusNoReading, control.StatusActive},
			want:     []string{EventToolFound, EventSensorLost, EventSensorRestored},
		},
		{
			name:     "tool removed while running",
			statuses: []control.Status{control.StatusActive, control.StatusNoTool},
			want:     []string{EventToolFound, EventToolMissing},
		},
		{
			name:     "sensor flaps",
			statuses: []control.Status{control.StatusActive, control.StatusNoReading, control.StatusNoReading, control.StatusActive},
			want:     []string{EventToolFound, EventSensorLost, EventSensorRestored},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			events := &recordingEventRepo{}
			states := &stateRepoRecorder{}
			svc := NewControllerService(config.NewHolder(config.Runtime{}), &scriptedSensor{}, &dutyRecorder{}, states, events, nil, nil)

			for _, st := range tc.statuses {
				svc.observe(context.Background(), control.Tick{At: time.Now().UTC(), Status: st, ToolPath: "/opt/ectool"})
			}
			if got := events.types(); !equalStrings(got, tc.want) {
				t.Fatalf("events = %v, want %v", got, tc.want)
			}
			if len(states.states) != len(tc.statuses) {
				t.Fatalf("saved %d snapshots, want %d", len(states.states), len(tc.statuses))
			}
		})
	}
}

func TestControllerService_SaveFailureDoesNotStopObserving(t *testing.T) {
	events := &recordingEventRepo{}
	states := &stateRepoRecorder{err: errors.New("db locked")}
	svc := NewControllerService(config.NewHolder(config.Runtime{}), &scriptedSensor{}, &dutyRecorder{}, states, events, nil, nil)

	svc.observe(context.Background(), control.Tick{Status: control.StatusActive})
	svc.observe(context.Background(), control.Tick{Status: control.StatusNoTool})

	if len(states.states) != 2 {
		t.Fatalf("saves = %d, want 2", len(states.states))
	}
	if got := events.types(); !equalStrings(got, []string{EventToolFound, EventToolMissing}) {
		t.Fatalf("events = %v", got)
	}
}

func TestControllerService_StoppedSnapshotSurvivesCancelledContext(t *testing.T) {
	holder := config.NewHolder(config.Runtime{ToolPath: "/missing/ectool", IntervalSeconds: 3})
	events := &recordingEventRepo{}
	states := &stateRepoRecorder{}
	feed := NewStateFeed()
	updates, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewControllerService(holder, &scriptedSensor{}, &dutyRecorder{}, states, events, feed, nil,
		control.WithToolCheck(func(string) bool { return false }))
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := states.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Status != StatusStopped || got.ToolPath != "/missing/ectool" || got.IntervalSeconds != 3 {
		t.Fatalf("stored snapshot after exit = %+v, want STOPPED", got)
	}

	select {
	case st := <-updates:
		if st.Status != StatusStopped {
			t.Fatalf("feed holds %q, want latest STOPPED", st.Status)
		}
	default:
		t.Fatalf("expected the feed to carry the final snapshot")
	}
}

func TestControllerService_ObservePublishesToFeed(t *testing.T) {
	feed := NewStateFeed()
	updates, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	svc := NewControllerService(config.NewHolder(config.Runtime{}), &scriptedSensor{}, &dutyRecorder{},
		&stateRepoRecorder{err: errors.New("db locked")}, &recordingEventRepo{}, feed, nil)

	svc.observe(context.Background(), control.Tick{Status: control.StatusActive, ToolPath: "p", Duty: 64, Target: 64})

	select {
	case st := <-updates:
		if st.Status != "ACTIVE" || st.Duty != 64 || st.ToolPath != "p" {
			t.Fatalf("published snapshot = %+v", st)
		}
	default:
		t.Fatalf("expected a snapshot on the feed even when the store fails")
	}
}

func TestSnapshotOf(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	active := snapshotOf(control.Tick{
		At: at, Status: control.StatusActive, ToolPath: "p", Interval: 7 * time.Second,
		Reading: 61, Smoothed: 58.5, Target: 96, Duty: 80,
	})
	want := models.FanState{
		ID: 1, Status: "ACTIVE", ToolPath: "p", IntervalSeconds: 7,
		ReadingC: 61, SmoothedC: 58.5, TargetDuty: 96, Duty: 80, UpdatedAt: at,
	}
	if active != want {
		t.Fatalf("active snapshot = %+v, want %+v", active, want)
	}

	idle := snapshotOf(control.Tick{At: at, Status: control.StatusNoReading, Reading: 99, Duty: 12})
	if idle.ReadingC != 0 || idle.Duty != 0 || idle.Status != "NO_READING" {
		t.Fatalf("non-active snapshot carries control values: %+v", idle)
	}
}

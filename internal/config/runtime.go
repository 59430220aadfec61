// Package config holds the runtime settings shared between the control loop
// and the control surface, and the settings file they are persisted to.
package config

import "sync"

// Interval bounds in seconds. Callers validate against these before
// committing a value; Holder itself accepts anything.
const (
	MinInterval     = 2
	MaxInterval     = 15
	DefaultInterval = 5
)

// Runtime is a point-in-time copy of the settings the control loop reads on
// every tick.
type Runtime struct {
	ToolPath        string `json:"tool_path"`
	IntervalSeconds int    `json:"interval"`
}

// ValidInterval reports whether seconds lies within [MinInterval, MaxInterval].
func ValidInterval(seconds int) bool {
	return seconds >= MinInterval && seconds <= MaxInterval
}

// Holder is a mutex-guarded Runtime. Writers are the settings service,
// the reader is the control loop.
type Holder struct {
	mu  sync.RWMutex
	cur Runtime
}

// NewHolder seeds a holder with initial values.
func NewHolder(initial Runtime) *Holder {
	return &Holder{cur: initial}
}

// Get returns a copy of the current settings.
func (h *Holder) Get() Runtime {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}

func (h *Holder) SetToolPath(path string) {
	h.mu.Lock()
	h.cur.ToolPath = path
	h.mu.Unlock()
}

func (h *Holder) SetInterval(seconds int) {
	h.mu.Lock()
	h.cur.IntervalSeconds = seconds
	h.mu.Unlock()
}

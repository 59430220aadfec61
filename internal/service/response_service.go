package service

import "time"

// SettingsView is what the control surface sees of the runtime settings.
type SettingsView struct {
	ToolPath        string `json:"tool_path"`
	IntervalSeconds int    `json:"interval"`
	ToolFound       bool   `json:"tool_found"`
	MinInterval     int    `json:"min_interval"`
	MaxInterval     int    `json:"max_interval"`
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "CONFIG_CHANGE", "SENSOR_LOST", ...
}

// Event types written to the log.
const (
	EventStart          = "START"
	EventStop           = "STOP"
	EventConfigChange   = "CONFIG_CHANGE"
	EventSensorLost     = "SENSOR_LOST"
	EventSensorRestored = "SENSOR_RESTORED"
	EventToolMissing    = "TOOL_MISSING"
	EventToolFound      = "TOOL_FOUND"
)

// EventTypes lists every type the controller writes, in lifecycle order.
var EventTypes = []string{
	EventStart,
	EventStop,
	EventConfigChange,
	EventToolMissing,
	EventToolFound,
	EventSensorLost,
	EventSensorRestored,
}

// IsEventType reports whether typ (already upper-cased) is a known type.
func IsEventType(typ string) bool {
	for _, t := range EventTypes {
		if t == typ {
			return true
		}
	}
	return false
}

package models

import "time"

// FanEvent is a single log entry.
type FanEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | CONFIG_CHANGE | SENSOR_LOST | SENSOR_RESTORED | TOOL_MISSING | TOOL_FOUND
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

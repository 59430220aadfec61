package models

import "time"

// FanState is the latest controller snapshot. It is overwritten on every tick
// and never read back into the control loop.
type FanState struct {
	ID              int       `json:"id"`
	Status          string    `json:"status"` // IDLE | ACTIVE | NO_TOOL | NO_READING | STOPPED
	ToolPath        string    `json:"tool_path"`
	IntervalSeconds int       `json:"interval_seconds"`
	ReadingC        int       `json:"reading_c,omitempty"`  // °C, raw max of all sensors
	SmoothedC       float64   `json:"smoothed_c,omitempty"` // °C
	TargetDuty      int       `json:"target_duty,omitempty"`
	Duty            int       `json:"duty,omitempty"` // last commanded duty, %
	UpdatedAt       time.Time `json:"updated_at"`
}

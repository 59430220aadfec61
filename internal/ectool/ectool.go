// Package ectool talks to the embedded-controller command line tool: it reads
// the board temperature sensors and commands the fan duty cycle.
//
// Both operations are best effort. A failed read is reported as "no reading",
// a failed write is swallowed; neither ever returns an error to the caller.
package ectool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"

	"fan_controller/internal/logger"
)

// Tool runs the external binary whose path is passed on every call, so a
// path change takes effect on the next invocation.
type Tool struct {
	log *logger.Logger
}

// New returns a Tool. log may be nil.
func New(log *logger.Logger) *Tool {
	return &Tool{log: log}
}

// MaxTemp runs `<path> temps all` and returns the hottest parsable sensor
// in °C. ok is false when the tool could not be run or printed no usable
// line.
func (t *Tool) MaxTemp(ctx context.Context, path string) (temp int, ok bool) {
	cmd := exec.CommandContext(ctx, path, "temps", "all")
	hideWindow(cmd)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// A non-zero exit still leaves usable output behind; only a launch
	// failure means there is nothing to parse.
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.debugw("ectool_read_failed", "path", path, "err", err)
			return 0, false
		}
		t.debugw("ectool_read_exit_status", "path", path, "code", exitErr.ExitCode())
	}

	return ParseMaxTemp(stdout.String())
}

// SetDuty runs `<path> fanduty <percent>` and discards all output.
func (t *Tool) SetDuty(ctx context.Context, path string, percent int) {
	cmd := exec.CommandContext(ctx, path, "fanduty", strconv.Itoa(percent))
	hideWindow(cmd)

	// Failures are ignored; every tick re-sends the duty.
	if err := cmd.Run(); err != nil {
		t.debugw("ectool_fanduty_failed", "path", path, "percent", percent, "err", err)
	}
}

func (t *Tool) debugw(msg string, kv ...interface{}) {
	if t.log != nil {
		t.log.Debugw(msg, kv...)
	}
}

//go:build !windows

package ectool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ectool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestMaxTemp_ParsesToolOutput(t *testing.T) {
	path := writeScript(t, `
if [ "$1" = "temps" ] && [ "$2" = "all" ]; then
  echo "CPU Temp = 55 C"
  echo "Board Temp = 61 C"
  echo "noise on stderr" 1>&2
fi`)

	got, ok := New(nil).MaxTemp(context.Background(), path)
	if !ok || got != 61 {
		t.Fatalf("MaxTemp() = %d, %v; want 61, true", got, ok)
	}
}

func TestMaxTemp_NonZeroExitStillParsesOutput(t *testing.T) {
	path := writeScript(t, `echo "CPU Temp = 48 C"; exit 3`)

	got, ok := New(nil).MaxTemp(context.Background(), path)
	if !ok || got != 48 {
		t.Fatalf("MaxTemp() = %d, %v; want 48, true", got, ok)
	}
}

func TestMaxTemp_NonZeroExitWithoutOutputIsAbsent(t *testing.T) {
	path := writeScript(t, `exit 1`)

	if _, ok := New(nil).MaxTemp(context.Background(), path); ok {
		t.Fatalf("expected absent reading")
	}
}

func TestMaxTemp_MissingBinaryIsAbsent(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	if _, ok := New(nil).MaxTemp(context.Background(), missing); ok {
		t.Fatalf("expected absent reading")
	}
}

func TestSetDuty_PassesPercentAndSwallowsFailure(t *testing.T) {
	dir := t.TempDir()
	record := filepath.Join(dir, "args")
	path := writeScript(t, `echo "$@" > "`+record+`"; exit 2`)

	New(nil).SetDuty(context.Background(), path, 70)

	b, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("tool was not invoked: %v", err)
	}
	if got := strings.TrimSpace(string(b)); got != "fanduty 70" {
		t.Fatalf("args = %q, want %q", got, "fanduty 70")
	}

	// Must not panic or block on a path that cannot be executed.
	New(nil).SetDuty(context.Background(), filepath.Join(dir, "missing"), 30)
}

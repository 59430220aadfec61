//go:build !windows

package ectool

import "os/exec"

func hideWindow(*exec.Cmd) {}

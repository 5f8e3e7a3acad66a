//go:build !windows

package singleinstance

import (
	"os"
	"syscall"
)

// isProcessAlive checks if a process with the given PID exists.
func isProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Use kill(0) to check existence.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

package singleinstance

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deskgate/deskgate/internal/gate"
)

// PIDFilePath returns the file in which the listening leader records its PID.
func PIDFilePath(dir, identity string) string {
	return filepath.Join(dir, gate.LockName(identity)+".pid")
}

// WritePIDFile writes the current process's PID to path.
func WritePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}
	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// RemovePIDFile removes the PID file at path.
func RemovePIDFile(path string) {
	os.Remove(path)
}

// ReadPIDFile reads the PID from path.
// Returns 0 if the file doesn't exist or is invalid.
func ReadPIDFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// LeaderPID reports the PID recorded by the leader for identity and whether
// that process still exists. A PID of 0 means none was recorded.
func LeaderPID(dir, identity string) (pid int, alive bool) {
	pid = ReadPIDFile(PIDFilePath(dir, identity))
	if pid == 0 {
		return 0, false
	}
	return pid, isProcessAlive(pid)
}

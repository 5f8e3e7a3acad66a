//go:build windows

package singleinstance

import "golang.org/x/sys/windows"

// isProcessAlive checks if a process with the given PID exists.
func isProcessAlive(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}

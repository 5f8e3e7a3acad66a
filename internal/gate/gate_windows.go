//go:build windows

package gate

import (
	"errors"

	"golang.org/x/sys/windows"
)

type mutexLock struct {
	handle windows.Handle
}

func (l *mutexLock) release() error {
	return windows.CloseHandle(l.handle)
}

// MutexName returns the session-local kernel object name for name.
func MutexName(name string) string {
	return `Local\` + name
}

func acquirePlatform(name string, _ options) (platformLock, bool, error) {
	namePtr, err := windows.UTF16PtrFromString(MutexName(name))
	if err != nil {
		return nil, false, err
	}

	handle, err := windows.CreateMutex(nil, false, namePtr)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		// Another process created it first. Drop our handle so the mutex goes
		// away with the leader.
		if handle != 0 {
			windows.CloseHandle(handle)
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &mutexLock{handle: handle}, true, nil
}

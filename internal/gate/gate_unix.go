//go:build !windows

package gate

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/deskgate/deskgate/internal/config"
	"github.com/deskgate/deskgate/internal/constants"
)

type fileLock struct {
	fl *flock.Flock
}

func (l *fileLock) release() error {
	// The lock file is left in place. Removing it would let a third process
	// lock a fresh inode while a second one still holds the old one.
	return l.fl.Unlock()
}

// LockPath returns the lock file used for name in dir.
func LockPath(dir, name string) string {
	return filepath.Join(dir, name+constants.LockFileSuffix)
}

func acquirePlatform(name string, o options) (platformLock, bool, error) {
	dir := o.dir
	if dir == "" {
		dir = config.RuntimeDirectory()
	}
	if err := config.EnsureRuntimeDirectory(dir); err != nil {
		return nil, false, err
	}

	fl := flock.New(LockPath(dir, name))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, false, err
	}
	if !locked {
		return nil, false, nil
	}
	return &fileLock{fl: fl}, true, nil
}

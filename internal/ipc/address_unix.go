//go:build !windows

package ipc

import (
	"os"
	"path/filepath"

	"github.com/deskgate/deskgate/internal/constants"
	"github.com/deskgate/deskgate/internal/util/sanitize"
)

// Address returns the Unix socket path for identity inside dir.
// Paths that would not fit in sun_path fall back to a hashed name, first in
// dir and then in the temp directory.
func Address(dir, identity string) string {
	name := sanitize.Component(identity, constants.AppName)
	path := filepath.Join(dir, name+constants.SocketFileSuffix)
	if len(path) <= constants.MaxUnixSocketPath {
		return path
	}

	hashed := sanitize.ShortHash(identity) + constants.SocketFileSuffix
	path = filepath.Join(dir, hashed)
	if len(path) <= constants.MaxUnixSocketPath {
		return path
	}
	return filepath.Join(os.TempDir(), constants.AppName+"-"+hashed)
}

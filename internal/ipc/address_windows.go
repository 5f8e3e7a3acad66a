//go:build windows

package ipc

import (
	"github.com/deskgate/deskgate/internal/constants"
	"github.com/deskgate/deskgate/internal/util/sanitize"
)

// pipePrefix is the local named pipe namespace.
const pipePrefix = `\\.\pipe\`

// Address returns the named pipe for identity. dir is unused on Windows.
func Address(_ string, identity string) string {
	return pipePrefix + constants.AppName + "-" + sanitize.Component(identity, constants.AppName)
}

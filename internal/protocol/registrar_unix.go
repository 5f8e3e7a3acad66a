//go:build !windows

package protocol

import (
	"path/filepath"

	"github.com/deskgate/deskgate/internal/config"
)

// NewRegistrar returns the desktop entry registrar for the user's data home.
func NewRegistrar() Registrar {
	return DesktopRegistrar{Dir: filepath.Join(config.DataDirectory(), "applications")}
}

// Package config provides configuration management for deskgate.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/deskgate/deskgate/internal/constants"
)

// RuntimeDirectory returns the directory that holds lock files and Unix
// sockets. Every process of one user session must resolve the same directory,
// so only per-user locations are used.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\deskgate\run (named mutexes and pipes do not
//     live on disk, this is only used for diagnostics)
//   - Unix: $XDG_RUNTIME_DIR/deskgate, else <user cache dir>/deskgate/run,
//     else <tmp>/deskgate-<uid>
func RuntimeDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), constants.AppName+"-run")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, constants.AppName, "run")
	}

	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, constants.AppName)
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.AppName+"-"+uidSuffix())
	}
	return filepath.Join(cacheDir, constants.AppName, "run")
}

// EnsureRuntimeDirectory creates dir with owner-only permissions.
func EnsureRuntimeDirectory(dir string) error {
	return os.MkdirAll(dir, 0700)
}

// DefaultConfigPath returns the default path for deskgate.conf.
//   - Windows: %APPDATA%\deskgate\deskgate.conf
//   - Unix: ~/.config/deskgate/deskgate.conf
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), constants.AppName, constants.ConfigFileName)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, constants.AppName, constants.ConfigFileName)
}

// DataDirectory returns the XDG data home used for desktop entries on Unix.
func DataDirectory() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.AppName+"-data")
	}
	return filepath.Join(homeDir, ".local", "share")
}

func uidSuffix() string {
	if uid := os.Getuid(); uid >= 0 {
		return strconv.Itoa(uid)
	}
	return "user"
}

// Package constants holds defaults shared by the gate, channel and CLI.
package constants

import (
	"time"
)

// Application identity defaults
const (
	// AppName is the binary name and the default instance identity.
	AppName = "deskgate"

	// ConfigFileName is the INI file read by the CLI.
	ConfigFileName = "deskgate.conf"
)

// Channel timing
const (
	// DefaultConnectTimeout bounds how long a follower waits for the leader's
	// endpoint before giving up. Expiry means "no leader reachable".
	DefaultConnectTimeout = 200 * time.Millisecond

	// DefaultWriteTimeout bounds how long a follower spends writing its
	// arguments once connected.
	DefaultWriteTimeout = 5 * time.Second

	// MaxConnectTimeout caps the configurable connect timeout.
	MaxConnectTimeout = 30 * time.Second

	// DefaultReadTimeout is the per-connection read deadline on the leader.
	// A peer that stalls longer than this is dropped and its message discarded.
	DefaultReadTimeout = 30 * time.Second

	// MaxReadTimeout caps the configurable read timeout.
	MaxReadTimeout = 10 * time.Minute

	// AcceptRetryDelay is the pause after a failed Accept before re-arming,
	// so a persistently failing listener does not spin.
	AcceptRetryDelay = 50 * time.Millisecond

	// DefaultDrainTimeout bounds how long Stop waits for receivers still
	// running after their context was cancelled.
	DefaultDrainTimeout = 2 * time.Second
)

// Wire limits
const (
	// MaxLineBytes is the longest single argument line the leader accepts.
	MaxLineBytes = 64 * 1024

	// MaxUnixSocketPath is the conservative sun_path limit (macOS is 104 bytes
	// including the terminator, Linux 108).
	MaxUnixSocketPath = 103
)

// File names inside the runtime directory
const (
	LockFileSuffix   = ".lock"
	SocketFileSuffix = ".sock"
)

// Package ipc carries argument lists from follower processes to the leader.
//
// The leader listens on a per-identity endpoint (a Unix domain socket, or a
// named pipe on Windows). A follower connects, writes one argument per line
// and closes the connection; end of stream marks the end of the message.
//
// An argument that itself contains a newline is written verbatim and therefore
// arrives as several arguments.
package ipc

import "errors"

var (
	// ErrLeaderUnreachable means no leader accepted the connection within the
	// connect timeout.
	ErrLeaderUnreachable = errors.New("no leader instance is listening")

	// ErrChannelBroken means the connection failed while a message was being
	// transferred.
	ErrChannelBroken = errors.New("argument channel broken")

	// ErrServerStarted is returned when Start is called twice.
	ErrServerStarted = errors.New("argument server already started")

	// ErrServerStopped is returned when Start is called after Stop.
	ErrServerStopped = errors.New("argument server stopped")
)

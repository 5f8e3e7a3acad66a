// deskgate - single-instance launcher with argument forwarding.
//
// The first "deskgate run" for an identity becomes the leader and keeps
// running. Every later launch with arguments hands them to the leader over a
// local socket (a named pipe on Windows) and exits.
package main

import (
	"os"

	"github.com/deskgate/deskgate/internal/cli"
	"github.com/deskgate/deskgate/internal/version"
)

func main() {
	// Propagate version from the single source of truth (internal/version)
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

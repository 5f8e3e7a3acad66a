// Package protocol registers the application as the handler for its custom
// URI scheme, so that opening "myapp://..." launches it with the URI as an
// argument.
package protocol

import (
	"errors"
	"fmt"
	"os"

	"github.com/deskgate/deskgate/internal/config"
	"github.com/deskgate/deskgate/internal/pathutil"
)

// ErrDisabled is returned by Register when protocol handling is off.
var ErrDisabled = errors.New("custom protocol handling is disabled")

// Options describes the custom protocol.
type Options struct {
	Enabled      bool
	AutoRegister bool
	Name         string
	Description  string
}

// FromConfig builds Options from the [protocol] config section.
func FromConfig(cfg config.ProtocolConfig) Options {
	return Options{
		Enabled:      cfg.Enabled,
		AutoRegister: cfg.AutoRegister,
		Name:         cfg.Name,
		Description:  cfg.Description,
	}
}

// Handler returns the "<name>://" prefix, or "" when no name is set.
func (o Options) Handler() string {
	if o.Name == "" {
		return ""
	}
	return o.Name + "://"
}

// EffectiveDescription returns the description shown by the OS.
func (o Options) EffectiveDescription() string {
	switch {
	case o.Description != "":
		return o.Description
	case o.Name != "":
		return o.Name + " Protocol"
	default:
		return "Protocol Handler"
	}
}

// Registrar installs a protocol handler with the operating system.
type Registrar interface {
	Register(opts Options, executable string) error
}

// Register installs the handler for opts using the platform registrar.
// An empty executable means the running binary.
func Register(opts Options, executable string) error {
	if !opts.Enabled {
		return ErrDisabled
	}
	if opts.Name == "" {
		return config.ErrMissingProtocolName
	}

	if executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}
		executable = exe
	}
	if resolved, err := pathutil.ResolveAbsolutePath(executable); err == nil {
		executable = resolved
	}

	return NewRegistrar().Register(opts, executable)
}

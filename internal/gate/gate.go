// Package gate decides which process is the leader for an instance identity.
//
// The first process to call Acquire for an identity holds a host-wide lock
// until it calls Release or exits. Every other process gets a Gate that does
// not own the lock. Contention is reported through Owned, never as an error.
package gate

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/deskgate/deskgate/internal/constants"
	"github.com/deskgate/deskgate/internal/util/sanitize"
)

// ErrEmptyIdentity is returned by Acquire for a blank identity.
var ErrEmptyIdentity = errors.New("instance identity must not be empty")

// platformLock is the OS object backing an owned gate.
type platformLock interface {
	release() error
}

type options struct {
	dir string
}

// Option configures Acquire.
type Option func(*options)

// WithDir places the lock file in dir instead of the runtime directory.
// Ignored on Windows, where the lock is a named kernel object.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// Gate is the result of a lock attempt. Its ownership is fixed at Acquire.
type Gate struct {
	identity string
	name     string
	owned    bool

	mu       sync.Mutex
	lock     platformLock
	released bool
}

// Acquire attempts to take the host-wide lock for identity without blocking.
// An error means the lock could not be attempted at all (for example, the
// lock directory could not be created); a held lock is not an error.
func Acquire(identity string, opts ...Option) (*Gate, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrEmptyIdentity
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	name := LockName(identity)
	lock, owned, err := acquirePlatform(name, o)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire instance lock %q: %w", name, err)
	}

	g := &Gate{
		identity: identity,
		name:     name,
		owned:    owned,
		lock:     lock,
	}
	if owned {
		// Safety net only. Callers are expected to Release.
		runtime.SetFinalizer(g, func(g *Gate) { _ = g.release() })
	}
	return g, nil
}

// LockName is the sanitized form of identity used for the lock object.
func LockName(identity string) string {
	return sanitize.Component(identity, constants.AppName)
}

// Identity returns the identity the gate was acquired for.
func (g *Gate) Identity() string {
	return g.identity
}

// Name returns the sanitized lock name.
func (g *Gate) Name() string {
	return g.name
}

// Owned reports whether this process holds the lock.
func (g *Gate) Owned() bool {
	return g.owned
}

// IsLeader reports whether this process should act as the first instance:
// it owns the lock, or it was started without arguments and so has nothing
// to forward.
func (g *Gate) IsLeader(args []string) bool {
	return g.owned || len(args) == 0
}

// Release gives up the lock. Safe to call more than once and on a gate
// that does not own the lock.
func (g *Gate) Release() error {
	runtime.SetFinalizer(g, nil)
	return g.release()
}

func (g *Gate) release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released || g.lock == nil {
		g.released = true
		return nil
	}
	g.released = true

	if err := g.lock.release(); err != nil {
		return fmt.Errorf("failed to release instance lock %q: %w", g.name, err)
	}
	return nil
}

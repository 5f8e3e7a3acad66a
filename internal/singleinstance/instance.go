// Package singleinstance ties the gate, the argument channel and the
// subscriber bus into the launch flow of a desktop application:
//
//	inst, err := singleinstance.New(singleinstance.Options{
//		Identity: "com.example.viewer",
//		Args:     os.Args[1:],
//	})
//	if err != nil { ... }
//	defer inst.Close()
//
//	if !inst.IsFirstInstance() && inst.PassArgumentsToFirstInstance(ctx) {
//		return // the running instance has the arguments
//	}
//	inst.Subscribe(func(ev events.ArgumentsReceived) { ... ev.Context() ... })
//	inst.ListenForArgumentsFromSuccessiveInstances()
package singleinstance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deskgate/deskgate/internal/args"
	"github.com/deskgate/deskgate/internal/config"
	"github.com/deskgate/deskgate/internal/events"
	"github.com/deskgate/deskgate/internal/gate"
	"github.com/deskgate/deskgate/internal/ipc"
	"github.com/deskgate/deskgate/internal/logging"
)

// ErrEmptyIdentity is returned by New for a blank identity.
var ErrEmptyIdentity = errors.New("instance identity must not be empty")

// Options configures New.
type Options struct {
	// Identity names the lock and the channel. Required.
	Identity string

	// Args are the raw launch arguments without the program name.
	Args []string

	// Dir holds the lock file and socket. Empty means the runtime directory.
	Dir string

	// ConnectTimeout bounds how long a follower waits for the leader.
	// Zero means the channel default.
	ConnectTimeout time.Duration

	// ReadTimeout is the leader's per-connection read deadline.
	// Zero means the channel default.
	ReadTimeout time.Duration

	// DrainTimeout bounds how long Close waits for subscribers still running
	// after their event context was cancelled. Zero means the channel default.
	DrainTimeout time.Duration

	Logger *logging.Logger
}

// Instance is one process's view of the single-instance group.
type Instance struct {
	identity string
	args     []string
	address  string
	pidPath  string
	opts     Options

	gate   *gate.Gate
	bus    *events.Bus
	logger *logging.Logger

	mu     sync.Mutex
	server *ipc.Server
	closed bool
}

// New acquires the gate for opts.Identity and normalizes opts.Args.
func New(opts Options) (*Instance, error) {
	if strings.TrimSpace(opts.Identity) == "" {
		return nil, ErrEmptyIdentity
	}

	logger := logging.OrNop(opts.Logger).Named("singleinstance")

	dir := opts.Dir
	if dir == "" {
		dir = config.RuntimeDirectory()
	}

	g, err := gate.Acquire(opts.Identity, gate.WithDir(dir))
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		identity: opts.Identity,
		args:     args.Normalize(opts.Args),
		address:  ipc.Address(dir, opts.Identity),
		pidPath:  PIDFilePath(dir, opts.Identity),
		opts:     opts,
		gate:     g,
		bus:      events.NewBus(g.Owned(), opts.Logger),
		logger:   logger,
	}

	logger.Debug().
		Str("identity", opts.Identity).
		Bool("owns_lock", g.Owned()).
		Int("args", len(inst.args)).
		Msg("Instance gate evaluated")

	return inst, nil
}

// Identity returns the identity the instance was created with.
func (i *Instance) Identity() string {
	return i.identity
}

// Address returns the channel endpoint for this identity.
func (i *Instance) Address() string {
	return i.address
}

// IsFirstInstance reports whether this process should run as the
// application: it owns the lock, or it has no arguments to forward.
func (i *Instance) IsFirstInstance() bool {
	return i.gate.IsLeader(i.args)
}

// OwnsLock reports whether this process holds the host-wide lock.
// Only the owner can listen for arguments.
func (i *Instance) OwnsLock() bool {
	return i.gate.Owned()
}

// Arguments returns the normalized launch arguments.
func (i *Instance) Arguments() []string {
	out := make([]string, len(i.args))
	copy(out, i.args)
	return out
}

// PassArgumentsToFirstInstance forwards the launch arguments to the leader.
// Returns false when this process owns the lock, when there is nothing to
// forward, or when the leader could not be reached.
func (i *Instance) PassArgumentsToFirstInstance(ctx context.Context) bool {
	if i.gate.Owned() || len(i.args) == 0 {
		return false
	}

	client := ipc.NewClient(i.address)
	client.SetTimeout(i.opts.ConnectTimeout)

	if err := client.Send(ctx, i.args); err != nil {
		i.logger.Warn().Err(err).Str("address", i.address).Msg("Failed to forward arguments to the running instance")
		return false
	}

	i.logger.Debug().Int("count", len(i.args)).Msg("Forwarded arguments to the running instance")
	return true
}

// ListenForArgumentsFromSuccessiveInstances starts the argument server.
// A no-op for a process that does not own the lock, and on repeat calls.
func (i *Instance) ListenForArgumentsFromSuccessiveInstances() error {
	if !i.gate.Owned() {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return fmt.Errorf("instance %q is closed", i.identity)
	}
	if i.server != nil {
		return nil
	}

	server := ipc.NewServer(i.address, i.onArguments, i.opts.Logger)
	server.SetReadTimeout(i.opts.ReadTimeout)
	server.SetDrainTimeout(i.opts.DrainTimeout)
	if err := server.Start(); err != nil {
		return err
	}
	i.server = server

	if err := WritePIDFile(i.pidPath); err != nil {
		i.logger.Warn().Err(err).Msg("Failed to record leader PID")
	}
	return nil
}

func (i *Instance) onArguments(ctx context.Context, received []string) {
	i.bus.Publish(events.NewArgumentsReceived(received).WithContext(ctx))
}

// Subscribe registers h for argument lists received from later launches.
// The subscription is inert on a process that does not own the lock.
func (i *Instance) Subscribe(h events.Handler) *events.Subscription {
	return i.bus.Subscribe(h)
}

// Listening reports whether the argument server is running.
func (i *Instance) Listening() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.server != nil && !i.closed
}

// Stats returns the argument server counters, or zero values when not listening.
func (i *Instance) Stats() ipc.Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.server == nil {
		return ipc.Stats{}
	}
	return i.server.Stats()
}

// Close stops the server, drops subscribers and releases the lock.
// Running subscribers see their event context cancelled; Close does not wait
// past the drain timeout for them. Safe to call more than once.
func (i *Instance) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	server := i.server
	i.mu.Unlock()

	if server != nil {
		server.Stop()
		RemovePIDFile(i.pidPath)
	}
	i.bus.Close()
	return i.gate.Release()
}

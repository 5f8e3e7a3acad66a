package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/deskgate/deskgate/internal/constants"
	"github.com/deskgate/deskgate/internal/logging"
)

// ReceiveFunc is called with each non-empty message, on its own goroutine.
// ctx is cancelled when the server stops.
type ReceiveFunc func(ctx context.Context, args []string)

// Stats counts what the server has seen since Start.
type Stats struct {
	Accepted   int64 // connections accepted
	Dispatched int64 // non-empty messages handed to the ReceiveFunc
	Discarded  int64 // messages dropped after a read failure
	Abandoned  int64 // receivers still running when Stop gave up waiting
}

// Server reads argument lists from followers, one connection at a time.
type Server struct {
	address      string
	receive      ReceiveFunc
	logger       *logging.Logger
	readTimeout  time.Duration
	drainTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	active   net.Conn
	started  bool
	stopped  bool

	ctx        context.Context
	cancel     context.CancelFunc
	loopWG     sync.WaitGroup
	dispatchWG sync.WaitGroup

	accepted   atomic.Int64
	dispatched atomic.Int64
	discarded  atomic.Int64
	inFlight   atomic.Int64
	abandoned  atomic.Int64
}

// NewServer creates a server for address that hands messages to receive.
func NewServer(address string, receive ReceiveFunc, logger *logging.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address:      address,
		receive:      receive,
		logger:       logging.OrNop(logger).Named("ipc"),
		readTimeout:  constants.DefaultReadTimeout,
		drainTimeout: constants.DefaultDrainTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetReadTimeout sets the per-connection read deadline. Must be called before
// Start. Non-positive values restore the default.
func (s *Server) SetReadTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = constants.DefaultReadTimeout
	}
	s.readTimeout = timeout
}

// SetDrainTimeout sets how long Stop waits for running receivers. Must be
// called before Start. Non-positive values restore the default.
func (s *Server) SetDrainTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = constants.DefaultDrainTimeout
	}
	s.drainTimeout = timeout
}

// Address returns the endpoint the server listens on.
func (s *Server) Address() string {
	return s.address
}

// Stats returns a snapshot of the server counters.
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:   s.accepted.Load(),
		Dispatched: s.dispatched.Load(),
		Discarded:  s.discarded.Load(),
		Abandoned:  s.abandoned.Load(),
	}
}

// Start creates the listener and runs the accept loop in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrServerStopped
	}
	if s.started {
		return ErrServerStarted
	}

	listener, err := listen(s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.listener = netutil.LimitListener(listener, 1)
	s.started = true

	s.logger.Info().Str("address", s.address).Msg("Argument server started")

	s.loopWG.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and any in-progress connection, cancels the
// context handed to receivers and waits for the accept loop. Receivers get
// up to the drain timeout to return; any still running after that are left
// behind. Safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	if s.active != nil {
		s.active.Close()
	}
	started := s.started
	s.mu.Unlock()

	s.loopWG.Wait()
	s.drain()

	if started {
		s.logger.Info().Str("address", s.address).Msg("Argument server stopped")
	}
}

// drain waits for in-flight receivers, giving up after the drain timeout.
func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.dispatchWG.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		n := s.inFlight.Load()
		s.abandoned.Add(n)
		s.logger.Warn().
			Int64("receivers", n).
			Dur("waited", s.drainTimeout).
			Msg("Argument receivers still running at shutdown")
	}
}

// acceptLoop services one connection at a time until Stop.
func (s *Server) acceptLoop() {
	defer s.loopWG.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Msg("Failed to accept argument connection")
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(constants.AcceptRetryDelay):
			}
			continue
		}

		s.accepted.Add(1)
		if !s.track(conn) {
			conn.Close()
			return
		}

		args, err := s.readMessage(conn)
		s.untrack()

		if err != nil {
			s.discarded.Add(1)
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Int("partial_args", len(args)).Msg("Discarding incomplete argument message")
			continue
		}

		if len(args) == 0 {
			s.logger.Debug().Msg("Ignoring empty argument message")
			continue
		}

		s.dispatch(args)
	}
}

// track records conn as the active connection so Stop can interrupt it.
// Returns false when the server is already stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.active = conn
	return true
}

func (s *Server) untrack() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// readMessage reads lines until EOF. On error the lines read so far are
// returned alongside it, for logging only.
func (s *Server) readMessage(conn net.Conn) ([]string, error) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChannelBroken, err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), constants.MaxLineBytes+1)

	var args []string
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			args = append(args, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return args, fmt.Errorf("%w: %w", ErrChannelBroken, err)
	}
	return args, nil
}

func (s *Server) dispatch(args []string) {
	s.dispatched.Add(1)
	s.logger.Debug().Int("count", len(args)).Msg("Dispatching received arguments")

	s.dispatchWG.Add(1)
	s.inFlight.Add(1)
	go func() {
		defer s.dispatchWG.Done()
		defer s.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("Argument receiver panicked")
			}
		}()
		if s.receive != nil {
			s.receive(s.ctx, args)
		}
	}()
}

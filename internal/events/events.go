// Package events delivers received argument lists to the subscribers of the
// leader instance.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/deskgate/deskgate/internal/logging"
)

// ArgumentsReceived is published once per message read from the channel.
type ArgumentsReceived struct {
	ID         uuid.UUID
	Args       []string
	ReceivedAt time.Time

	ctx context.Context
}

// NewArgumentsReceived stamps args with a fresh ID and the current time.
// args is copied.
func NewArgumentsReceived(args []string) ArgumentsReceived {
	cp := make([]string, len(args))
	copy(cp, args)
	return ArgumentsReceived{
		ID:         uuid.New(),
		Args:       cp,
		ReceivedAt: time.Now(),
	}
}

// Context returns the event's context. It is cancelled when the leader stops
// listening, so handlers doing slow work should honor it.
// Never nil; defaults to context.Background().
func (ev ArgumentsReceived) Context() context.Context {
	if ev.ctx == nil {
		return context.Background()
	}
	return ev.ctx
}

// WithContext returns a copy of ev carrying ctx. ctx must be non-nil.
func (ev ArgumentsReceived) WithContext(ctx context.Context) ArgumentsReceived {
	if ctx == nil {
		panic("nil context")
	}
	ev.ctx = ctx
	return ev
}

// Handler receives published argument lists.
type Handler func(ev ArgumentsReceived)

type entry struct {
	id      uint64
	handler Handler
}

// Bus is a subscriber registry that only accepts subscriptions when enabled.
// A follower instance holds a disabled bus: subscribing is a no-op and nothing
// is ever published to it.
type Bus struct {
	enabled bool
	logger  *logging.Logger

	mu       sync.RWMutex
	handlers []entry
	nextID   uint64
	closed   bool

	panics atomic.Int64 // handlers that panicked during Publish
}

// NewBus creates a bus. Pass enabled=false for a non-leader instance.
func NewBus(enabled bool, logger *logging.Logger) *Bus {
	return &Bus{
		enabled: enabled,
		logger:  logging.OrNop(logger).Named("events"),
	}
}

// Enabled reports whether the bus accepts subscriptions.
func (b *Bus) Enabled() bool {
	return b.enabled
}

// Subscription is returned by Subscribe. Unsubscribe is safe to call more
// than once and on an inert subscription.
type Subscription struct {
	bus  *Bus
	id   uint64
	once sync.Once
}

// Active reports whether the subscription is registered on a bus.
func (s *Subscription) Active() bool {
	if s == nil || s.bus == nil {
		return false
	}
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	for _, e := range s.bus.handlers {
		if e.id == s.id {
			return true
		}
	}
	return false
}

// Unsubscribe removes the handler from the bus.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

// Subscribe registers h. On a disabled or closed bus, or with a nil handler,
// the returned subscription is inert.
func (b *Bus) Subscribe(h Handler) *Subscription {
	if !b.enabled || h == nil {
		return &Subscription{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return &Subscription{}
	}

	b.nextID++
	b.handlers = append(b.handlers, entry{id: b.nextID, handler: h})
	return &Subscription{bus: b, id: b.nextID}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.handlers {
		if e.id == id {
			// Preserve registration order for the remaining handlers
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered handlers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Publish calls every handler registered at the time of the call, in
// registration order. Handlers run outside the bus lock, so they may
// subscribe or unsubscribe. A panicking handler is logged and skipped.
// Returns the number of handlers called.
func (b *Bus) Publish(ev ArgumentsReceived) int {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0
	}
	snapshot := make([]entry, len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.RUnlock()

	for _, e := range snapshot {
		b.invoke(e, ev)
	}
	return len(snapshot)
}

func (b *Bus) invoke(e entry, ev ArgumentsReceived) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error().
				Interface("panic", r).
				Uint64("subscriber", e.id).
				Str("message_id", ev.ID.String()).
				Msg("Argument subscriber panicked")
		}
	}()
	e.handler(ev)
}

// PanicCount returns how many handler invocations have panicked.
func (b *Bus) PanicCount() int64 {
	return b.panics.Load()
}

// Close drops all handlers. Later Subscribe calls return inert
// subscriptions and Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = nil
}

package ipc

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/deskgate/deskgate/internal/constants"
)

// Client sends argument lists to the leader. A Client holds no connection;
// each Send dials, writes and closes.
type Client struct {
	address      string
	timeout      time.Duration
	writeTimeout time.Duration
}

// NewClient creates a client for the endpoint at address.
func NewClient(address string) *Client {
	return &Client{
		address:      address,
		timeout:      constants.DefaultConnectTimeout,
		writeTimeout: constants.DefaultWriteTimeout,
	}
}

// SetTimeout sets the connection timeout. Non-positive values restore the default.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = constants.DefaultConnectTimeout
	}
	c.timeout = timeout
}

// Timeout returns the connection timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Address returns the endpoint the client dials.
func (c *Client) Address() string {
	return c.address
}

// Send delivers args as one message. Empty entries are skipped, and a list
// with nothing left to send returns nil without dialing.
//
// Errors wrap ErrLeaderUnreachable when the endpoint could not be reached in
// time and ErrChannelBroken when the write failed.
func (c *Client) Send(ctx context.Context, args []string) error {
	lines := make([]string, 0, len(args))
	for _, a := range args {
		if a != "" {
			lines = append(lines, a)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := dial(dialCtx, c.address)
	if err != nil {
		return fmt.Errorf("%w at %s: %w", ErrLeaderUnreachable, c.address, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelBroken, err)
	}

	w := bufio.NewWriter(conn)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("%w: %w", ErrChannelBroken, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: %w", ErrChannelBroken, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelBroken, err)
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelBroken, err)
	}
	return nil
}

// Probe reports whether a leader is accepting connections at the endpoint.
// The probe connection carries no arguments, so nothing is dispatched.
func (c *Client) Probe(ctx context.Context) bool {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := dial(dialCtx, c.address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

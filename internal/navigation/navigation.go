// Package navigation turns a received argument list into a shortcut and hands
// it to whatever the application uses to open views.
package navigation

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/deskgate/deskgate/internal/args"
	"github.com/deskgate/deskgate/internal/events"
	"github.com/deskgate/deskgate/internal/logging"
)

// Navigator opens the view identified by shortcut.
type Navigator interface {
	Navigate(ctx context.Context, shortcut string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, shortcut string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, shortcut string) error {
	return f(ctx, shortcut)
}

// Handler cleans the first argument of a list and navigates to it.
// Additional arguments are ignored.
type Handler struct {
	Cleaner   args.Cleaner
	Navigator Navigator
	Logger    *logging.Logger
}

// Shortcut returns the cleaned first argument, or "" for an empty list.
func (h *Handler) Shortcut(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return h.Cleaner.Clean(list[0])
}

// HandleStartup navigates using the leader's own launch arguments.
func (h *Handler) HandleStartup(ctx context.Context, list []string) error {
	shortcut := h.Shortcut(list)
	if shortcut == "" {
		return nil
	}
	return h.navigate(ctx, shortcut)
}

// HandleArguments is an events.Handler for arguments forwarded by later
// launches. Navigation runs under the event's context, so it is cancelled
// when the leader stops listening. Navigation errors are logged.
func (h *Handler) HandleArguments(ev events.ArgumentsReceived) {
	shortcut := h.Shortcut(ev.Args)
	if shortcut == "" {
		return
	}
	if err := h.navigate(ev.Context(), shortcut); err != nil {
		logging.OrNop(h.Logger).Error().
			Err(err).
			Str("message_id", ev.ID.String()).
			Str("shortcut", shortcut).
			Msg("Navigation failed")
	}
}

func (h *Handler) navigate(ctx context.Context, shortcut string) error {
	if h.Navigator == nil {
		return fmt.Errorf("no navigator configured for shortcut %q", shortcut)
	}
	logging.OrNop(h.Logger).Info().Str("shortcut", shortcut).Msg("Navigating")
	return h.Navigator.Navigate(ctx, shortcut)
}

// LogNavigator writes each shortcut on its own line to W.
type LogNavigator struct {
	W io.Writer
}

// Navigate writes shortcut to W.
func (n LogNavigator) Navigate(_ context.Context, shortcut string) error {
	_, err := fmt.Fprintln(n.W, shortcut)
	return err
}

// CommandNavigator runs Command with the shortcut appended as the last argument.
type CommandNavigator struct {
	Command []string
	Logger  *logging.Logger
}

// NewCommandNavigator splits a command line on whitespace.
// Quoting is not interpreted.
func NewCommandNavigator(commandLine string, logger *logging.Logger) (*CommandNavigator, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("navigation command is empty")
	}
	return &CommandNavigator{Command: fields, Logger: logger}, nil
}

// Navigate runs the command and waits for it to exit.
func (n *CommandNavigator) Navigate(ctx context.Context, shortcut string) error {
	if len(n.Command) == 0 {
		return fmt.Errorf("navigation command is empty")
	}

	argv := append(append([]string{}, n.Command[1:]...), shortcut)
	cmd := exec.CommandContext(ctx, n.Command[0], argv...)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		logging.OrNop(n.Logger).Debug().Str("output", strings.TrimSpace(string(out))).Msg("Navigation command output")
	}
	if err != nil {
		return fmt.Errorf("navigation command %s failed: %w", n.Command[0], err)
	}
	return nil
}

// Package notify shows desktop notifications when the running instance acts on
// arguments forwarded from another launch.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/deskgate/deskgate/internal/logging"
	"github.com/deskgate/deskgate/internal/navigation"
)

// Notifier handles desktop notifications.
type Notifier struct {
	title   string
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex

	// send delivers one notification. Replaced in tests.
	send func(title, message, icon string) error
}

// NewNotifier creates a notifier whose notifications carry title.
func NewNotifier(title string, enabled bool, logger *logging.Logger) *Notifier {
	return &Notifier{
		title:   title,
		logger:  logging.OrNop(logger),
		enabled: enabled,
		// beeep.Notify is cross-platform:
		// - Windows: toast notifications
		// - macOS: NSUserNotificationCenter
		// - Linux: D-Bus notifications
		send: beeep.Notify,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Opening announces that the instance is navigating to shortcut.
func (n *Notifier) Opening(shortcut string) {
	if !n.IsEnabled() {
		return
	}
	message := fmt.Sprintf("Opening %s", truncate(shortcut, 80))
	if err := n.send(n.title, message, ""); err != nil {
		n.logger.Warn().Err(err).Str("shortcut", shortcut).Msg("Failed to send navigation notification")
	}
}

// NavigationFailed reports a shortcut that could not be opened.
func (n *Notifier) NavigationFailed(shortcut string, cause error) {
	if !n.IsEnabled() {
		return
	}
	message := fmt.Sprintf("Could not open %s:\n%s", truncate(shortcut, 60), truncate(cause.Error(), 100))
	if err := n.send(n.title, message, ""); err != nil {
		n.logger.Warn().Err(err).Str("shortcut", shortcut).Msg("Failed to send failure notification")
	}
}

// Wrap returns a Navigator that notifies around each call to next.
func (n *Notifier) Wrap(next navigation.Navigator) navigation.Navigator {
	return navigation.NavigatorFunc(func(ctx context.Context, shortcut string) error {
		n.Opening(shortcut)
		if err := next.Navigate(ctx, shortcut); err != nil {
			n.NavigationFailed(shortcut, err)
			return err
		}
		return nil
	})
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

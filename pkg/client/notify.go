// ABOUTME: Desktop notifications for messages arriving in rooms the user
// ABOUTME: is not looking at, delivered best-effort via the OS notifier
package client

import (
	"fmt"
	"log"

	"github.com/gen2brain/beeep"
)

// notifyBodyLimit keeps notification bubbles readable; most desktop
// notifiers clip around this length anyway.
const notifyBodyLimit = 100

// Notifier sends desktop notifications. Failures are logged and
// swallowed: a chat client must keep working on desktops with no
// notification daemon.
type Notifier struct {
	iconPath string
	logger   *log.Logger
}

// NewNotifier returns a notifier using the given icon file. An empty
// iconPath is fine; the notification just has no icon.
func NewNotifier(iconPath string, logger *log.Logger) *Notifier {
	return &Notifier{
		iconPath: iconPath,
		logger:   logger,
	}
}

// Notify shows "sender: body" under a title naming the room.
func (n *Notifier) Notify(room, sender, body string) {
	if n == nil {
		return
	}

	title := "parley"
	if room != "" {
		title = fmt.Sprintf("parley - #%s", room)
	}

	content := TruncateText(body, notifyBodyLimit)

	message := content
	if sender != "" {
		message = fmt.Sprintf("%s: %s", sender, content)
	}

	if err := beeep.Notify(title, message, n.iconPath); err != nil && n.logger != nil {
		n.logger.Printf("Failed to send desktop notification: %v", err)
	}
}

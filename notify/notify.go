// Package notify shows desktop notifications for pipeline outcomes.
package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"markestedt/refix/logger"
)

// Notifier sends desktop notifications under a fixed title
type Notifier struct {
	title string
	send  func(title, message string) error
}

// New creates a notifier using the OS notification service
func New(title string) *Notifier {
	return &Notifier{
		title: title,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify shows message. Failures are logged and otherwise ignored.
func (n *Notifier) Notify(message string) {
	if err := n.send(n.title, message); err != nil {
		logger.Debug("Notification failed", zap.Error(err))
	}
}

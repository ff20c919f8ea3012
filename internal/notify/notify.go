// Package notify sends desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

const appTitle = "Fishing Tray"

// Notifier posts a short user-visible message
type Notifier interface {
	Notify(message string)
}

type desktopNotifier struct {
	log  zerolog.Logger
	send func(title, message string) error
}

// New returns a desktop notifier, or a no-op one when disabled
func New(enabled bool, log zerolog.Logger) Notifier {
	if !enabled {
		return Nop()
	}
	return &desktopNotifier{
		log: log,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify is best effort; failures are only logged
func (d *desktopNotifier) Notify(message string) {
	if err := d.send(appTitle, message); err != nil {
		d.log.Warn().Err(err).Str("message", message).Msg("Notification failed")
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Nop returns a notifier that drops every message
func Nop() Notifier {
	return nopNotifier{}
}

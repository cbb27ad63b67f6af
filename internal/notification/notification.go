// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"github.com/gen2brain/beeep"

	"github.com/Jerry20030925/LumaTrip-sub001/internal/logger"
)

// AppName is the notification title prefix.
const AppName = "LumaTrip"

// maxPreview bounds the message body shown in a notification.
const maxPreview = 80

var notify = beeep.Notify

// SetNotifier replaces the notification backend. Used by tests.
func SetNotifier(fn func(title, message string, icon any) error) {
	notify = fn
}

// ResetNotifier restores beeep.
func ResetNotifier() {
	notify = beeep.Notify
}

// Send sends a desktop notification with the given title and message.
func Send(title, message string) error {
	logger.Debug("Notification: title=%q, message=%q", title, message)
	// empty icon, beeep picks the platform default
	err := notify(title, message, "")
	if err != nil {
		logger.Warn("Notification: failed to send: %v", err)
	}
	return err
}

// IncomingMessage announces a message from sender in a conversation that
// is not currently open.
func IncomingMessage(conversation, sender, preview string) error {
	title := AppName + " · " + conversation
	body := preview
	if sender != "" && sender != conversation {
		body = sender + ": " + preview
	}
	if r := []rune(body); len(r) > maxPreview {
		body = string(r[:maxPreview-1]) + "…"
	}
	return Send(title, body)
}

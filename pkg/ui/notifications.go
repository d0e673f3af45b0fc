package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"gagsync/pkg/harvest"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender uses notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender uses osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier announces finished runs on the desktop. Delivery failures are
// ignored; the console summary is authoritative.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. Unsupported
// platforms get a notifier that does nothing.
func NewNotifier() *Notifier {
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: &LinuxNotificationSender{}}
	case "darwin":
		return &Notifier{sender: &MacOSNotificationSender{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender is used by tests
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyRun sends a one-line account of a harvest run
func (n *Notifier) NotifyRun(command string, s harvest.Summary, runErr error) {
	if n == nil || n.sender == nil {
		return
	}

	title := "gagsync " + command
	var message string
	switch {
	case runErr != nil:
		message = "failed: " + runErr.Error()
	case s.Stopped:
		message = fmt.Sprintf("stopped at %s after %d new items", s.StopItem, s.Written)
	default:
		message = fmt.Sprintf("%d written, %d skipped in %s", s.Written, s.Skipped, FormatDuration(s.Duration))
	}

	_ = n.sender.Send(title, message)
}

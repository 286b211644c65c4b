// Package notify delivers user-visible signals (the dashboard's alerts and
// toasts) to the terminal, the desktop notification center and the event bus.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/logging"
	"github.com/cloudfm/cloudfm/internal/models"
)

// Signal is one user-visible notification.
type Signal struct {
	Kind     events.SignalKind
	Provider models.Provider
	Op       string
	Message  string
}

// Notifier receives signals.
type Notifier interface {
	Notify(sig Signal)
}

// Console prints signals as single lines, e.g. "✗ Upload failed: quota exceeded".
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

func (c *Console) Notify(sig Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", symbol(sig.Kind), sig.Message)
}

func symbol(kind events.SignalKind) string {
	switch kind {
	case events.SignalSuccess:
		return "✓"
	case events.SignalWarning:
		return "!"
	case events.SignalError:
		return "✗"
	default:
		return "•"
	}
}

// Desktop sends signals to the OS notification center via beeep.
type Desktop struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex
	send    func(title, message string) error
	alert   func(title, message string) error
}

// NewDesktop creates a desktop notifier. Disabled notifiers drop everything.
func NewDesktop(enabled bool, logger *logging.Logger) *Desktop {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Desktop{
		logger:  logger,
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (d *Desktop) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (d *Desktop) IsEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// Notify shows sig. Errors and warnings use the more prominent alert style.
func (d *Desktop) Notify(sig Signal) {
	if !d.IsEnabled() {
		return
	}

	title := constants.AppTitle
	if sig.Provider.Valid() {
		title = fmt.Sprintf("%s - %s", constants.AppTitle, sig.Provider.DisplayName())
	}
	message := truncate(sig.Message, 200)

	if sig.Kind == events.SignalError || sig.Kind == events.SignalWarning {
		if err := d.alert(title, message); err == nil {
			return
		}
	}
	if err := d.send(title, message); err != nil {
		d.logger.Warn().Err(err).Str("op", sig.Op).Msg("Failed to send desktop notification")
	}
}

// Bus republishes signals on the event bus for front ends that render them.
type Bus struct {
	bus *events.EventBus
}

// NewBus creates a notifier publishing to bus.
func NewBus(bus *events.EventBus) *Bus {
	return &Bus{bus: bus}
}

func (b *Bus) Notify(sig Signal) {
	b.bus.PublishSignal(sig.Kind, sig.Provider, sig.Op, sig.Message)
}

// Multi fans a signal out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(sig Signal) {
	for _, n := range m {
		if n != nil {
			n.Notify(sig)
		}
	}
}

// Discard drops every signal.
type Discard struct{}

func (Discard) Notify(Signal) {}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

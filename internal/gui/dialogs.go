package gui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/cloudfm/cloudfm/internal/events"
)

// dialogConfirmer implements panel.Confirmer with a modal confirm dialog.
// Confirm is called from worker goroutines and blocks until the user answers.
type dialogConfirmer struct {
	window fyne.Window
}

func (d *dialogConfirmer) Confirm(ctx context.Context, prompt string) bool {
	answer := make(chan bool, 1)
	fyne.Do(func() {
		dialog.ShowConfirm("Delete file", prompt, func(ok bool) {
			answer <- ok
		}, d.window)
	})

	select {
	case ok := <-answer:
		return ok
	case <-ctx.Done():
		return false
	}
}

// showSignal presents a signal as a modal dialog: errors get an error
// dialog, everything else an information dialog. Must run on the fyne goroutine.
func showSignal(w fyne.Window, sig *events.SignalEvent) {
	switch sig.Kind {
	case events.SignalError:
		dialog.ShowError(errors.New(sig.Message), w)
	default:
		dialog.ShowInformation(signalTitle(sig.Kind), sig.Message, w)
	}
}

func signalTitle(kind events.SignalKind) string {
	switch kind {
	case events.SignalSuccess:
		return "Done"
	case events.SignalWarning:
		return "Attention"
	case events.SignalError:
		return "Error"
	default:
		return "Information"
	}
}

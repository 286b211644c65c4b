package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// VerticalSpacer creates a fixed-height transparent spacer between sections.
func VerticalSpacer(height float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(0, height))
	return spacer
}

// HorizontalSpacer creates a fixed-width horizontal spacer
func HorizontalSpacer(width float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(width, 0))
	return spacer
}

// NewPrimaryButton creates a high-importance button. Fyne only draws
// ColorNameForegroundOnPrimary text on HighImportance buttons.
func NewPrimaryButton(label string, tapped func()) *widget.Button {
	btn := widget.NewButton(label, tapped)
	btn.Importance = widget.HighImportance
	return btn
}

// NewDangerButtonWithIcon creates a button styled for destructive actions.
func NewDangerButtonWithIcon(label string, icon fyne.Resource, tapped func()) *widget.Button {
	btn := widget.NewButtonWithIcon(label, icon, tapped)
	btn.Importance = widget.DangerImportance
	return btn
}

// setEnabled enables or disables a button.
func setEnabled(btn *widget.Button, enabled bool) {
	if enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

package gui

import (
	"fmt"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/state"
)

// identityText is the line at the top of a provider tab.
func identityText(ps state.PanelSnapshot) string {
	if !ps.Connected() {
		return fmt.Sprintf("%s: %s", ps.Provider.DisplayName(), constants.MsgNotConnected)
	}
	return fmt.Sprintf("%s: %s", ps.Provider.DisplayName(), ps.Identity.Label())
}

// listingText is shown in place of the list when it has no rows.
func listingText(ps state.PanelSnapshot) string {
	switch {
	case ps.Listing && len(ps.Entries) == 0:
		return "Loading…"
	case len(ps.Entries) == 0:
		return constants.MsgNoFiles
	default:
		return fmt.Sprintf("%d files", len(ps.Entries))
	}
}

// selectionText labels the shared picker row.
func selectionText(f *models.SelectedFile) string {
	if f == nil {
		return "No file chosen"
	}
	return fmt.Sprintf("%s (%s)", f.Name, humanSize(f.Size))
}

// uploadLabel is the upload button caption for a panel.
func uploadLabel(ps state.PanelSnapshot) string {
	if ps.Uploading {
		return "Uploading…"
	}
	return "Upload to " + ps.Provider.DisplayName()
}

// transferText describes an in-flight transfer for the status bar.
func transferText(ev *events.TransferEvent) string {
	verb := "Uploading"
	if ev.Op == "download" {
		verb = "Downloading"
	}
	if ev.BytesTotal <= 0 {
		return fmt.Sprintf("%s %s (%s)", verb, ev.Name, humanSize(ev.BytesCurrent))
	}
	return fmt.Sprintf("%s %s (%s of %s)", verb, ev.Name, humanSize(ev.BytesCurrent), humanSize(ev.BytesTotal))
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

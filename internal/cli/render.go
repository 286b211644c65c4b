package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/panel"
	"github.com/cloudfm/cloudfm/internal/state"
)

// renderIdentity writes the connection line of a panel.
func renderIdentity(w io.Writer, ps state.PanelSnapshot) {
	if ps.Identity == nil {
		fmt.Fprintf(w, "%s: %s\n", ps.Provider.DisplayName(), constants.MsgNotConnected)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", ps.Provider.DisplayName(), ps.Identity.Label())
}

// renderFiles writes a panel's listing as an ID/NAME table, or the empty
// message. Rows keep backend order.
func renderFiles(w io.Writer, ps state.PanelSnapshot) {
	if ps.Listing {
		fmt.Fprintln(w, "  Loading files...")
	}
	if len(ps.Entries) == 0 {
		fmt.Fprintf(w, "  %s\n", constants.MsgNoFiles)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tID\tNAME")
	for i, e := range ps.Entries {
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", i+1, e.ID, e.Name)
	}
	tw.Flush()
}

// renderPanel writes one provider panel: header, identity, files.
func renderPanel(w io.Writer, ps state.PanelSnapshot) {
	fmt.Fprintf(w, "== %s Files ==\n", ps.Provider.DisplayName())
	renderIdentity(w, ps)
	if ps.Uploading {
		fmt.Fprintln(w, "  Uploading...")
	}
	renderFiles(w, ps)
}

// renderDashboard writes the shared picker row and the active panel.
func renderDashboard(w io.Writer, snap state.DashboardSnapshot) {
	for _, p := range models.Providers() {
		marker := " "
		if p == snap.ActiveTab {
			marker = "*"
		}
		fmt.Fprintf(w, "[%s %s] ", marker, p.DisplayName())
	}
	fmt.Fprintln(w)

	if snap.Selected != nil {
		fmt.Fprintf(w, "Selected: %s (%s)\n", snap.Selected.Name, formatBytes(snap.Selected.Size))
	} else {
		fmt.Fprintln(w, "Selected: (none)")
	}
	fmt.Fprintln(w)

	ps := snap.Panel(snap.ActiveTab)
	renderPanel(w, ps)

	a := panel.AffordancesFor(snap, snap.ActiveTab)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions: "+affordanceLine(a))
}

func affordanceLine(a panel.Affordances) string {
	line := ""
	add := func(enabled bool, name string) {
		if !enabled {
			return
		}
		if line != "" {
			line += ", "
		}
		line += name
	}
	add(a.Login, "login")
	add(a.Logout, "logout")
	add(a.Refresh, "refresh")
	add(a.Upload, "upload")
	add(a.Download, "get")
	add(a.Delete, "rm")
	if line == "" {
		return "(none)"
	}
	return line
}

// formatBytes renders a size with binary units.
func formatBytes(n int64) string {
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

package gui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/panel"
	"github.com/cloudfm/cloudfm/internal/state"
)

// providerTab is one provider's panel: identity line, account buttons and
// the file list. Fields are only touched on the fyne goroutine.
type providerTab struct {
	ui       *UI
	provider models.Provider

	identity   *widget.Label
	status     *widget.Label
	activity   *widget.Activity
	loginBtn   *widget.Button
	logoutBtn  *widget.Button
	refreshBtn *widget.Button
	list       *widget.List

	entries     []models.FileEntry
	affordances panel.Affordances
}

func newProviderTab(ui *UI, p models.Provider) *providerTab {
	t := &providerTab{ui: ui, provider: p}

	t.identity = widget.NewLabel(p.DisplayName())
	t.identity.TextStyle = fyne.TextStyle{Bold: true}
	t.status = widget.NewLabel("")
	t.activity = widget.NewActivity()
	t.activity.Hide()

	t.loginBtn = NewPrimaryButton("Log in", func() {
		ui.run(func(ctx context.Context) { ui.ctrl.Login(ctx, p) })
	})
	t.logoutBtn = widget.NewButtonWithIcon("Log out", theme.LogoutIcon(), func() {
		ui.run(func(ctx context.Context) { _ = ui.ctrl.Logout(ctx, p) })
	})
	t.refreshBtn = widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() {
		ui.run(func(ctx context.Context) { ui.ctrl.Refresh(ctx, p) })
	})

	t.list = widget.NewList(
		func() int { return len(t.entries) },
		func() fyne.CanvasObject { return newFileRow() },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(t.entries) {
				return
			}
			obj.(*fileRow).bind(t, t.entries[id])
		},
	)
	return t
}

// Build lays out the tab content.
func (t *providerTab) Build() fyne.CanvasObject {
	header := container.NewBorder(nil, nil,
		t.identity,
		container.NewHBox(t.activity, t.refreshBtn, t.loginBtn, t.logoutBtn),
	)
	return container.NewBorder(
		container.NewVBox(header, widget.NewSeparator(), t.status),
		nil, nil, nil,
		t.list,
	)
}

// render applies a snapshot. Must run on the fyne goroutine.
func (t *providerTab) render(snap state.DashboardSnapshot) {
	ps := snap.Panel(t.provider)
	t.entries = ps.Entries
	t.affordances = panel.AffordancesFor(snap, t.provider)

	t.identity.SetText(identityText(ps))
	t.status.SetText(listingText(ps))

	if t.affordances.Login {
		t.loginBtn.Show()
		t.logoutBtn.Hide()
	} else {
		t.loginBtn.Hide()
		t.logoutBtn.Show()
	}
	setEnabled(t.refreshBtn, t.affordances.Refresh)

	if ps.Listing {
		t.activity.Show()
		t.activity.Start()
	} else {
		t.activity.Stop()
		t.activity.Hide()
	}
	t.list.Refresh()
}

func (t *providerTab) download(entry models.FileEntry) {
	t.ui.run(func(ctx context.Context) { t.ui.ctrl.Download(ctx, t.provider, entry.ID) })
}

func (t *providerTab) delete(entry models.FileEntry) {
	t.ui.run(func(ctx context.Context) { _, _ = t.ui.ctrl.Delete(ctx, t.provider, entry.ID, entry.Name) })
}

// fileRow is a list row: name on the left, Download and Delete on the right.
type fileRow struct {
	widget.BaseWidget

	name     *widget.Label
	download *widget.Button
	remove   *widget.Button
}

func newFileRow() *fileRow {
	r := &fileRow{
		name:     widget.NewLabel(""),
		download: widget.NewButtonWithIcon("Download", theme.DownloadIcon(), nil),
		remove:   NewDangerButtonWithIcon("Delete", theme.DeleteIcon(), nil),
	}
	r.name.Truncation = fyne.TextTruncateEllipsis
	r.ExtendBaseWidget(r)
	return r
}

// bind points the row at entry. Rows are recycled by the list, so the
// button callbacks are replaced on every bind.
func (r *fileRow) bind(t *providerTab, entry models.FileEntry) {
	r.name.SetText(entry.Name)
	r.download.OnTapped = func() { t.download(entry) }
	r.remove.OnTapped = func() { t.delete(entry) }
	setEnabled(r.download, t.affordances.Download)
	setEnabled(r.remove, t.affordances.Delete)
}

// CreateRenderer implements fyne.Widget
func (r *fileRow) CreateRenderer() fyne.WidgetRenderer {
	actions := container.NewHBox(r.download, r.remove)
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, nil, actions, r.name))
}

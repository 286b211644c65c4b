package state

import (
	"sync"

	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/models"
)

// Dashboard holds both provider panels plus the state they share: the active
// tab and the single selected local file.
type Dashboard struct {
	eventBus *events.EventBus
	panels   map[models.Provider]*PanelState

	activeTab models.Provider
	selected  *models.SelectedFile

	mu sync.RWMutex
}

// DashboardSnapshot is an immutable copy of the whole dashboard. Panels are
// in provider order.
type DashboardSnapshot struct {
	ActiveTab models.Provider
	Selected  *models.SelectedFile
	Panels    []PanelSnapshot
}

// Panel returns the snapshot for p, or an empty one.
func (s DashboardSnapshot) Panel(p models.Provider) PanelSnapshot {
	for _, ps := range s.Panels {
		if ps.Provider == p {
			return ps
		}
	}
	return PanelSnapshot{Provider: p}
}

// NewDashboard creates panels for every provider. An invalid defaultTab
// falls back to the first provider.
func NewDashboard(defaultTab models.Provider, eventBus *events.EventBus) *Dashboard {
	d := &Dashboard{
		eventBus: eventBus,
		panels:   make(map[models.Provider]*PanelState),
	}
	for _, p := range models.Providers() {
		d.panels[p] = NewPanelState(p, eventBus)
	}
	if !defaultTab.Valid() {
		defaultTab = models.Providers()[0]
	}
	d.activeTab = defaultTab
	return d
}

// Panel returns the panel for p, or nil for an unknown provider.
func (d *Dashboard) Panel(p models.Provider) *PanelState {
	return d.panels[p]
}

// ActiveTab returns the displayed provider.
func (d *Dashboard) ActiveTab() models.Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.activeTab
}

// SetActiveTab switches the displayed provider. Unknown providers are ignored.
func (d *Dashboard) SetActiveTab(p models.Provider) bool {
	if !p.Valid() {
		return false
	}
	d.mu.Lock()
	d.activeTab = p
	d.mu.Unlock()

	d.eventBus.PublishTab(p)
	return true
}

// SelectedFile returns a copy of the selected file, or nil.
func (d *Dashboard) SelectedFile() *models.SelectedFile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copySelected(d.selected)
}

// SetSelectedFile replaces the selection.
func (d *Dashboard) SetSelectedFile(f models.SelectedFile) {
	d.mu.Lock()
	d.selected = &f
	d.mu.Unlock()

	d.eventBus.PublishSelection(copySelected(&f))
}

// ClearSelectedFile removes the selection.
func (d *Dashboard) ClearSelectedFile() {
	d.mu.Lock()
	d.selected = nil
	d.mu.Unlock()

	d.eventBus.PublishSelection(nil)
}

// Snapshot returns an immutable copy of the dashboard.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	d.mu.RLock()
	snap := DashboardSnapshot{
		ActiveTab: d.activeTab,
		Selected:  copySelected(d.selected),
	}
	d.mu.RUnlock()

	for _, p := range models.Providers() {
		snap.Panels = append(snap.Panels, d.panels[p].Snapshot())
	}
	return snap
}

func copySelected(f *models.SelectedFile) *models.SelectedFile {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

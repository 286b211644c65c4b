package panel

import (
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/state"
)

// Affordances lists which controls a panel should enable.
type Affordances struct {
	Login    bool
	Logout   bool
	Refresh  bool
	Upload   bool
	Download bool
	Delete   bool
}

// AffordancesFor derives the enabled controls from a snapshot.
func AffordancesFor(snap state.DashboardSnapshot, p models.Provider) Affordances {
	ps := snap.Panel(p)
	connected := ps.Connected()
	return Affordances{
		Login:    !connected,
		Logout:   connected,
		Refresh:  !ps.Listing,
		Upload:   connected && !ps.Uploading && snap.Selected != nil,
		Download: connected,
		Delete:   connected,
	}
}

// Affordances returns the enabled controls for p's panel.
func (c *Controller) Affordances(p models.Provider) Affordances {
	return AffordancesFor(c.dashboard.Snapshot(), p)
}

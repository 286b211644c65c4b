// Package state provides observable state containers for the dashboard.
// Containers publish on the event bus after every mutation so any front end
// can subscribe and redraw.
package state

import (
	"sync"

	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/models"
)

// PanelState is one provider's observable panel: connection, listing and
// in-flight flags. Thread-safe; each provider has its own lock.
type PanelState struct {
	provider models.Provider
	eventBus *events.EventBus

	entries   []models.FileEntry
	identity  *models.UserIdentity
	listing   bool
	uploading bool

	mu sync.RWMutex
}

// PanelSnapshot is an immutable copy of a PanelState.
type PanelSnapshot struct {
	Provider  models.Provider
	Identity  *models.UserIdentity
	Entries   []models.FileEntry
	Listing   bool
	Uploading bool
}

// Connected reports whether the snapshot has an identity.
func (s PanelSnapshot) Connected() bool {
	return s.Identity != nil
}

// NewPanelState creates an empty, disconnected panel. eventBus may be nil.
func NewPanelState(p models.Provider, eventBus *events.EventBus) *PanelState {
	return &PanelState{
		provider: p,
		eventBus: eventBus,
		entries:  make([]models.FileEntry, 0),
	}
}

// Provider returns the provider this panel shows.
func (s *PanelState) Provider() models.Provider {
	return s.provider
}

// Entries returns a copy of the current listing in backend order.
func (s *PanelState) Entries() []models.FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.entries)
}

// SetEntries replaces the listing wholesale.
func (s *PanelState) SetEntries(entries []models.FileEntry) {
	s.mu.Lock()
	s.entries = copyEntries(entries)
	published := copyEntries(s.entries)
	s.mu.Unlock()

	s.eventBus.PublishListing(s.provider, published)
}

// Identity returns the connected account, or nil.
func (s *PanelState) Identity() *models.UserIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIdentity(s.identity)
}

// SetIdentity records the connection state. A nil identity also empties the
// listing: a disconnected provider never shows files.
func (s *PanelState) SetIdentity(id *models.UserIdentity) {
	s.mu.Lock()
	s.identity = copyIdentity(id)
	cleared := false
	if id == nil && len(s.entries) > 0 {
		s.entries = make([]models.FileEntry, 0)
		cleared = true
	}
	s.mu.Unlock()

	s.eventBus.PublishIdentity(s.provider, copyIdentity(id))
	if cleared {
		s.eventBus.PublishListing(s.provider, []models.FileEntry{})
	}
}

// Disconnect clears identity and listing, as after a successful logout.
func (s *PanelState) Disconnect() {
	s.mu.Lock()
	s.identity = nil
	s.entries = make([]models.FileEntry, 0)
	s.mu.Unlock()

	s.eventBus.PublishIdentity(s.provider, nil)
	s.eventBus.PublishListing(s.provider, []models.FileEntry{})
}

// IsConnected reports whether an identity is set.
func (s *PanelState) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// SetListing sets the listing-in-flight flag.
func (s *PanelState) SetListing(active bool) {
	s.mu.Lock()
	s.listing = active
	s.mu.Unlock()

	s.eventBus.PublishOperation(s.provider, events.OpListing, active)
}

// IsListing reports whether a listing fetch is in flight.
func (s *PanelState) IsListing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listing
}

// SetUploading sets the upload-in-flight flag.
func (s *PanelState) SetUploading(active bool) {
	s.mu.Lock()
	s.uploading = active
	s.mu.Unlock()

	s.eventBus.PublishOperation(s.provider, events.OpUploading, active)
}

// IsUploading reports whether an upload is in flight.
func (s *PanelState) IsUploading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploading
}

// FindByID returns the first entry with id.
func (s *PanelState) FindByID(id string) (models.FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.FileEntry{}, false
}

// FindByName returns the first entry named name. Names are not unique;
// callers wanting a specific file should use FindByID.
func (s *PanelState) FindByName(name string) (models.FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Name == name {
			return e, true
		}
	}
	return models.FileEntry{}, false
}

// Count returns the number of entries.
func (s *PanelState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns an immutable copy of the panel.
func (s *PanelState) Snapshot() PanelSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return PanelSnapshot{
		Provider:  s.provider,
		Identity:  copyIdentity(s.identity),
		Entries:   copyEntries(s.entries),
		Listing:   s.listing,
		Uploading: s.uploading,
	}
}

func copyEntries(in []models.FileEntry) []models.FileEntry {
	out := make([]models.FileEntry, len(in))
	copy(out, in)
	return out
}

func copyIdentity(id *models.UserIdentity) *models.UserIdentity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

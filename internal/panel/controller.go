// Package panel is the provider file panel controller: the view-model both
// front ends drive. It owns the dashboard state, issues every backend call and
// reconciles state by re-fetching the affected provider's listing.
package panel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cloudfm/cloudfm/internal/api"
	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/logging"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/notify"
	"github.com/cloudfm/cloudfm/internal/state"
)

var _ Backend = (*api.Client)(nil)

var (
	// ErrNoFileSelected is returned by Upload when no local file is selected.
	ErrNoFileSelected = errors.New("no file selected")

	// ErrNotConnected is returned by Upload and Delete for a provider with no
	// connected account.
	ErrNotConnected = errors.New("provider not connected")
)

// Operation names carried on signals and log lines.
const (
	OpUpload   = "upload"
	OpDelete   = "delete"
	OpLogout   = "logout"
	OpLogin    = "login"
	OpDownload = "download"
)

// Backend is the remote file service. *api.Client implements it.
type Backend interface {
	FetchUser(ctx context.Context, p models.Provider) (*models.UserIdentity, error)
	ListFiles(ctx context.Context, p models.Provider) ([]models.FileEntry, error)
	Upload(ctx context.Context, p models.Provider, file models.SelectedFile) error
	Delete(ctx context.Context, p models.Provider, fileID string) error
	Logout(ctx context.Context, p models.Provider) error
	DownloadURL(p models.Provider, fileID string) string
	LoginURL(p models.Provider) string
}

// Notifier receives user-visible signals.
type Notifier interface {
	Notify(sig notify.Signal)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Opener opens a URL as a new navigation target (a browser tab).
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Picker is the front end's file-picker control.
type Picker interface {
	Reset()
}

// Controller mediates every backend call for both provider panels.
type Controller struct {
	backend   Backend
	dashboard *state.Dashboard
	notifier  Notifier
	confirmer Confirmer
	opener    Opener
	picker    Picker
	logger    *logging.Logger

	eventBus      *events.EventBus
	defaultTab    models.Provider
	confirmDelete bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithEventBus publishes state changes on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(c *Controller) { c.eventBus = bus }
}

// WithNotifier sets the signal sink. The default discards signals.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithConfirmer sets the delete confirmation prompt. Without one, deletes
// that need confirmation are declined.
func WithConfirmer(cf Confirmer) Option {
	return func(c *Controller) { c.confirmer = cf }
}

// WithOpener sets how login and download URLs are opened.
func WithOpener(o Opener) Option {
	return func(c *Controller) { c.opener = o }
}

// WithPicker sets the picker reset after a successful upload.
func WithPicker(p Picker) Option {
	return func(c *Controller) { c.picker = p }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDefaultTab sets the initially active provider.
func WithDefaultTab(p models.Provider) Option {
	return func(c *Controller) { c.defaultTab = p }
}

// WithConfirmDelete toggles the delete confirmation. Enabled by default.
func WithConfirmDelete(enabled bool) Option {
	return func(c *Controller) { c.confirmDelete = enabled }
}

// New creates a controller over backend.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:       backend,
		notifier:      notify.Discard{},
		logger:        logging.Nop(),
		defaultTab:    models.ProviderGoogle,
		confirmDelete: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	if c.notifier == nil {
		c.notifier = notify.Discard{}
	}
	c.logger = c.logger.Named("panel")
	c.dashboard = state.NewDashboard(c.defaultTab, c.eventBus)
	return c
}

// Dashboard exposes the underlying state for front ends that subscribe to it.
func (c *Controller) Dashboard() *state.Dashboard {
	return c.dashboard
}

func (c *Controller) panel(p models.Provider) (*state.PanelState, error) {
	ps := c.dashboard.Panel(p)
	if ps == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownProvider, p)
	}
	return ps, nil
}

func (c *Controller) signal(kind events.SignalKind, p models.Provider, op, msg string) {
	c.notifier.Notify(notify.Signal{Kind: kind, Provider: p, Op: op, Message: msg})
}

// FetchListing replaces p's listing with the backend's. Failures leave the
// previous listing in place and are only logged. The listing flag is always
// reset before returning. A provider that is not connected keeps an empty
// listing.
func (c *Controller) FetchListing(ctx context.Context, p models.Provider) {
	ps, err := c.panel(p)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Listing skipped")
		return
	}
	c.fetchListing(ctx, ps, true)
}

// fetchListing loads ps's listing. With requireConnected unset the entries
// are stored regardless of identity; Mount and Refresh reconcile afterwards
// because identity resolves concurrently.
func (c *Controller) fetchListing(ctx context.Context, ps *state.PanelState, requireConnected bool) {
	p := ps.Provider()
	ps.SetListing(true)
	defer ps.SetListing(false)

	entries, err := c.backend.ListFiles(ctx, p)
	if err != nil {
		c.logger.Warn().Err(err).Str("provider", p.String()).Msg("Error fetching files")
		return
	}
	if requireConnected && !ps.IsConnected() {
		c.logger.Debug().Str("provider", p.String()).Int("count", len(entries)).Msg("Listing dropped: not connected")
		entries = []models.FileEntry{}
	}
	ps.SetEntries(entries)
	c.logger.Debug().Str("provider", p.String()).Int("count", len(entries)).Msg("Listing updated")
}

// FetchIdentity sets p's connection state. A failed lookup counts as not
// connected.
func (c *Controller) FetchIdentity(ctx context.Context, p models.Provider) {
	ps, err := c.panel(p)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Identity skipped")
		return
	}

	id, err := c.backend.FetchUser(ctx, p)
	if err != nil {
		c.logger.Warn().Err(err).Str("provider", p.String()).Msg("Error fetching user")
		id = nil
	}
	ps.SetIdentity(id)
}

// Upload sends the selected file to p. Without a selection it signals a
// warning and returns ErrNoFileSelected without issuing a request.
func (c *Controller) Upload(ctx context.Context, p models.Provider) error {
	ps, err := c.panel(p)
	if err != nil {
		return err
	}

	file := c.dashboard.SelectedFile()
	if file == nil {
		c.signal(events.SignalWarning, p, OpUpload, constants.MsgSelectFileFirst)
		return ErrNoFileSelected
	}
	if !ps.IsConnected() {
		c.signal(events.SignalWarning, p, OpUpload, loginFirst(p))
		return fmt.Errorf("upload to %s: %w", p, ErrNotConnected)
	}

	if err := c.upload(ctx, ps, *file); err != nil {
		c.logger.Error().Err(err).Str("provider", p.String()).Str("file", file.Name).Msg("Upload failed")
		c.signal(events.SignalError, p, OpUpload, "Upload failed: "+api.UserMessage(err, constants.MsgUnknownError))
		return err
	}

	c.dashboard.ClearSelectedFile()
	if c.picker != nil {
		c.picker.Reset()
	}
	c.FetchListing(ctx, p)
	c.signal(events.SignalSuccess, p, OpUpload, constants.MsgUploadSuccess)
	return nil
}

func (c *Controller) upload(ctx context.Context, ps *state.PanelState, file models.SelectedFile) error {
	ps.SetUploading(true)
	defer ps.SetUploading(false)
	return c.backend.Upload(ctx, ps.Provider(), file)
}

// Download opens the file's download URL. It has no state effect; opener
// failures are logged only.
func (c *Controller) Download(ctx context.Context, p models.Provider, fileID string) {
	if !p.Valid() {
		c.logger.Warn().Str("provider", p.String()).Msg("Download skipped: unknown provider")
		return
	}
	c.open(ctx, OpDownload, p, c.backend.DownloadURL(p, fileID))
}

// Login opens the backend's login URL for p.
func (c *Controller) Login(ctx context.Context, p models.Provider) {
	if !p.Valid() {
		c.logger.Warn().Str("provider", p.String()).Msg("Login skipped: unknown provider")
		return
	}
	c.open(ctx, OpLogin, p, c.backend.LoginURL(p))
}

func (c *Controller) open(ctx context.Context, op string, p models.Provider, url string) {
	if c.opener == nil {
		c.logger.Warn().Str("op", op).Str("url", url).Msg("No opener configured")
		return
	}
	if err := c.opener.Open(ctx, url); err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("provider", p.String()).Str("url", url).Msg("Failed to open URL")
	}
}

func loginFirst(p models.Provider) string {
	return fmt.Sprintf(constants.MsgLoginFirst, p.DisplayName())
}

// DeletePrompt is the confirmation text shown before deleting name.
func DeletePrompt(name string) string {
	return fmt.Sprintf("Are you sure you want to delete %q?", name)
}

// Delete removes fileID from p after confirmation. It reports whether the
// file was deleted; a declined confirmation issues no request and returns
// false with a nil error.
func (c *Controller) Delete(ctx context.Context, p models.Provider, fileID, displayName string) (bool, error) {
	ps, err := c.panel(p)
	if err != nil {
		return false, err
	}
	if !ps.IsConnected() {
		c.signal(events.SignalWarning, p, OpDelete, loginFirst(p))
		return false, fmt.Errorf("delete from %s: %w", p, ErrNotConnected)
	}
	if displayName == "" {
		displayName = fileID
	}

	if c.confirmDelete {
		if c.confirmer == nil || !c.confirmer.Confirm(ctx, DeletePrompt(displayName)) {
			c.logger.Debug().Str("provider", p.String()).Str("file_id", fileID).Msg("Delete declined")
			return false, nil
		}
	}

	if err := c.backend.Delete(ctx, p, fileID); err != nil {
		c.logger.Error().Err(err).Str("provider", p.String()).Str("file_id", fileID).Msg("Delete failed")
		c.signal(events.SignalError, p, OpDelete, "Delete failed: "+api.UserMessage(err, constants.MsgUnknownError))
		return false, err
	}

	c.FetchListing(ctx, p)
	c.signal(events.SignalSuccess, p, OpDelete, constants.MsgDeleteSuccess)
	return true, nil
}

// Logout disconnects p. State is cleared only after the backend confirms.
func (c *Controller) Logout(ctx context.Context, p models.Provider) error {
	ps, err := c.panel(p)
	if err != nil {
		return err
	}

	if err := c.backend.Logout(ctx, p); err != nil {
		c.logger.Error().Err(err).Str("provider", p.String()).Msg("Logout failed")
		c.signal(events.SignalError, p, OpLogout, "Logout failed: "+api.UserMessage(err, constants.MsgUnknownError))
		return err
	}

	ps.Disconnect()
	c.signal(events.SignalInfo, p, OpLogout, constants.MsgLogoutSuccess)
	return nil
}

// SelectTab switches the displayed provider. It never triggers a fetch.
func (c *Controller) SelectTab(p models.Provider) bool {
	return c.dashboard.SetActiveTab(p)
}

// SelectFile sets the single selected local file shared by both panels.
func (c *Controller) SelectFile(f models.SelectedFile) {
	c.dashboard.SetSelectedFile(f)
}

// ClearSelectedFile drops the selection.
func (c *Controller) ClearSelectedFile() {
	c.dashboard.ClearSelectedFile()
}

// Mount performs the initial load: identity and listing for every provider,
// all issued in parallel. It returns when every request has resolved.
func (c *Controller) Mount(ctx context.Context) {
	var g errgroup.Group
	for _, p := range models.Providers() {
		c.load(ctx, &g, p)
	}
	_ = g.Wait()
	c.dropOrphanListings()
}

// Refresh reloads identity and listing for one provider.
func (c *Controller) Refresh(ctx context.Context, p models.Provider) {
	var g errgroup.Group
	c.load(ctx, &g, p)
	_ = g.Wait()
	c.dropOrphanListings()
}

func (c *Controller) load(ctx context.Context, g *errgroup.Group, p models.Provider) {
	ps, err := c.panel(p)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Load skipped")
		return
	}
	g.Go(func() error {
		c.FetchIdentity(ctx, p)
		return nil
	})
	g.Go(func() error {
		c.fetchListing(ctx, ps, false)
		return nil
	})
}

// dropOrphanListings empties listings of providers that resolved as not
// connected. Identity and listing race during a load, so this runs after both.
func (c *Controller) dropOrphanListings() {
	for _, p := range models.Providers() {
		ps := c.dashboard.Panel(p)
		if !ps.IsConnected() && ps.Count() > 0 {
			ps.SetIdentity(nil)
		}
	}
}

// Snapshot returns an immutable copy of the dashboard for rendering.
func (c *Controller) Snapshot() state.DashboardSnapshot {
	return c.dashboard.Snapshot()
}

package panel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfm/cloudfm/internal/api"
	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/notify"
)

// fakeBackend records calls and returns canned results per provider.
type fakeBackend struct {
	mu sync.Mutex

	users    map[models.Provider]*models.UserIdentity
	listings map[models.Provider][]models.FileEntry

	userErr   error
	listErr   error
	uploadErr error
	deleteErr error
	logoutErr error

	// Hooks run inside the call, used to observe flags mid-request.
	onList   func(p models.Provider)
	onUpload func(p models.Provider)

	listCalls   map[models.Provider]int
	userCalls   map[models.Provider]int
	uploads     []models.SelectedFile
	deletes     []string
	logoutCalls map[models.Provider]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:       make(map[models.Provider]*models.UserIdentity),
		listings:    make(map[models.Provider][]models.FileEntry),
		listCalls:   make(map[models.Provider]int),
		userCalls:   make(map[models.Provider]int),
		logoutCalls: make(map[models.Provider]int),
	}
}

func (f *fakeBackend) FetchUser(_ context.Context, p models.Provider) (*models.UserIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls[p]++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.users[p], nil
}

func (f *fakeBackend) ListFiles(_ context.Context, p models.Provider) ([]models.FileEntry, error) {
	f.mu.Lock()
	f.listCalls[p]++
	hook := f.onList
	err := f.listErr
	entries := f.listings[p]
	f.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.FileEntry{}
	}
	return entries, nil
}

func (f *fakeBackend) Upload(_ context.Context, p models.Provider, file models.SelectedFile) error {
	f.mu.Lock()
	f.uploads = append(f.uploads, file)
	hook := f.onUpload
	err := f.uploadErr
	f.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return err
}

func (f *fakeBackend) Delete(_ context.Context, _ models.Provider, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, fileID)
	return f.deleteErr
}

func (f *fakeBackend) Logout(_ context.Context, p models.Provider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls[p]++
	return f.logoutErr
}

func (f *fakeBackend) DownloadURL(p models.Provider, fileID string) string {
	return "http://backend.test/download/" + p.String() + "/" + fileID
}

func (f *fakeBackend) LoginURL(p models.Provider) string {
	return "http://backend.test/login/" + p.String()
}

func (f *fakeBackend) listCount(p models.Provider) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[p]
}

type recordingNotifier struct {
	mu      sync.Mutex
	signals []notify.Signal
}

func (r *recordingNotifier) Notify(sig notify.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
}

func (r *recordingNotifier) last(t *testing.T) notify.Signal {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.signals, "expected a signal")
	return r.signals[len(r.signals)-1]
}

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) Open(_ context.Context, url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

type countingPicker struct{ resets int }

func (p *countingPicker) Reset() { p.resets++ }

var ada = &models.UserIdentity{DisplayName: "Ada", Email: "ada@example.com"}

// connect marks p as logged in without a backend round trip.
func connect(c *Controller, p models.Provider) {
	c.Dashboard().Panel(p).SetIdentity(ada)
}

func TestFetchListingResetsFlag(t *testing.T) {
	for _, p := range models.Providers() {
		for _, fail := range []bool{false, true} {
			fb := newFakeBackend()
			if fail {
				fb.listErr = &api.NetworkError{Op: "list files", Err: errors.New("connection refused")}
			}
			c := New(fb)
			var during bool
			fb.onList = func(p models.Provider) { during = c.Dashboard().Panel(p).IsListing() }

			c.FetchListing(context.Background(), p)

			assert.True(t, during, "listing flag set during request")
			assert.False(t, c.Dashboard().Panel(p).IsListing(), "%s fail=%v", p, fail)
		}
	}
}

func TestFetchListingFailureKeepsPreviousListing(t *testing.T) {
	fb := newFakeBackend()
	fb.listings[models.ProviderGoogle] = []models.FileEntry{{ID: "1", Name: "a.txt"}}
	c := New(fb)
	connect(c, models.ProviderGoogle)
	c.FetchListing(context.Background(), models.ProviderGoogle)

	fb.listErr = &api.BackendError{Op: "list files", StatusCode: 500}
	c.FetchListing(context.Background(), models.ProviderGoogle)

	assert.Equal(t, []models.FileEntry{{ID: "1", Name: "a.txt"}}, c.Dashboard().Panel(models.ProviderGoogle).Entries())
}

func TestFetchIdentity(t *testing.T) {
	fb := newFakeBackend()
	fb.users[models.ProviderGoogle] = ada
	c := New(fb)

	c.FetchIdentity(context.Background(), models.ProviderGoogle)
	c.FetchIdentity(context.Background(), models.ProviderOneDrive)

	snap := c.Snapshot()
	require.NotNil(t, snap.Panel(models.ProviderGoogle).Identity)
	assert.Equal(t, "Ada", snap.Panel(models.ProviderGoogle).Identity.DisplayName)
	assert.Nil(t, snap.Panel(models.ProviderOneDrive).Identity)
}

func TestFetchIdentityFailureDisconnects(t *testing.T) {
	fb := newFakeBackend()
	fb.users[models.ProviderGoogle] = ada
	fb.listings[models.ProviderGoogle] = []models.FileEntry{{ID: "1", Name: "a.txt"}}
	c := New(fb)
	c.Mount(context.Background())
	require.True(t, c.Dashboard().Panel(models.ProviderGoogle).IsConnected())

	fb.userErr = errors.New("boom")
	c.FetchIdentity(context.Background(), models.ProviderGoogle)

	ps := c.Dashboard().Panel(models.ProviderGoogle)
	assert.False(t, ps.IsConnected())
	assert.Empty(t, ps.Entries(), "disconnected provider shows no files")
}

func TestUploadWithoutSelectionIssuesNoRequest(t *testing.T) {
	fb := newFakeBackend()
	n := &recordingNotifier{}
	c := New(fb, WithNotifier(n))

	err := c.Upload(context.Background(), models.ProviderGoogle)

	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Empty(t, fb.uploads)
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
	sig := n.last(t)
	assert.Equal(t, events.SignalWarning, sig.Kind)
	assert.Equal(t, constants.MsgSelectFileFirst, sig.Message)
}

func TestUploadSuccess(t *testing.T) {
	fb := newFakeBackend()
	n := &recordingNotifier{}
	picker := &countingPicker{}
	c := New(fb, WithNotifier(n), WithPicker(picker))
	var during bool
	fb.onUpload = func(p models.Provider) { during = c.Dashboard().Panel(p).IsUploading() }

	connect(c, models.ProviderOneDrive)
	file := models.NewSelectedFile("/tmp/report.pdf", 10)
	c.SelectFile(file)
	require.NoError(t, c.Upload(context.Background(), models.ProviderOneDrive))

	require.Len(t, fb.uploads, 1)
	assert.Equal(t, file, fb.uploads[0])
	assert.True(t, during)
	assert.False(t, c.Dashboard().Panel(models.ProviderOneDrive).IsUploading())
	assert.Nil(t, c.Snapshot().Selected, "selection cleared")
	assert.Equal(t, 1, picker.resets)
	assert.Equal(t, 1, fb.listCount(models.ProviderOneDrive), "exactly one listing fetch")
	assert.Zero(t, fb.listCount(models.ProviderGoogle))

	sig := n.last(t)
	assert.Equal(t, events.SignalSuccess, sig.Kind)
	assert.Equal(t, constants.MsgUploadSuccess, sig.Message)
}

func TestUploadFailureKeepsSelection(t *testing.T) {
	fb := newFakeBackend()
	fb.uploadErr = &api.BackendError{Op: "upload", StatusCode: 500, Message: "quota exceeded"}
	n := &recordingNotifier{}
	picker := &countingPicker{}
	c := New(fb, WithNotifier(n), WithPicker(picker))
	connect(c, models.ProviderGoogle)
	c.SelectFile(models.NewSelectedFile("/tmp/a.txt", 1))

	err := c.Upload(context.Background(), models.ProviderGoogle)

	require.Error(t, err)
	assert.Equal(t, "Upload failed: quota exceeded", n.last(t).Message)
	assert.Equal(t, events.SignalError, n.last(t).Kind)
	assert.NotNil(t, c.Snapshot().Selected)
	assert.False(t, c.Dashboard().Panel(models.ProviderGoogle).IsUploading())
	assert.Zero(t, picker.resets)
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
}

func TestUploadNetworkFailureUsesFallback(t *testing.T) {
	fb := newFakeBackend()
	fb.uploadErr = &api.NetworkError{Op: "upload", Err: errors.New("reset")}
	n := &recordingNotifier{}
	c := New(fb, WithNotifier(n))
	connect(c, models.ProviderGoogle)
	c.SelectFile(models.NewSelectedFile("/tmp/a.txt", 1))

	_ = c.Upload(context.Background(), models.ProviderGoogle)

	assert.Equal(t, "Upload failed: "+constants.MsgUnknownError, n.last(t).Message)
}

func TestDeleteDeclinedIssuesNoRequest(t *testing.T) {
	fb := newFakeBackend()
	var prompt string
	c := New(fb, WithConfirmer(ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return false
	})))
	connect(c, models.ProviderGoogle)

	deleted, err := c.Delete(context.Background(), models.ProviderGoogle, "42", "notes.txt")

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, fb.deletes)
	assert.Contains(t, prompt, "notes.txt")
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
}

func TestDeleteWithoutConfirmerIsDeclined(t *testing.T) {
	fb := newFakeBackend()
	c := New(fb)
	connect(c, models.ProviderGoogle)

	deleted, err := c.Delete(context.Background(), models.ProviderGoogle, "42", "")

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, fb.deletes)
}

func TestDeleteConfirmedRefetches(t *testing.T) {
	fb := newFakeBackend()
	n := &recordingNotifier{}
	c := New(fb, WithNotifier(n), WithConfirmer(ConfirmFunc(func(context.Context, string) bool { return true })))
	connect(c, models.ProviderOneDrive)

	deleted, err := c.Delete(context.Background(), models.ProviderOneDrive, "42", "notes.txt")

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"42"}, fb.deletes)
	assert.Equal(t, 1, fb.listCount(models.ProviderOneDrive))
	assert.Equal(t, constants.MsgDeleteSuccess, n.last(t).Message)
}

func TestDeleteSkipsConfirmationWhenDisabled(t *testing.T) {
	fb := newFakeBackend()
	c := New(fb, WithConfirmDelete(false))
	connect(c, models.ProviderGoogle)

	deleted, err := c.Delete(context.Background(), models.ProviderGoogle, "7", "x")

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"7"}, fb.deletes)
}

func TestDeleteFailureSignals(t *testing.T) {
	fb := newFakeBackend()
	fb.deleteErr = &api.BackendError{Op: "delete", StatusCode: 404, Message: "not found"}
	n := &recordingNotifier{}
	c := New(fb, WithNotifier(n), WithConfirmDelete(false))
	connect(c, models.ProviderGoogle)

	_, err := c.Delete(context.Background(), models.ProviderGoogle, "7", "x")

	require.Error(t, err)
	assert.Equal(t, "Delete failed: not found", n.last(t).Message)
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
}

func TestFetchListingLeavesDisconnectedProviderEmpty(t *testing.T) {
	fb := newFakeBackend()
	fb.listings[models.ProviderOneDrive] = []models.FileEntry{{ID: "9", Name: "orphan.txt"}}
	c := New(fb)

	c.FetchListing(context.Background(), models.ProviderOneDrive)

	assert.Equal(t, 1, fb.listCount(models.ProviderOneDrive))
	assert.Empty(t, c.Dashboard().Panel(models.ProviderOneDrive).Entries())
	assert.False(t, c.Dashboard().Panel(models.ProviderOneDrive).IsListing())
}

func TestUploadToDisconnectedProviderIssuesNoRequest(t *testing.T) {
	fb := newFakeBackend()
	n := &recordingNotifier{}
	picker := &countingPicker{}
	c := New(fb, WithNotifier(n), WithPicker(picker))
	c.SelectFile(models.NewSelectedFile("/tmp/a.txt", 1))

	err := c.Upload(context.Background(), models.ProviderOneDrive)

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, fb.uploads)
	assert.Zero(t, fb.listCount(models.ProviderOneDrive))
	assert.NotNil(t, c.Snapshot().Selected, "selection kept")
	assert.Zero(t, picker.resets)
	assert.False(t, c.Dashboard().Panel(models.ProviderOneDrive).IsUploading())
	sig := n.last(t)
	assert.Equal(t, events.SignalWarning, sig.Kind)
	assert.Equal(t, "Please log in to OneDrive first!", sig.Message)
}

func TestUploadWithoutSelectionWarnsBeforeConnectionCheck(t *testing.T) {
	n := &recordingNotifier{}
	c := New(newFakeBackend(), WithNotifier(n))

	err := c.Upload(context.Background(), models.ProviderGoogle)

	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Equal(t, constants.MsgSelectFileFirst, n.last(t).Message)
}

func TestDeleteFromDisconnectedProviderIssuesNoRequest(t *testing.T) {
	fb := newFakeBackend()
	n := &recordingNotifier{}
	var asked bool
	c := New(fb, WithNotifier(n), WithConfirmer(ConfirmFunc(func(context.Context, string) bool {
		asked = true
		return true
	})))

	deleted, err := c.Delete(context.Background(), models.ProviderGoogle, "42", "notes.txt")

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, deleted)
	assert.False(t, asked, "no confirmation for a disconnected provider")
	assert.Empty(t, fb.deletes)
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
	assert.Equal(t, events.SignalWarning, n.last(t).Kind)
	assert.Equal(t, "Please log in to Google Drive first!", n.last(t).Message)
}

func TestLogoutClearsOnlyThatProvider(t *testing.T) {
	fb := newFakeBackend()
	for _, p := range models.Providers() {
		fb.users[p] = ada
		fb.listings[p] = []models.FileEntry{{ID: "1", Name: "a.txt"}}
	}
	c := New(fb)
	c.Mount(context.Background())

	require.NoError(t, c.Logout(context.Background(), models.ProviderGoogle))

	snap := c.Snapshot()
	assert.Nil(t, snap.Panel(models.ProviderGoogle).Identity)
	assert.Empty(t, snap.Panel(models.ProviderGoogle).Entries)
	assert.NotNil(t, snap.Panel(models.ProviderOneDrive).Identity)
	assert.Len(t, snap.Panel(models.ProviderOneDrive).Entries, 1)
}

func TestLogoutFailureLeavesState(t *testing.T) {
	fb := newFakeBackend()
	fb.users[models.ProviderGoogle] = ada
	fb.listings[models.ProviderGoogle] = []models.FileEntry{{ID: "1", Name: "a.txt"}}
	fb.logoutErr = &api.BackendError{Op: "logout", StatusCode: 500, Message: "session store down"}
	n := &recordingNotifier{}
	c := New(fb, WithNotifier(n))
	c.Mount(context.Background())

	require.Error(t, c.Logout(context.Background(), models.ProviderGoogle))

	ps := c.Dashboard().Panel(models.ProviderGoogle)
	assert.True(t, ps.IsConnected())
	assert.Len(t, ps.Entries(), 1)
	assert.Equal(t, "Logout failed: session store down", n.last(t).Message)
}

func TestDownloadAndLoginOpenURLs(t *testing.T) {
	fb := newFakeBackend()
	o := &recordingOpener{}
	c := New(fb, WithOpener(o))

	c.Download(context.Background(), models.ProviderGoogle, "abc")
	c.Login(context.Background(), models.ProviderOneDrive)

	assert.Equal(t, []string{
		"http://backend.test/download/google/abc",
		"http://backend.test/login/onedrive",
	}, o.urls)
}

func TestDownloadOpenerFailureIsNotFatal(t *testing.T) {
	fb := newFakeBackend()
	n := &recordingNotifier{}
	c := New(fb, WithNotifier(n), WithOpener(&recordingOpener{err: errors.New("no browser")}))

	c.Download(context.Background(), models.ProviderGoogle, "abc")

	assert.Empty(t, n.signals)
}

func TestMountLoadsBothProviders(t *testing.T) {
	fb := newFakeBackend()
	fb.users[models.ProviderGoogle] = ada
	fb.users[models.ProviderOneDrive] = &models.UserIdentity{Email: "bob@example.com"}
	fb.listings[models.ProviderGoogle] = []models.FileEntry{{ID: "1", Name: "a.txt"}}
	c := New(fb)

	c.Mount(context.Background())

	for _, p := range models.Providers() {
		assert.Equal(t, 1, fb.listCount(p))
		assert.Equal(t, 1, fb.userCalls[p])
		assert.False(t, c.Dashboard().Panel(p).IsListing())
	}
	snap := c.Snapshot()
	assert.Len(t, snap.Panel(models.ProviderGoogle).Entries, 1)
	assert.Empty(t, snap.Panel(models.ProviderOneDrive).Entries)
}

func TestMountDropsListingOfDisconnectedProvider(t *testing.T) {
	fb := newFakeBackend()
	fb.listings[models.ProviderGoogle] = []models.FileEntry{{ID: "1", Name: "a.txt"}}
	c := New(fb)

	c.Mount(context.Background())

	assert.Empty(t, c.Snapshot().Panel(models.ProviderGoogle).Entries)
}

func TestRefreshOnlyTouchesOneProvider(t *testing.T) {
	fb := newFakeBackend()
	c := New(fb)

	c.Refresh(context.Background(), models.ProviderOneDrive)

	assert.Equal(t, 1, fb.listCount(models.ProviderOneDrive))
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
}

func TestSelectTabDoesNotFetch(t *testing.T) {
	fb := newFakeBackend()
	c := New(fb, WithDefaultTab(models.ProviderOneDrive))
	assert.Equal(t, models.ProviderOneDrive, c.Snapshot().ActiveTab)

	assert.True(t, c.SelectTab(models.ProviderGoogle))
	assert.False(t, c.SelectTab("dropbox"))

	assert.Equal(t, models.ProviderGoogle, c.Snapshot().ActiveTab)
	assert.Zero(t, fb.listCount(models.ProviderGoogle))
}

func TestSelectAndClearFile(t *testing.T) {
	c := New(newFakeBackend())
	c.SelectFile(models.NewSelectedFile("/tmp/a.txt", 3))
	require.NotNil(t, c.Snapshot().Selected)
	c.ClearSelectedFile()
	assert.Nil(t, c.Snapshot().Selected)
}

func TestUnknownProvider(t *testing.T) {
	fb := newFakeBackend()
	c := New(fb)

	err := c.Logout(context.Background(), "dropbox")
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
	c.FetchListing(context.Background(), "dropbox")
	c.Refresh(context.Background(), "dropbox")
	assert.Zero(t, fb.listCount("dropbox"))
	assert.Zero(t, fb.userCalls["dropbox"])
}

func TestAffordances(t *testing.T) {
	fb := newFakeBackend()
	fb.users[models.ProviderGoogle] = ada
	c := New(fb)

	a := c.Affordances(models.ProviderGoogle)
	assert.True(t, a.Login)
	assert.False(t, a.Upload)
	assert.True(t, a.Refresh)

	c.Mount(context.Background())
	a = c.Affordances(models.ProviderGoogle)
	assert.False(t, a.Login)
	assert.True(t, a.Logout)
	assert.True(t, a.Download)
	assert.True(t, a.Delete)
	assert.False(t, a.Upload, "no file selected")

	c.SelectFile(models.NewSelectedFile("/tmp/a.txt", 1))
	assert.True(t, c.Affordances(models.ProviderGoogle).Upload)
	assert.False(t, c.Affordances(models.ProviderOneDrive).Upload, "onedrive not connected")

	c.Dashboard().Panel(models.ProviderGoogle).SetUploading(true)
	assert.False(t, c.Affordances(models.ProviderGoogle).Upload)
	c.Dashboard().Panel(models.ProviderGoogle).SetListing(true)
	assert.False(t, c.Affordances(models.ProviderGoogle).Refresh)
}

func TestDeletePrompt(t *testing.T) {
	assert.Equal(t, `Are you sure you want to delete "a b.txt"?`, DeletePrompt("a b.txt"))
}

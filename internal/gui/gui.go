// Package gui is the desktop dashboard: one fyne tab per provider over a
// shared panel controller.
package gui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/cloudfm/cloudfm/internal/api"
	"github.com/cloudfm/cloudfm/internal/browser"
	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/localfs"
	"github.com/cloudfm/cloudfm/internal/logging"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/notify"
	"github.com/cloudfm/cloudfm/internal/panel"
	"github.com/cloudfm/cloudfm/internal/progress"
)

var (
	// guiLogger is the package-level logger for GUI mode
	guiLogger = logging.Nop()
)

// HasDisplay reports whether a window can be opened. Only Linux needs a
// check; other platforms always have a desktop session.
func HasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// Launch opens the dashboard window and blocks until it is closed or ctx is
// cancelled.
func Launch(ctx context.Context, cfg *config.Config) error {
	if !HasDisplay() {
		return fmt.Errorf("GUI mode requires a display. No display detected.\n" +
			"DISPLAY and WAYLAND_DISPLAY are not set.\n" +
			"Use 'cloudfm dashboard' for the terminal dashboard")
	}

	logger, err := logging.NewFileLogger(config.LogFilePath())
	if err != nil {
		logger = logging.NewLogger(logging.ModeGUI, nil)
		logger.Warn().Err(err).Msg("File logging disabled")
	}
	defer logger.Close()
	guiLogger = logger.Named("gui")

	// In GUI mode, default to WarnLevel: the console is not the user's view.
	if cfg.Debug {
		logging.SetGlobalLevel(zerolog.DebugLevel)
		guiLogger.Info().Str("log_file", config.LogFilePath()).Msg("Debug logging enabled")
	} else {
		logging.SetGlobalLevel(zerolog.WarnLevel)
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	defer bus.Close()

	client, err := api.NewClient(cfg, logger, api.WithReporter(func(op string) progress.Reporter {
		return progress.NewGUIProgress(bus, op)
	}))
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	myApp := app.NewWithID(constants.AppID)
	myApp.Settings().SetTheme(&dashboardTheme{})

	mainWindow := myApp.NewWindow(constants.AppTitle)
	mainWindow.SetMaster()

	notifiers := notify.Multi{notify.NewBus(bus)}
	if cfg.DesktopNotifications {
		notifiers = append(notifiers, notify.NewDesktop(true, logger))
	}

	picker := localfs.NewPicker()
	ctrl := panel.New(client,
		panel.WithEventBus(bus),
		panel.WithLogger(logger),
		panel.WithNotifier(notifiers),
		panel.WithConfirmer(&dialogConfirmer{window: mainWindow}),
		panel.WithOpener(browser.NewSystem(logger)),
		panel.WithPicker(picker),
		panel.WithDefaultTab(cfg.DefaultProvider()),
		panel.WithConfirmDelete(cfg.ConfirmDelete),
	)

	ui := NewUI(ctx, ctrl, bus, picker, mainWindow)
	ui.Start()
	defer ui.Stop()

	mainWindow.SetContent(ui.Build())
	mainWindow.Resize(fyne.NewSize(1000, 640))
	mainWindow.CenterOnScreen()

	// Quit when the caller's context ends (Ctrl-C in the launching terminal).
	go func() {
		<-ui.ctx.Done()
		if ctx.Err() != nil {
			fyne.Do(myApp.Quit)
		}
	}()

	ui.mount()
	mainWindow.ShowAndRun()
	return nil
}

// UI holds the window and its widgets. Controller operations run on worker
// goroutines; widgets are only touched inside fyne.Do.
type UI struct {
	ctrl   *panel.Controller
	bus    *events.EventBus
	picker *localfs.Picker
	window fyne.Window

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tabs      *container.AppTabs
	panels    map[models.Provider]*providerTab
	tabItems  map[models.Provider]*container.TabItem
	selection *widget.Label
	uploadBtn *widget.Button
	clearBtn  *widget.Button
	statusBar *StatusBar
}

// NewUI creates the UI over ctrl. Events published on bus drive redraws.
func NewUI(ctx context.Context, ctrl *panel.Controller, bus *events.EventBus, picker *localfs.Picker, window fyne.Window) *UI {
	uiCtx, cancel := context.WithCancel(ctx)
	ui := &UI{
		ctrl:     ctrl,
		bus:      bus,
		picker:   picker,
		window:   window,
		ctx:      uiCtx,
		cancel:   cancel,
		panels:   make(map[models.Provider]*providerTab),
		tabItems: make(map[models.Provider]*container.TabItem),
	}
	ui.statusBar = NewStatusBar()
	for _, p := range models.Providers() {
		ui.panels[p] = newProviderTab(ui, p)
	}
	return ui
}

// Build creates the window content: provider tabs above the shared picker
// row and the status bar.
func (ui *UI) Build() fyne.CanvasObject {
	ui.tabs = container.NewAppTabs()
	for _, p := range models.Providers() {
		item := container.NewTabItemWithIcon(p.DisplayName(), providerIcon(p), ui.panels[p].Build())
		ui.tabItems[p] = item
		ui.tabs.Append(item)
	}
	ui.tabs.OnSelected = func(item *container.TabItem) {
		if p, ok := ui.providerFor(item); ok {
			ui.ctrl.SelectTab(p)
		}
	}

	chooseBtn := widget.NewButtonWithIcon("Choose file…", theme.FileIcon(), ui.chooseFile)
	ui.selection = widget.NewLabel(selectionText(nil))
	ui.selection.Truncation = fyne.TextTruncateEllipsis
	ui.clearBtn = widget.NewButtonWithIcon("", theme.ContentClearIcon(), ui.ctrl.ClearSelectedFile)
	ui.uploadBtn = NewPrimaryButton("Upload", ui.upload)

	pickerRow := container.NewBorder(nil, nil,
		container.NewHBox(chooseBtn, HorizontalSpacer(8)),
		container.NewHBox(ui.clearBtn, ui.uploadBtn),
		ui.selection,
	)
	footer := container.NewVBox(
		widget.NewSeparator(),
		pickerRow,
		VerticalSpacer(4),
		ui.statusBar,
	)

	ui.render()
	return container.NewBorder(nil, footer, nil, nil, ui.tabs)
}

// Start begins event monitoring
func (ui *UI) Start() {
	redraw := []events.EventType{
		events.EventListing,
		events.EventIdentity,
		events.EventOperation,
		events.EventSelection,
		events.EventTab,
	}
	for _, t := range redraw {
		ui.listen(t, func(events.Event) { fyne.Do(ui.render) })
	}
	ui.listen(events.EventSignal, func(ev events.Event) {
		sig := ev.(*events.SignalEvent)
		ui.statusBar.ShowSignal(sig)
		fyne.Do(func() { showSignal(ui.window, sig) })
	})
	ui.listen(events.EventTransfer, func(ev events.Event) {
		ui.statusBar.ShowTransfer(ev.(*events.TransferEvent))
	})
	ui.watchAll()
}

// Stop cancels in-flight operations and waits for the listeners to exit.
func (ui *UI) Stop() {
	ui.cancel()
	ui.wg.Wait()
}

func (ui *UI) listen(t events.EventType, fn func(events.Event)) {
	ch := ui.bus.Subscribe(t)
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		defer ui.bus.Unsubscribe(t, ch)
		events.Listen(ui.ctx, ch, fn)
	}()
}

// watchAll traces every event at debug level. When the bus reports lost
// events a redraw may have been among them, so the window is redrawn.
func (ui *UI) watchAll() {
	ch := ui.bus.SubscribeAll()
	drops := &dropWatch{bus: ui.bus}
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		defer ui.bus.UnsubscribeAll(ch)
		events.Listen(ui.ctx, ch, func(ev events.Event) {
			guiLogger.Debug().Str("event", string(ev.Type())).Msg("Event")
			if lost := drops.lost(); lost > 0 {
				guiLogger.Warn().Int64("dropped", lost).Msg("Event bus dropped events")
				fyne.Do(ui.render)
			}
		})
	}()
}

// dropWatch tracks the bus's dropped-event counter between checks.
type dropWatch struct {
	bus  *events.EventBus
	seen int64
}

func (w *dropWatch) lost() int64 {
	n := w.bus.DroppedEvents()
	d := n - w.seen
	w.seen = n
	return d
}

// run executes a controller operation off the fyne goroutine.
func (ui *UI) run(op func(ctx context.Context)) {
	go op(ui.ctx)
}

func (ui *UI) mount() {
	ui.statusBar.SetProgress("Loading…")
	ui.run(func(ctx context.Context) {
		ui.ctrl.Mount(ctx)
		ui.statusBar.SetInfo("Ready")
	})
}

func (ui *UI) upload() {
	p := ui.ctrl.Snapshot().ActiveTab
	ui.run(func(ctx context.Context) { _ = ui.ctrl.Upload(ctx, p) })
}

// chooseFile opens the native-style file dialog, starting in the directory
// of the last picked file.
func (ui *UI) chooseFile() {
	fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		_ = r.Close()

		f, err := ui.picker.Pick(path)
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		ui.ctrl.SelectFile(f)
	}, ui.window)

	if last := ui.picker.Value(); last != "" {
		if dir, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(last))); err == nil {
			fd.SetLocation(dir)
		}
	}
	fd.Show()
}

// render redraws everything from one controller snapshot. Must run on the
// fyne goroutine.
func (ui *UI) render() {
	snap := ui.ctrl.Snapshot()
	for _, t := range ui.panels {
		t.render(snap)
	}

	if item := ui.tabItems[snap.ActiveTab]; item != nil && ui.tabs.Selected() != item {
		ui.tabs.Select(item)
	}

	active := snap.Panel(snap.ActiveTab)
	ui.selection.SetText(selectionText(snap.Selected))
	ui.uploadBtn.SetText(uploadLabel(active))
	// No selection still enables the button so the select-file warning shows.
	setEnabled(ui.uploadBtn, active.Connected() && !active.Uploading)
	setEnabled(ui.clearBtn, snap.Selected != nil)
}

func (ui *UI) providerFor(item *container.TabItem) (models.Provider, bool) {
	for p, it := range ui.tabItems {
		if it == item {
			return p, true
		}
	}
	return "", false
}

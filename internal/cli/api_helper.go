package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cloudfm/cloudfm/internal/api"
	"github.com/cloudfm/cloudfm/internal/browser"
	"github.com/cloudfm/cloudfm/internal/localfs"
	"github.com/cloudfm/cloudfm/internal/notify"
	"github.com/cloudfm/cloudfm/internal/panel"
	"github.com/cloudfm/cloudfm/internal/progress"
)

// getAPIClient creates an API client from the resolved configuration.
// Transfers report progress on the terminal.
func getAPIClient() (*api.Client, error) {
	client, err := api.NewClient(GetConfig(), GetLogger(), api.WithReporter(progress.ForTerminal))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// controllerDeps are the terminal collaborators wired into a panel.Controller.
// Signals and printed URLs go to out, os.Stdout when nil.
type controllerDeps struct {
	out       io.Writer
	confirmer panel.Confirmer
	picker    *localfs.Picker
	printURLs bool
}

// newController builds a controller over a fresh API client with terminal
// signals, the system browser and the given prompt.
func newController(deps controllerDeps) (*panel.Controller, error) {
	client, err := getAPIClient()
	if err != nil {
		return nil, err
	}
	cfg := GetConfig()
	log := GetLogger()
	out := deps.out
	if out == nil {
		out = os.Stdout
	}

	var opener panel.Opener = browser.NewSystem(log)
	if deps.printURLs {
		opener = browser.NewPrinter(out)
	}

	notifiers := notify.Multi{notify.NewConsole(out)}
	if cfg.DesktopNotifications {
		notifiers = append(notifiers, notify.NewDesktop(true, log))
	}

	opts := []panel.Option{
		panel.WithLogger(log),
		panel.WithNotifier(notifiers),
		panel.WithOpener(opener),
		panel.WithDefaultTab(cfg.DefaultProvider()),
		panel.WithConfirmDelete(cfg.ConfirmDelete),
	}
	if deps.confirmer != nil {
		opts = append(opts, panel.WithConfirmer(deps.confirmer))
	}
	if deps.picker != nil {
		opts = append(opts, panel.WithPicker(deps.picker))
	}
	return panel.New(client, opts...), nil
}

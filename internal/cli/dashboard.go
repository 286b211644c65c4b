package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudfm/cloudfm/internal/localfs"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/panel"
)

// newDashboardCmd creates the 'dashboard' command.
func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive terminal dashboard",
		Long: `Start an interactive dashboard over both providers.

The dashboard loads identity and files for both providers on start, then
accepts commands. Type 'help' for the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lr := newLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
			picker := localfs.NewPicker()
			ctrl, err := newController(controllerDeps{out: cmd.OutOrStdout(), confirmer: lr, picker: picker})
			if err != nil {
				return err
			}
			return newShell(ctrl, picker, lr, cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
	return cmd
}

const shellHelp = `Commands:
  tab [provider]      switch panel (no argument toggles)
  ls                  show the active panel
  lls [dir]           list a local directory
  select <path>       choose the local file to upload
  clear               drop the selected file
  upload              upload the selected file to the active provider
  get <#|id|name>     download a file (opens the browser)
  rm <#|id|name>      delete a file after confirmation
  refresh             reload identity and files of the active provider
  login / logout      connect or disconnect the active provider
  help                show this help
  quit                leave the dashboard`

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// Shell is the interactive terminal dashboard. It runs controller operations
// inline and renders the active panel after each command.
type Shell struct {
	ctrl   *panel.Controller
	picker *localfs.Picker
	in     *lineReader
	out    io.Writer
}

func newShell(ctrl *panel.Controller, picker *localfs.Picker, in *lineReader, out io.Writer) *Shell {
	return &Shell{ctrl: ctrl, picker: picker, in: in, out: out}
}

// Run mounts the dashboard and processes commands until quit, EOF or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	s.ctrl.Mount(ctx)
	renderDashboard(s.out, s.ctrl.Snapshot())

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.in.readLine(fmt.Sprintf("\n%s> ", s.ctrl.Snapshot().ActiveTab))
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}
		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

// Exec runs one dashboard command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	active := s.ctrl.Snapshot().ActiveTab

	switch strings.ToLower(verb) {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
		return nil

	case "quit", "exit", "q":
		return errQuit

	case "tab":
		next := s.otherTab(active)
		if rest != "" {
			p, err := parseProvider(rest)
			if err != nil {
				return err
			}
			next = p
		}
		s.ctrl.SelectTab(next)

	case "ls", "show":
		// rendered below

	case "lls":
		return s.listLocal(rest)

	case "select":
		if rest == "" {
			return errors.New("usage: select <path>")
		}
		f, err := s.picker.Pick(localfs.ExpandHome(rest))
		if err != nil {
			return err
		}
		s.ctrl.SelectFile(f)

	case "clear":
		s.ctrl.ClearSelectedFile()
		s.picker.Reset()

	case "upload":
		snap := s.ctrl.Snapshot()
		if snap.Selected != nil && !s.ctrl.Affordances(active).Upload {
			if !snap.Panel(active).Connected() {
				return fmt.Errorf("%s is not connected (run 'login', then 'refresh')", active.DisplayName())
			}
			return errors.New("an upload is already running")
		}
		// Failures are already shown as signals
		_ = s.ctrl.Upload(ctx, active)

	case "get", "download":
		e, err := s.resolveEntry(active, rest)
		if err != nil {
			return err
		}
		s.ctrl.Download(ctx, active, e.ID)
		return nil

	case "rm", "delete":
		e, err := s.resolveEntry(active, rest)
		if err != nil {
			return err
		}
		if deleted, _ := s.ctrl.Delete(ctx, active, e.ID, e.Name); !deleted {
			fmt.Fprintln(s.out, "Delete cancelled.")
		}

	case "refresh":
		s.ctrl.Refresh(ctx, active)

	case "login":
		s.ctrl.Login(ctx, active)
		fmt.Fprintln(s.out, "Finish signing in in the browser, then run 'refresh'.")
		return nil

	case "logout":
		_ = s.ctrl.Logout(ctx, active)

	default:
		return fmt.Errorf("unknown command %q (type 'help')", verb)
	}

	renderDashboard(s.out, s.ctrl.Snapshot())
	return nil
}

func (s *Shell) otherTab(p models.Provider) models.Provider {
	providers := models.Providers()
	for i, candidate := range providers {
		if candidate == p {
			return providers[(i+1)%len(providers)]
		}
	}
	return providers[0]
}

// resolveEntry finds a row of p's listing by ID, 1-based row number or
// file name, in that order.
func (s *Shell) resolveEntry(p models.Provider, ref string) (models.FileEntry, error) {
	if ref == "" {
		return models.FileEntry{}, errors.New("missing file number or ID")
	}
	ps := s.ctrl.Dashboard().Panel(p)
	if e, ok := ps.FindByID(ref); ok {
		return e, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		entries := ps.Entries()
		if n >= 1 && n <= len(entries) {
			return entries[n-1], nil
		}
		if e, ok := ps.FindByName(ref); ok {
			return e, nil
		}
		return models.FileEntry{}, fmt.Errorf("no file #%d in %s", n, p.DisplayName())
	}
	if e, ok := ps.FindByName(ref); ok {
		return e, nil
	}
	return models.FileEntry{}, fmt.Errorf("no file %q in %s", ref, p.DisplayName())
}

func (s *Shell) listLocal(dir string) error {
	if dir == "" {
		dir = "."
	}
	entries, err := localfs.ListDirectory(localfs.ExpandHome(dir), localfs.ListOptions{})
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir {
			fmt.Fprintf(s.out, "  %s/\n", e.Name)
			continue
		}
		fmt.Fprintf(s.out, "  %-40s %10s\n", e.Name, formatBytes(e.Size))
	}
	return nil
}

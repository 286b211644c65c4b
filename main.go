// cloudfm - terminal and desktop dashboard for a Google Drive / OneDrive
// file backend.
//
// - No args + display available → desktop dashboard
// - No args + no display → CLI help
// - --gui → desktop dashboard
// - --cli → CLI mode (force)
// - Any subcommand or flag → CLI mode
package main

import (
	"os"
	"slices"

	"github.com/cloudfm/cloudfm/internal/cli"
	"github.com/cloudfm/cloudfm/internal/gui"
)

func main() {
	os.Args = routeArgs(os.Args, gui.HasDisplay())
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// routeArgs rewrites the command line so GUI launches go through the 'gui'
// subcommand and share its config resolution.
func routeArgs(args []string, hasDisplay bool) []string {
	rest := args[1:]
	switch {
	case slices.Contains(rest, "--cli"):
		return slices.DeleteFunc(slices.Clone(args), func(a string) bool { return a == "--cli" })
	case slices.Contains(rest, "--gui"):
		out := slices.DeleteFunc(slices.Clone(args), func(a string) bool { return a == "--gui" })
		return append(out, "gui")
	case len(rest) == 0 && hasDisplay:
		return append(slices.Clone(args), "gui")
	default:
		return args
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var printURL bool

	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Connect a provider account in the browser",
		Long: `Open the backend's login page for the provider. The backend runs the
OAuth flow and keeps the session; run 'cloudfm whoami' afterwards to check.

Examples:
  cloudfm login google
  cloudfm login onedrive --print-url`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			ctrl, err := newController(controllerDeps{out: cmd.OutOrStdout(), printURLs: printURL})
			if err != nil {
				return err
			}
			ctrl.Login(cmd.Context(), p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&printURL, "print-url", false, "Print the login URL instead of opening it")
	return cmd
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "logout <provider>",
		Short:     "Disconnect a provider account",
		Args:      cobra.ExactArgs(1),
		ValidArgs: providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			ctrl, err := newController(controllerDeps{out: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return reported(ctrl.Logout(cmd.Context(), p))
		},
	}
	return cmd
}

// newWhoamiCmd creates the 'whoami' command.
func newWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "whoami [provider...]",
		Short:     "Show the connected account for each provider",
		ValidArgs: providerNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := providerArgs(args)
			if err != nil {
				return err
			}
			ctrl, err := newController(controllerDeps{out: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			for _, p := range providers {
				ctrl.FetchIdentity(cmd.Context(), p)
			}

			snap := ctrl.Snapshot()
			for _, p := range providers {
				renderIdentity(cmd.OutOrStdout(), snap.Panel(p))
			}
			return nil
		},
	}
	return cmd
}

// newGUICmd creates the 'gui' command.
func newGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := launchGUI(cmd.Context(), GetConfig()); err != nil {
				return fmt.Errorf("failed to start GUI: %w", err)
			}
			return nil
		},
	}
}

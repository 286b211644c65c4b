package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloudfm/cloudfm/internal/events"
	"github.com/cloudfm/cloudfm/internal/localfs"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/notify"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "File operations (list, upload, download, delete)",
		Long:  `Commands for managing files in the connected Google Drive and OneDrive accounts.`,
	}

	filesCmd.AddCommand(newFilesListCmd())
	filesCmd.AddCommand(newFilesUploadCmd())
	filesCmd.AddCommand(newFilesDownloadCmd())
	filesCmd.AddCommand(newFilesDeleteCmd())

	return filesCmd
}

// newFilesListCmd creates the 'files list' command.
func newFilesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [provider...]",
		Aliases: []string{"ls"},
		Short:   "List files for one or both providers",
		Long: `List the files of each connected provider in the order the backend
returns them. With no arguments both providers are listed.

Examples:
  cloudfm files list
  cloudfm files list onedrive`,
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

			ctx := cmd.Context()
			if len(args) == 0 {
				ctrl.Mount(ctx)
			} else {
				for _, p := range providers {
					ctrl.Refresh(ctx, p)
				}
			}

			snap := ctrl.Snapshot()
			out := cmd.OutOrStdout()
			for i, p := range providers {
				if i > 0 {
					fmt.Fprintln(out)
				}
				renderPanel(out, snap.Panel(p))
			}
			return nil
		},
	}
	return cmd
}

// newFilesUploadCmd creates the 'files upload' command.
func newFilesUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <provider> <file>",
		Short: "Upload a local file",
		Long: `Upload one local file to the provider. The file is sent as a single
multipart part named "file".

Examples:
  cloudfm files upload google report.pdf
  cloudfm files upload onedrive ~/Documents/notes.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			return runUpload(cmd, p, args[1])
		},
	}
	return cmd
}

func runUpload(cmd *cobra.Command, p models.Provider, path string) error {
	picker := localfs.NewPicker()
	file, err := picker.Pick(localfs.ExpandHome(path))
	if err != nil {
		return err
	}

	ctrl, err := newController(controllerDeps{out: cmd.OutOrStdout(), picker: picker})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	ctrl.FetchIdentity(ctx, p)
	ctrl.SelectFile(file)
	return reported(ctrl.Upload(ctx, p))
}

// newFilesDownloadCmd creates the 'files download' command.
func newFilesDownloadCmd() *cobra.Command {
	var outputDir string
	var printURL bool

	cmd := &cobra.Command{
		Use:   "download <provider> <file-id>",
		Short: "Download a file",
		Long: `Download a file by ID.

By default the backend's download URL is opened in the browser, which saves
the file with the name the provider reports. With --outdir the file is
streamed to that directory instead, with a progress bar.

Examples:
  cloudfm files download google 1AbCdEf
  cloudfm files download onedrive 01ABC --outdir ./downloads
  cloudfm files download google 1AbCdEf --print-url`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			return runDownload(cmd, p, args[1], outputDir, printURL)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "outdir", "o", "", "Save into this directory instead of opening the browser")
	cmd.Flags().BoolVar(&printURL, "print-url", false, "Print the download URL instead of opening it")
	cmd.MarkFlagsMutuallyExclusive("outdir", "print-url")

	return cmd
}

func runDownload(cmd *cobra.Command, p models.Provider, fileID, outputDir string, printURL bool) error {
	if outputDir == "" {
		ctrl, err := newController(controllerDeps{out: cmd.OutOrStdout(), printURLs: printURL})
		if err != nil {
			return err
		}
		ctrl.Download(cmd.Context(), p, fileID)
		return nil
	}

	dir := localfs.ExpandHome(outputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	client, err := getAPIClient()
	if err != nil {
		return err
	}
	dest, err := client.DownloadToDir(cmd.Context(), p, fileID, dir)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(dest)
	notify.NewConsole(cmd.OutOrStdout()).Notify(notify.Signal{
		Kind:     events.SignalSuccess,
		Provider: p,
		Op:       "download",
		Message:  "Saved " + abs,
	})
	return nil
}

// newFilesDeleteCmd creates the 'files delete' command.
func newFilesDeleteCmd() *cobra.Command {
	var name string
	var confirm bool

	cmd := &cobra.Command{
		Use:     "delete <provider> <file-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a file",
		Long: `Delete a file by ID after confirmation.

The confirmation prompt names the file. Without --name the name is looked up
in the provider's listing.

Examples:
  cloudfm files delete google 1AbCdEf
  cloudfm files delete onedrive 01ABC --name notes.txt --confirm`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			return runDelete(cmd, p, args[1], name, confirm)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "File name shown in the confirmation prompt")
	cmd.Flags().BoolVarP(&confirm, "confirm", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runDelete(cmd *cobra.Command, p models.Provider, fileID, name string, confirm bool) error {
	deps := controllerDeps{
		out:       cmd.OutOrStdout(),
		confirmer: newLineReader(cmd.InOrStdin(), cmd.OutOrStdout()),
	}
	if confirm {
		deps.confirmer = autoConfirm
	}
	ctrl, err := newController(deps)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if name == "" {
		ctrl.Refresh(ctx, p)
		if e, ok := ctrl.Dashboard().Panel(p).FindByID(fileID); ok {
			name = e.Name
		}
	} else {
		ctrl.FetchIdentity(ctx, p)
	}

	deleted, err := ctrl.Delete(ctx, p, fileID, name)
	if err != nil {
		return reported(err)
	}
	if !deleted {
		fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled.")
	}
	return nil
}

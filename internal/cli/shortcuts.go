package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts provide convenient aliases for commonly-used operations.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newUploadShortcut())
	rootCmd.AddCommand(newDownloadShortcut())
	rootCmd.AddCommand(newLsShortcut())
}

// newUploadShortcut creates the 'upload' shortcut command.
// Shortcut for: files upload
func newUploadShortcut() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <provider> <file>",
		Short: "Upload a file (shortcut for 'files upload')",
		Long: `Shortcut for uploading a file.

Equivalent to: cloudfm files upload <provider> <file>

Examples:
  cloudfm upload google report.pdf`,
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

// newDownloadShortcut creates the 'download' shortcut command.
// Shortcut for: files download
func newDownloadShortcut() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <provider> <file-id>",
		Short: "Download a file (shortcut for 'files download')",
		Long: `Shortcut for downloading a file.

Equivalent to: cloudfm files download <provider> <file-id>

Examples:
  cloudfm download google 1AbCdEf
  cloudfm download onedrive 01ABC --outdir .`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			return runDownload(cmd, p, args[1], outputDir, false)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "outdir", "o", "", "Save into this directory instead of opening the browser")

	return cmd
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: files list
func newLsShortcut() *cobra.Command {
	cmd := newFilesListCmd()
	cmd.Use = "ls [provider...]"
	cmd.Aliases = nil
	cmd.Short = "List files (shortcut for 'files list')"
	return cmd
}

// Package cli provides the command-line interface for cloudfm.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/logging"
	"github.com/cloudfm/cloudfm/internal/version"
)

// annotationSkipConfig marks commands that must not fail on a broken config file.
const annotationSkipConfig = "skip-config"

var (
	// Global flags
	cfgFile    string
	apiBaseURL string
	verbose    bool
	debug      bool

	// Global logger
	logger *logging.Logger

	// Resolved configuration, set in PersistentPreRunE
	resolvedConfig *config.Config

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command for CLI mode.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: constants.AppTitle + " - manage Google Drive and OneDrive files through the cloudfm backend",
		Long: constants.AppTitle + ` ` + version.Version + ` - Built: ` + version.BuildTime + `
Connect a Google Drive and a OneDrive account through the cloudfm backend,
then list, upload, download and delete files in either of them.

Run without arguments on a desktop to open the dashboard window, or use
'cloudfm dashboard' for the interactive terminal dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetDebug(true)
			}

			// Commands that repair the config must run even when it is invalid
			if cmd.Annotations[annotationSkipConfig] == "true" {
				resolvedConfig = config.NewConfig()
				return nil
			}

			cfg, err := config.Resolve(cfgFile, apiBaseURL)
			if err != nil {
				return err
			}
			if verbose || debug {
				cfg.Debug = true
			}
			logging.SetDebug(cfg.Debug)
			resolvedConfig = cfg

			logger.Debug().
				Str("config", cfg.Path).
				Str("base_url", cfg.APIBaseURL).
				Str("proxy_mode", cfg.ProxyMode).
				Msg("Configuration resolved")
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default ~/.config/cloudfm/config)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Backend base URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts to enable tab-completion for cloudfm.

QUICK START:

  zsh:
    cloudfm completion zsh > ~/.zsh/completions/_cloudfm

  bash:
    cloudfm completion bash | sudo tee /etc/bash_completion.d/cloudfm

  fish:
    cloudfm completion fish > ~/.config/fish/completions/cloudfm.fish`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletion(out)
			}
		},
	}
	rootCmd.AddCommand(completionCmd)

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop so repeated Ctrl+C does not block the sender
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)
	if err != nil && !IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGUICmd())

	// Add shortcuts for convenience
	AddShortcuts(rootCmd)
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// GetConfig returns the configuration resolved for this invocation.
func GetConfig() *config.Config {
	if resolvedConfig == nil {
		resolvedConfig = config.NewConfig()
	}
	return resolvedConfig
}

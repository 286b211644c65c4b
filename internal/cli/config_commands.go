package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudfm/cloudfm/internal/api"
	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/http"
	"github.com/cloudfm/cloudfm/internal/models"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cloudfm configuration",
		Long: `Configuration management commands for cloudfm.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the backend connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for cloudfm.

The configuration is saved to ~/.config/cloudfm/config unless --config or
CLOUDFM_CONFIG names another file. Use --force to overwrite an existing file.`,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.ResolvePath(cfgFile)
			if err != nil {
				return err
			}
			lr := newLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
			return runConfigInit(lr, cmd.OutOrStdout(), configPath, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// runConfigInit prompts for each setting and writes the file.
func runConfigInit(lr *lineReader, out io.Writer, configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(out, "Configuration already exists at: %s\n", configPath)
			fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
			return nil
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.NewConfig()
	}

	fmt.Fprintln(out, "cloudfm Configuration Setup")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out)

	cfg.APIBaseURL = lr.promptDefault("Backend base URL", cfg.APIBaseURL)

	for {
		tab := lr.promptDefault("Default tab (google/onedrive)", cfg.DefaultTab)
		p, err := models.ParseProvider(tab)
		if err == nil {
			cfg.DefaultTab = p.String()
			break
		}
		fmt.Fprintln(out, "  Error: enter google or onedrive")
	}
	cfg.ConfirmDelete = lr.promptYesNo("Confirm before deleting files?", cfg.ConfirmDelete)
	cfg.DesktopNotifications = lr.promptYesNo("Show desktop notifications?", cfg.DesktopNotifications)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Proxy Settings (press Enter for defaults)")
	fmt.Fprintln(out, "-----------------------------------------")
	for {
		mode := strings.ToLower(lr.promptDefault("Proxy mode ("+strings.Join(config.ProxyModes, "/")+")", cfg.ProxyMode))
		if slices.Contains(config.ProxyModes, mode) {
			cfg.ProxyMode = mode
			break
		}
		fmt.Fprintln(out, "  Error: unknown proxy mode")
	}
	if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
		cfg.ProxyHost = lr.promptDefault("Proxy host", cfg.ProxyHost)
		port := lr.promptDefault("Proxy port", strconv.Itoa(cfg.ProxyPort))
		if v, err := strconv.Atoi(port); err == nil {
			cfg.ProxyPort = v
		}
		cfg.ProxyUser = lr.promptDefault("Proxy user", cfg.ProxyUser)
		cfg.NoProxy = lr.promptDefault("No-proxy hosts", cfg.NoProxy)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return err
	}
	GetLogger().Info().Str("path", configPath).Msg("Configuration saved")

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Configuration saved to: %s\n", configPath)
	if http.NeedsProxyPassword(cfg) {
		fmt.Fprintf(out, "  The proxy password is not stored; set %s or enter it when asked.\n", config.EnvProxyPassword)
	}
	fmt.Fprintln(out, "Test your configuration with: cloudfm config test")
	return nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/cloudfm/config)
  2. Environment variables (CLOUDFM_API_URL, CLOUDFM_PROXY_PASSWORD, CLOUDFM_DEBUG)
  3. Command-line flags (--api-url)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeConfig(cmd.OutOrStdout(), GetConfig())
			return nil
		},
	}
	return cmd
}

// writeConfig prints cfg. The proxy password is never shown.
func writeConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Backend:")
	fmt.Fprintf(w, "  Base URL:            %s\n", cfg.APIBaseURL)
	if cfg.TimeoutSeconds > 0 {
		fmt.Fprintf(w, "  Timeout:             %ds\n", cfg.TimeoutSeconds)
	} else {
		fmt.Fprintln(w, "  Timeout:             none")
	}
	fmt.Fprintf(w, "  Max Retries:         %d\n", cfg.MaxRetries)
	if cfg.RequestsPerSecond > 0 {
		fmt.Fprintf(w, "  Requests per second: %g\n", cfg.RequestsPerSecond)
	} else {
		fmt.Fprintln(w, "  Requests per second: unlimited")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Proxy Settings:")
	fmt.Fprintf(w, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(w, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(w, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	if cfg.ProxyUser != "" {
		fmt.Fprintf(w, "  Proxy User: %s\n", cfg.ProxyUser)
		if cfg.ProxyPassword != "" {
			fmt.Fprintln(w, "  Password:   <set>")
		} else {
			fmt.Fprintln(w, "  Password:   <not set>")
		}
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(w, "  No Proxy:   %s\n", cfg.NoProxy)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Dashboard:")
	fmt.Fprintf(w, "  Default Tab:           %s\n", cfg.DefaultProvider().DisplayName())
	fmt.Fprintf(w, "  Confirm Delete:        %t\n", cfg.ConfirmDelete)
	fmt.Fprintf(w, "  Desktop Notifications: %t\n", cfg.DesktopNotifications)
	fmt.Fprintln(w)

	if cfg.Path != "" {
		fmt.Fprintf(w, "Configuration file: %s\n", cfg.Path)
	} else {
		fmt.Fprintln(w, "Configuration file: (none - using defaults)")
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the backend connection",
		Long: `Test the backend connection with the current configuration by asking
for the connected account of each provider.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig()
			out := cmd.OutOrStdout()

			if http.NeedsProxyPassword(cfg) {
				lr := newLineReader(cmd.InOrStdin(), out)
				pw, err := lr.readSecret("Proxy password: ")
				if err != nil {
					return fmt.Errorf("failed to read proxy password: %w", err)
				}
				cfg.ProxyPassword = pw
			}

			fmt.Fprintf(out, "Backend: %s\n", cfg.APIBaseURL)
			fmt.Fprintln(out, "Testing connection...")

			client, err := getAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return runConfigTest(ctx, client, out)
		},
	}
	return cmd
}

// userFetcher is the part of the backend client config test needs.
type userFetcher interface {
	FetchUser(ctx context.Context, p models.Provider) (*models.UserIdentity, error)
}

// runConfigTest reports each provider's connection. Only network failures
// fail the test; a disconnected provider is a valid answer.
func runConfigTest(ctx context.Context, client userFetcher, out io.Writer) error {
	failed := false
	for _, p := range models.Providers() {
		id, err := client.FetchUser(ctx, p)
		switch {
		case err != nil && api.IsNetworkError(err):
			failed = true
			fmt.Fprintf(out, "✗ %s: %v\n", p.DisplayName(), err)
		case err != nil:
			fmt.Fprintf(out, "! %s: %s\n", p.DisplayName(), api.UserMessage(err, ""))
		case id == nil:
			fmt.Fprintf(out, "✓ %s: reachable, not connected\n", p.DisplayName())
		default:
			fmt.Fprintf(out, "✓ %s: %s\n", p.DisplayName(), id.Label())
		}
	}
	if failed {
		return reported(fmt.Errorf("connection test failed"))
	}
	return nil
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Long:        `Display the path to the configuration file.`,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.ResolvePath(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", configPath)

			if info, err := os.Stat(configPath); err == nil {
				fmt.Fprintf(out, "Status:   file exists (%d bytes)\n", info.Size())
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status:   file does not exist")
				fmt.Fprintln(out, "Create a configuration file with: cloudfm config init")
			}
			return nil
		},
	}
	return cmd
}

// Package config provides configuration management for cloudfm.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/models"
)

// Config is the resolved runtime configuration shared by the CLI and GUI.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\cloudfm\config
//   - Unix: ~/.config/cloudfm/config
//
// INI format:
//
//	[backend]
//	base_url = http://localhost:5000
//	timeout_seconds = 0
//	max_retries = 0
//	requests_per_second = 0
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	no_proxy =
//	warmup = false
//
//	[ui]
//	default_tab = google
//	confirm_delete = true
//	desktop_notifications = false
type Config struct {
	// Backend connection
	APIBaseURL        string
	TimeoutSeconds    int
	MaxRetries        int
	RequestsPerSecond float64

	// Proxy settings. ProxyPassword is never written to disk.
	ProxyMode     string
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string
	ProxyWarmup   bool

	// UI preferences
	DefaultTab           string
	ConfirmDelete        bool
	DesktopNotifications bool

	// Debug enables debug logging (CLOUDFM_DEBUG or --debug)
	Debug bool

	// Path is the file this config was loaded from, empty for pure defaults
	Path string
}

// Environment variables consulted by ApplyEnv.
const (
	EnvConfigPath    = "CLOUDFM_CONFIG"
	EnvAPIURL        = "CLOUDFM_API_URL"
	EnvProxyPassword = "CLOUDFM_PROXY_PASSWORD"
	EnvDebug         = "CLOUDFM_DEBUG"
)

// Validation errors
var (
	ErrMissingAPIBaseURL = errors.New("base_url is required")
	ErrInvalidAPIBaseURL = errors.New("base_url must be an absolute http(s) URL")
	ErrInvalidTimeout    = errors.New("timeout_seconds must not be negative")
	ErrInvalidMaxRetries = errors.New("max_retries must be between 0 and 10")
	ErrInvalidRate       = errors.New("requests_per_second must not be negative")
	ErrInvalidProxyMode  = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrInvalidProxyPort  = errors.New("proxy port must be between 0 and 65535")
	ErrInvalidDefaultTab = errors.New("default_tab must name a provider")
)

// ProxyModes lists the accepted [proxy] mode values.
var ProxyModes = []string{"no-proxy", "system", "basic", "ntlm"}

// DefaultConfigPath returns the default path for the config file.
// - Windows: %USERPROFILE%\.config\cloudfm\config
// - Unix: ~/.config/cloudfm/config
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", constants.AppName)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", constants.AppName)
	}

	return filepath.Join(configDir, "config"), nil
}

// ResolvePath picks the config file path: explicit flag value, then
// CLOUDFM_CONFIG, then the default location.
func ResolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	return DefaultConfigPath()
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		APIBaseURL:    constants.DefaultAPIBaseURL,
		MaxRetries:    constants.DefaultMaxRetries,
		ProxyMode:     "no-proxy",
		DefaultTab:    string(models.ProviderGoogle),
		ConfirmDelete: true,
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Path = path

	backend := iniFile.Section("backend")
	cfg.APIBaseURL = backend.Key("base_url").MustString(cfg.APIBaseURL)
	cfg.TimeoutSeconds = backend.Key("timeout_seconds").MustInt(0)
	cfg.MaxRetries = backend.Key("max_retries").MustInt(constants.DefaultMaxRetries)
	cfg.RequestsPerSecond = backend.Key("requests_per_second").MustFloat64(0)

	proxy := iniFile.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	ui := iniFile.Section("ui")
	cfg.DefaultTab = ui.Key("default_tab").MustString(cfg.DefaultTab)
	cfg.ConfirmDelete = ui.Key("confirm_delete").MustBool(true)
	cfg.DesktopNotifications = ui.Key("desktop_notifications").MustBool(false)

	return cfg, nil
}

// Save writes configuration to an INI file.
// Creates parent directories if they don't exist. The proxy password is
// deliberately not persisted.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	backend, err := iniFile.NewSection("backend")
	if err != nil {
		return fmt.Errorf("failed to create backend section: %w", err)
	}
	backend.Key("base_url").SetValue(cfg.APIBaseURL)
	backend.Key("timeout_seconds").SetValue(strconv.Itoa(cfg.TimeoutSeconds))
	backend.Key("max_retries").SetValue(strconv.Itoa(cfg.MaxRetries))
	backend.Key("requests_per_second").SetValue(strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64))

	proxy, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.ProxyMode)
	proxy.Key("host").SetValue(cfg.ProxyHost)
	proxy.Key("port").SetValue(strconv.Itoa(cfg.ProxyPort))
	proxy.Key("user").SetValue(cfg.ProxyUser)
	proxy.Key("no_proxy").SetValue(cfg.NoProxy)
	proxy.Key("warmup").SetValue(strconv.FormatBool(cfg.ProxyWarmup))

	ui, err := iniFile.NewSection("ui")
	if err != nil {
		return fmt.Errorf("failed to create ui section: %w", err)
	}
	ui.Key("default_tab").SetValue(cfg.DefaultTab)
	ui.Key("confirm_delete").SetValue(strconv.FormatBool(cfg.ConfirmDelete))
	ui.Key("desktop_notifications").SetValue(strconv.FormatBool(cfg.DesktopNotifications))

	// Temporary file + rename so a crash never leaves a half-written config
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// ApplyEnv overlays CLOUDFM_* environment variables onto cfg.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvProxyPassword); v != "" {
		cfg.ProxyPassword = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// Resolve loads the config file at path (or the default location), then
// applies environment overrides and finally a non-empty apiURL flag value.
func Resolve(path, apiURL string) (*Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		resolved = ""
	}

	cfg, err := Load(resolved)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		return ErrMissingAPIBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBaseURL, base)
	}

	if cfg.TimeoutSeconds < 0 {
		return ErrInvalidTimeout
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return ErrInvalidMaxRetries
	}
	if cfg.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}

	if !validProxyMode(cfg.ProxyMode) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyMode, cfg.ProxyMode)
	}
	if cfg.ProxyPort < 0 || cfg.ProxyPort > 65535 {
		return ErrInvalidProxyPort
	}

	if _, err := models.ParseProvider(cfg.DefaultTab); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefaultTab, err)
	}

	return nil
}

// Timeout returns the HTTP client timeout, zero meaning none.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// DefaultProvider returns the provider whose tab is shown first.
// Falls back to google for an unparseable value.
func (cfg *Config) DefaultProvider() models.Provider {
	p, err := models.ParseProvider(cfg.DefaultTab)
	if err != nil {
		return models.ProviderGoogle
	}
	return p
}

func validProxyMode(mode string) bool {
	if mode == "" {
		return true
	}
	for _, m := range ProxyModes {
		if strings.EqualFold(mode, m) {
			return true
		}
	}
	return false
}

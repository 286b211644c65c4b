package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cloudfm/cloudfm/internal/constants"
)

// LogDirectory returns the directory the GUI writes its log file to.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\cloudfm\logs
//   - Unix: $XDG_CONFIG_HOME/cloudfm/logs (usually ~/.config/cloudfm/logs)
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), constants.AppName+"-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, constants.AppName, "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), constants.AppName+"-logs")
		}
		return filepath.Join(homeDir, ".config", constants.AppName, "logs")
	}
	return filepath.Join(configDir, constants.AppName, "logs")
}

// EnsureLogDirectory creates the log directory with owner-only permissions.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// LogFilePath is the GUI log file inside LogDirectory.
func LogFilePath() string {
	return filepath.Join(LogDirectory(), constants.AppName+".log")
}

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrAutostartUnsupported indicates login autostart is not implemented for this OS.
var ErrAutostartUnsupported = errors.New("autostart unsupported on this platform")

// Autostart manages the login entry that launches the application.
type Autostart interface {
	Enable(execPath string) error
	Disable() error
	Enabled() (bool, error)
}

// NewAutostart returns the platform-specific autostart manager for appName.
func NewAutostart(appName string) Autostart {
	return newAutostart(appName)
}

// ConfigDir returns the per-user configuration directory of appName.
func ConfigDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return filepath.Join(configDir, appName), nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// DataDir returns the per-user data directory of appName, following
// XDG_DATA_HOME when set.
func DataDir(appName string) (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get data dir: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appName), nil
}

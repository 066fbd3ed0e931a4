package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "voce"

// GetConfigDir returns $XDG_CONFIG_HOME/voce, falling back to ~/.config/voce.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// GetConfigFile returns the default config file path.
func GetConfigFile() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// GetStateDir returns $XDG_STATE_HOME/voce, falling back to ~/.local/state/voce.
// The default intent file lives here.
func GetStateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", appDirName), nil
}

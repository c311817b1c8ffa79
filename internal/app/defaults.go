package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the locations used when no config file path is given.
type Defaults struct {
	ConfigPath string // lycheesync.toml
	BaseDir    string // catalog and logs
}

// LoadDefaults resolves the default locations. LYCHEESYNC_CONFIG_PATH and
// LYCHEESYNC_HOME override them outright; otherwise XDG_CONFIG_HOME and
// XDG_DATA_HOME are honored, falling back to ~/.config and ~/.local/share.
func LoadDefaults() (Defaults, error) {
	var d Defaults

	configHome, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return d, err
	}
	dataHome, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return d, err
	}

	d.ConfigPath = envOr("LYCHEESYNC_CONFIG_PATH", filepath.Join(configHome, "lycheesync.toml"))
	d.BaseDir = envOr("LYCHEESYNC_HOME", filepath.Join(dataHome, "lycheesync"))
	return d, nil
}

// LogDir is where the rotating log file is written.
func (d Defaults) LogDir() string {
	return filepath.Join(d.BaseDir, "log")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func xdgDir(key, underHome string) (string, error) {
	if v := os.Getenv(key); filepath.IsAbs(v) {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, underHome), nil
}

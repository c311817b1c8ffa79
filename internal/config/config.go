package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for lycheesync.
type Config struct {
	SourceDir  string `toml:"source_dir"`  // watched tree
	LycheePath string `toml:"lychee_path"` // gallery installation holding uploads/
	LogDir     string `toml:"log_dir"`

	Link               bool   `toml:"link"`
	PublicAlbum        bool   `toml:"public_album"`
	Verbose            bool   `toml:"verbose"`
	Naming             string `toml:"naming"` // "flat" (default) or "hashed"
	PurgeOnPhotoDelete bool   `toml:"purge_on_photo_delete"`
	ScanOnStart        bool   `toml:"scan_on_start"`

	Owner      OwnerConfig      `toml:"owner"`
	Database   DatabaseConfig   `toml:"database"`
	Filesystem FilesystemConfig `toml:"filesystem"`
	Watch      WatchConfig      `toml:"watch"`
}

// OwnerConfig names the account that should own managed files.
// Empty fields leave ownership unchanged.
type OwnerConfig struct {
	User  string `toml:"user"`
	Group string `toml:"group"`
}

// DatabaseConfig represents configuration for the gallery catalog.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// WatchConfig tunes how raw notifications become sync events.
type WatchConfig struct {
	// Settle is how long a new file must go without writes before it is ingested.
	Settle Duration `toml:"settle"`
	// MoveWindow is how long a rename waits for its matching create.
	MoveWindow Duration `toml:"move_window"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Defaults for settings a config file may leave out.
const (
	DefaultSettle     = 500 * time.Millisecond
	DefaultMoveWindow = 100 * time.Millisecond
)

// defaults returns the values a decoded config starts from.
func defaults() Config {
	return Config{
		Naming:             "flat",
		PurgeOnPhotoDelete: true,
		ScanOnStart:        true,
		Database:           DatabaseConfig{Type: "sqlite"},
		Watch: WatchConfig{
			Settle:     Duration{DefaultSettle},
			MoveWindow: Duration{DefaultMoveWindow},
		},
	}
}

// NewConfig creates a new Config with default settings and state kept under baseDir.
func NewConfig(baseDir, sourceDir, lycheePath string) *Config {
	cfg := defaults()
	cfg.SourceDir = sourceDir
	cfg.LycheePath = lycheePath
	cfg.LogDir = filepath.Join(baseDir, "log")
	cfg.Database.Path = filepath.Join(baseDir, "catalog.db")
	return &cfg
}

// Validate reports every problem with cfg at once.
func (c *Config) Validate() error {
	var errs []error
	if c.SourceDir == "" {
		errs = append(errs, errors.New("source_dir is required"))
	}
	if c.LycheePath == "" {
		errs = append(errs, errors.New("lychee_path is required"))
	}
	if c.SourceDir != "" && c.LycheePath != "" && filepath.Clean(c.SourceDir) == filepath.Clean(c.LycheePath) {
		errs = append(errs, errors.New("source_dir and lychee_path must differ"))
	}
	switch c.Naming {
	case "", "flat", "hashed":
	default:
		errs = append(errs, fmt.Errorf("unknown naming strategy: %s", c.Naming))
	}
	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path required for sqlite database"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database type: %s", c.Database.Type))
	}
	if c.Watch.Settle.Duration < 0 || c.Watch.MoveWindow.Duration < 0 {
		errs = append(errs, errors.New("watch durations must not be negative"))
	}
	return errors.Join(errs...)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Settings the input leaves
// out keep their defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := defaults()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. An existing file is never overwritten.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

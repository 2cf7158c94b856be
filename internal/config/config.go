// Package config handles configuration loading, validation, and hot
// reloading for expandd.
//
// The daemon configuration lives in a single TOML file; per-application
// expansion profiles live as YAML files in a profiles directory and are
// validated against an embedded JSON Schema before use.
package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version"`

	// Monitor configuration for foreground-window polling.
	Monitor MonitorConfig `toml:"monitor"`

	// SecureInput configuration for secure-input polling.
	SecureInput SecureInputConfig `toml:"secure_input"`

	// Profiles configuration for per-application expansion profiles.
	Profiles ProfilesConfig `toml:"profiles"`

	// Store configuration for optional transition recording.
	Store StoreConfig `toml:"store"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging"`

	mu       sync.RWMutex
	profiles []*Profile
}

// MonitorConfig controls the foreground-window monitor.
type MonitorConfig struct {
	// PollIntervalMs is how often the foreground window is queried.
	PollIntervalMs int `toml:"poll_interval_ms"`

	// DebounceIntervalMs is the minimum time between emitted change events.
	DebounceIntervalMs int `toml:"debounce_interval_ms"`

	// IgnoredApplications lists window classes that never produce events.
	IgnoredApplications []string `toml:"ignored_applications"`
}

// PollInterval returns the poll interval as a duration.
func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// DebounceInterval returns the debounce interval as a duration.
func (c MonitorConfig) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceIntervalMs) * time.Millisecond
}

// SecureInputConfig controls secure-input lock polling.
type SecureInputConfig struct {
	// PollIntervalMs is how often the secure-input holder is queried.
	PollIntervalMs int `toml:"poll_interval_ms"`

	// Notify logs a warning when a process takes or releases the lock.
	Notify bool `toml:"notify"`
}

// PollInterval returns the poll interval as a duration.
func (c SecureInputConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ProfilesConfig locates the per-application profile files.
type ProfilesConfig struct {
	// Directory containing *.yml / *.yaml profile files.
	Directory string `toml:"directory"`
}

// StoreConfig controls the optional transition store.
type StoreConfig struct {
	// Enabled turns transition recording on.
	Enabled bool `toml:"enabled"`

	// Path is the SQLite database location.
	Path string `toml:"path"`

	// MaxAgeDays prunes recorded transitions older than this.
	MaxAgeDays int `toml:"max_age_days"`
}

// LoggingConfig configures the log output.
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	Output   string `toml:"output"`
	FilePath string `toml:"file_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Monitor: MonitorConfig{
			PollIntervalMs:     100,
			DebounceIntervalMs: 200,
			IgnoredApplications: []string{
				// Launchers and system chrome that never receive expansions
				"com.apple.Spotlight",
				"com.apple.SystemPreferences",
				"explorer.exe",
			},
		},
		SecureInput: SecureInputConfig{
			PollIntervalMs: 1000,
			Notify:         true,
		},
		Profiles: ProfilesConfig{
			Directory: filepath.Join(PlatformConfigDir(), "profiles"),
		},
		Store: StoreConfig{
			Enabled:    false,
			Path:       filepath.Join(PlatformDataDir(), "transitions.db"),
			MaxAgeDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultConfigPath returns the default daemon configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "expandd.toml")
}

// loadConfigFromFile parses a TOML configuration file over the defaults.
// A missing file yields the defaults unchanged.
func loadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetProfiles replaces the loaded profile set.
func (c *Config) SetProfiles(profiles []*Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles = profiles
}

// LoadedProfiles returns the currently loaded profile set.
func (c *Config) LoadedProfiles() []*Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Version != Version {
		t.Errorf("expected version %d, got %d", Version, cfg.Version)
	}
	if cfg.Monitor.PollIntervalMs != 100 {
		t.Errorf("expected poll interval 100, got %d", cfg.Monitor.PollIntervalMs)
	}
	if cfg.SecureInput.PollIntervalMs != 1000 {
		t.Errorf("expected secure input poll interval 1000, got %d", cfg.SecureInput.PollIntervalMs)
	}
	if len(cfg.Monitor.IgnoredApplications) == 0 {
		t.Error("expected some ignored applications")
	}

	// Paths contain the app directory
	if !strings.Contains(cfg.Store.Path, "expandd") {
		t.Errorf("store path should contain expandd: %s", cfg.Store.Path)
	}
	if !strings.Contains(cfg.Profiles.Directory, "expandd") {
		t.Errorf("profiles directory should contain expandd: %s", cfg.Profiles.Directory)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expandd.toml")

	content := `
version = 1

[monitor]
poll_interval_ms = 250
debounce_interval_ms = 500
ignored_applications = ["com.example.launcher"]

[secure_input]
poll_interval_ms = 2000
notify = false

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Monitor.PollIntervalMs != 250 {
		t.Errorf("poll interval = %d, want 250", cfg.Monitor.PollIntervalMs)
	}
	if cfg.SecureInput.Notify {
		t.Error("secure_input.notify should be false")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if len(cfg.Monitor.IgnoredApplications) != 1 || cfg.Monitor.IgnoredApplications[0] != "com.example.launcher" {
		t.Errorf("unexpected ignored applications: %v", cfg.Monitor.IgnoredApplications)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfigFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Monitor.PollIntervalMs != DefaultConfig().Monitor.PollIntervalMs {
		t.Error("missing file should yield defaults")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Monitor.PollIntervalMs = 0 },
			wantErr: "monitor.poll_interval_ms",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Monitor.DebounceIntervalMs = -1 },
			wantErr: "monitor.debounce_interval_ms",
		},
		{
			name:    "bad version",
			mutate:  func(c *Config) { c.Version = 99 },
			wantErr: "version",
		},
		{
			name:    "enabled store without path",
			mutate:  func(c *Config) { c.Store.Enabled = true; c.Store.Path = "" },
			wantErr: "store.path",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
		{
			name:    "file output without path",
			mutate:  func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" },
			wantErr: "logging.file_path",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), test.wantErr)
			}
		})
	}
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expandd.toml")
	profilesDir := filepath.Join(dir, "profiles")
	if err := os.MkdirAll(profilesDir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
version = 1

[profiles]
directory = "` + strings.ReplaceAll(profilesDir, `\`, `\\`) + `"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	profile := `
name: terminal
filter_class: "com\\.apple\\.Terminal"
`
	if err := os.WriteFile(filepath.Join(profilesDir, "terminal.yml"), []byte(profile), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	defer loader.Close()

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	profiles := cfg.LoadedProfiles()
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if profiles[0].Name != "terminal" {
		t.Errorf("unexpected profile name %q", profiles[0].Name)
	}
}

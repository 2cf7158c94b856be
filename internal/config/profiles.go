// Package config handles configuration loading and validation for expandd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"expandd/internal/system"
)

// Profile describes when an application-specific set of expansion rules
// applies. A profile matches a window when every filter it declares
// matches; a profile with no filters never matches.
type Profile struct {
	// Name identifies the profile in logs and CLI output.
	Name string `yaml:"name"`

	// FilterClass matches against the window class (bundle identifier,
	// WM_CLASS, or executable name depending on platform).
	FilterClass string `yaml:"filter_class,omitempty"`

	// FilterTitle matches against the window title.
	FilterTitle string `yaml:"filter_title,omitempty"`

	// FilterExec matches against the executable path.
	FilterExec string `yaml:"filter_exec,omitempty"`

	// SuppressOnSecureInput disables expansions for this profile while
	// any process holds the secure-input lock.
	SuppressOnSecureInput bool `yaml:"suppress_on_secure_input,omitempty"`

	// Priority orders profiles; higher wins. Ties break on name.
	Priority int `yaml:"priority,omitempty"`

	classRe *regexp.Regexp
	titleRe *regexp.Regexp
	execRe  *regexp.Regexp
}

// Compile validates and compiles the profile's filter patterns.
func (p *Profile) Compile() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.FilterClass == "" && p.FilterTitle == "" && p.FilterExec == "" {
		return fmt.Errorf("profile %q declares no filters", p.Name)
	}

	var err error
	if p.FilterClass != "" {
		if p.classRe, err = regexp.Compile(p.FilterClass); err != nil {
			return fmt.Errorf("profile %q: filter_class: %w", p.Name, err)
		}
	}
	if p.FilterTitle != "" {
		if p.titleRe, err = regexp.Compile(p.FilterTitle); err != nil {
			return fmt.Errorf("profile %q: filter_title: %w", p.Name, err)
		}
	}
	if p.FilterExec != "" {
		if p.execRe, err = regexp.Compile(p.FilterExec); err != nil {
			return fmt.Errorf("profile %q: filter_exec: %w", p.Name, err)
		}
	}
	return nil
}

// Matches reports whether every declared filter matches the window.
func (p *Profile) Matches(win system.WindowIdentity) bool {
	if p.classRe == nil && p.titleRe == nil && p.execRe == nil {
		return false
	}
	if p.classRe != nil && !p.classRe.MatchString(win.Class) {
		return false
	}
	if p.titleRe != nil && !p.titleRe.MatchString(win.Title) {
		return false
	}
	if p.execRe != nil && !p.execRe.MatchString(win.Executable) {
		return false
	}
	return true
}

// MatchProfile selects the profile that applies to the given window:
// the highest-priority match, name order breaking ties. Nil when no
// profile matches.
func (c *Config) MatchProfile(win system.WindowIdentity) *Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Profile
	for _, p := range c.profiles {
		if !p.Matches(win) {
			continue
		}
		if best == nil || p.Priority > best.Priority ||
			(p.Priority == best.Priority && p.Name < best.Name) {
			best = p
		}
	}
	return best
}

// LoadProfiles reads, validates, and compiles every profile file in dir.
// Files that fail schema validation or pattern compilation are skipped
// and reported in the returned slice of errors; a missing directory is
// not an error.
func LoadProfiles(dir string) ([]*Profile, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{err}
	}

	var profiles []*Profile
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		profile, err := loadProfileFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Priority != profiles[j].Priority {
			return profiles[i].Priority > profiles[j].Priority
		}
		return profiles[i].Name < profiles[j].Name
	})

	return profiles, errs
}

// loadProfileFile parses and validates a single profile file.
func loadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := validateProfileDocument(data); err != nil {
		return nil, err
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		// Fall back to the file name, matching what users expect from
		// a profiles directory.
		profile.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := profile.Compile(); err != nil {
		return nil, err
	}
	return &profile, nil
}

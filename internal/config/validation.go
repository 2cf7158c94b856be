// Package config handles configuration loading and validation for expandd.
package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate performs comprehensive validation of the configuration.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateMonitor(&c.Monitor)...)
	errs = append(errs, validateSecureInput(&c.SecureInput)...)
	errs = append(errs, validateStore(&c.Store)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateMonitor(c *MonitorConfig) ValidationErrors {
	var errs ValidationErrors
	if c.PollIntervalMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor.poll_interval_ms",
			Message: "must be positive",
		})
	}
	if c.DebounceIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor.debounce_interval_ms",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateSecureInput(c *SecureInputConfig) ValidationErrors {
	var errs ValidationErrors
	if c.PollIntervalMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "secure_input.poll_interval_ms",
			Message: "must be positive",
		})
	}
	return errs
}

func validateStore(c *StoreConfig) ValidationErrors {
	var errs ValidationErrors
	if c.Enabled && c.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "store.path",
			Message: "required when the store is enabled",
		})
	}
	if c.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "store.max_age_days",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateLogging(c *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Level),
		})
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Format),
		})
	}
	switch strings.ToLower(c.Output) {
	case "", "stdout", "stderr", "file", "both":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", c.Output),
		})
	}
	if (strings.EqualFold(c.Output, "file") || strings.EqualFold(c.Output, "both")) && c.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required for file output",
		})
	}
	return errs
}

//go:build !darwin && !linux && !windows

// Package system fallback manager for unsupported platforms.
package system

import "runtime"

// otherManager is a no-op implementation for unsupported platforms.
// Every query degrades to absence so the expansion loop keeps running.
type otherManager struct{}

// newPlatformManager creates the no-op manager.
func newPlatformManager() Manager {
	return &otherManager{}
}

func (m *otherManager) CurrentWindowClass() (string, bool)      { return "", false }
func (m *otherManager) CurrentWindowTitle() (string, bool)      { return "", false }
func (m *otherManager) CurrentWindowExecutable() (string, bool) { return "", false }
func (m *otherManager) SecureInput() *SecureInputHolder         { return nil }

func (m *otherManager) Available() (bool, string) {
	return false, "foreground introspection not available on " + runtime.GOOS
}

var _ Manager = (*otherManager)(nil)

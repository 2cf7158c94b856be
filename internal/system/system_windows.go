//go:build windows

// Package system Windows manager implementation.
//
// The foreground window comes from user32, the owning process from
// QueryFullProcessImageName. The window class here is the executable base
// name, which is the stable identifier Windows offers for rule matching.
//
// Windows has no secure-input lock equivalent to macOS's, so the secure
// input query always reports no holder.
package system

import (
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
)

// windowTitleBufferSize bounds the UTF-16 title buffer. Window titles are
// not paths; 512 characters covers anything a rule would match on.
const windowTitleBufferSize = 512

// windowsManager implements Manager over the user32/kernel32 APIs.
type windowsManager struct{}

// newPlatformManager creates the Windows-specific manager.
func newPlatformManager() Manager {
	return &windowsManager{}
}

// CurrentWindowClass returns the foreground executable's base name.
func (m *windowsManager) CurrentWindowClass() (string, bool) {
	path, ok := m.CurrentWindowExecutable()
	if !ok {
		return "", false
	}
	return filepath.Base(path), true
}

// CurrentWindowTitle returns the foreground window's title text.
func (m *windowsManager) CurrentWindowTitle() (string, bool) {
	hwnd, ok := foregroundWindow()
	if !ok {
		return "", false
	}

	buf := make([]uint16, windowTitleBufferSize)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", false
	}
	return windows.UTF16ToString(buf[:n]), true
}

// CurrentWindowExecutable returns the full image path of the process
// owning the foreground window.
func (m *windowsManager) CurrentWindowExecutable() (string, bool) {
	hwnd, ok := foregroundWindow()
	if !ok {
		return "", false
	}

	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", false
	}

	return imagePathForPID(pid)
}

// SecureInput always reports no holder on Windows.
func (m *windowsManager) SecureInput() *SecureInputHolder {
	return nil
}

// Available reports introspection availability.
func (m *windowsManager) Available() (bool, string) {
	return true, "user32 foreground-window queries available"
}

// foregroundWindow returns the handle of the window the user is working
// in, absent when no window has focus (e.g. a locked session).
func foregroundWindow() (uintptr, bool) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, false
	}
	return hwnd, true
}

// imagePathForPID resolves a process ID to its executable image path.
func imagePathForPID(pid uint32) (string, bool) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", false
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, pathBufferSize)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil || size == 0 {
		return "", false
	}
	return windows.UTF16ToString(buf[:size]), true
}

var _ Manager = (*windowsManager)(nil)

//go:build linux

// Package system Linux manager implementation.
//
// X11 sessions are served through the EWMH properties of the active window
// (_NET_ACTIVE_WINDOW, WM_CLASS, _NET_WM_NAME, _NET_WM_PID). Under
// GNOME on Wayland the org.gnome.Shell.Introspect D-Bus interface provides
// the same facts. Executable paths come from /proc/<pid>/exe.
//
// Linux has no secure-input lock equivalent to macOS's, so the secure
// input query always reports no holder.
package system

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/godbus/dbus/v5"
)

// linuxManager implements Manager for X11 and GNOME Wayland sessions.
// Connections are established lazily on first use and kept for the life
// of the manager; individual queries stay independent and stateless.
type linuxManager struct {
	mu          sync.Mutex
	displayType string
	xu          *xgbutil.XUtil
	bus         *dbus.Conn
}

// newPlatformManager creates the Linux-specific manager.
func newPlatformManager() Manager {
	return &linuxManager{displayType: detectDisplay()}
}

// detectDisplay determines the display server type from the environment.
func detectDisplay() string {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if os.Getenv("DISPLAY") != "" {
			return "x11" // XWayland
		}
		return "wayland"
	}
	if os.Getenv("DISPLAY") != "" {
		return "x11"
	}
	return "unknown"
}

// CurrentWindowClass returns the active window's WM_CLASS (X11) or
// wm-class (Wayland).
func (m *linuxManager) CurrentWindowClass() (string, bool) {
	switch m.displayType {
	case "x11":
		xu, win, ok := m.activeX11Window()
		if !ok {
			return "", false
		}
		class, err := icccm.WmClassGet(xu, win)
		if err != nil || class == nil || class.Class == "" {
			return "", false
		}
		return class.Class, true
	case "wayland":
		w, ok := m.focusedWaylandWindow()
		if !ok || w.class == "" {
			return "", false
		}
		return w.class, true
	}
	return "", false
}

// CurrentWindowTitle returns the active window's title.
func (m *linuxManager) CurrentWindowTitle() (string, bool) {
	switch m.displayType {
	case "x11":
		xu, win, ok := m.activeX11Window()
		if !ok {
			return "", false
		}
		name, err := ewmh.WmNameGet(xu, win)
		if err != nil || name == "" {
			// Older clients only set the ICCCM property.
			name, err = icccm.WmNameGet(xu, win)
			if err != nil || name == "" {
				return "", false
			}
		}
		return name, true
	case "wayland":
		w, ok := m.focusedWaylandWindow()
		if !ok || w.title == "" {
			return "", false
		}
		return w.title, true
	}
	return "", false
}

// CurrentWindowExecutable resolves the active window's owning process to
// its executable path via /proc.
func (m *linuxManager) CurrentWindowExecutable() (string, bool) {
	pid, ok := m.activeWindowPID()
	if !ok {
		return "", false
	}
	return procExePath(pid)
}

// SecureInput always reports no holder: Linux offers no exclusive
// keyboard-capture lock for this to observe.
func (m *linuxManager) SecureInput() *SecureInputHolder {
	return nil
}

// Available reports introspection availability for the detected display
// server.
func (m *linuxManager) Available() (bool, string) {
	switch m.displayType {
	case "x11":
		return true, "X11 EWMH active-window queries available"
	case "wayland":
		return true, "GNOME Shell introspection over D-Bus available"
	}
	return false, "no X11 or Wayland display detected"
}

// activeWindowPID returns the PID owning the active window.
func (m *linuxManager) activeWindowPID() (int64, bool) {
	switch m.displayType {
	case "x11":
		xu, win, ok := m.activeX11Window()
		if !ok {
			return unknownPID, false
		}
		pid, err := ewmh.WmPidGet(xu, win)
		if err != nil || pid == 0 {
			return unknownPID, false
		}
		return int64(pid), true
	case "wayland":
		w, ok := m.focusedWaylandWindow()
		if !ok || w.pid <= 0 {
			return unknownPID, false
		}
		return w.pid, true
	}
	return unknownPID, false
}

// activeX11Window returns the X connection and the active window ID.
func (m *linuxManager) activeX11Window() (*xgbutil.XUtil, xproto.Window, bool) {
	xu, err := m.connX11()
	if err != nil {
		return nil, 0, false
	}
	win, err := ewmh.ActiveWindowGet(xu)
	if err != nil || win == 0 {
		return nil, 0, false
	}
	return xu, win, true
}

// connX11 returns the shared X connection, dialing it on first use.
func (m *linuxManager) connX11() (*xgbutil.XUtil, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.xu != nil {
		return m.xu, nil
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	m.xu = xu
	return xu, nil
}

// connBus returns the shared session bus connection, dialing it on first
// use.
func (m *linuxManager) connBus() (*dbus.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bus != nil {
		return m.bus, nil
	}
	bus, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	m.bus = bus
	return bus, nil
}

// waylandWindow holds the facts GNOME Shell introspection exposes about a
// window.
type waylandWindow struct {
	class string
	title string
	pid   int64
}

// focusedWaylandWindow queries org.gnome.Shell.Introspect for the window
// that currently has focus.
func (m *linuxManager) focusedWaylandWindow() (waylandWindow, bool) {
	bus, err := m.connBus()
	if err != nil {
		return waylandWindow{}, false
	}

	obj := bus.Object("org.gnome.Shell", "/org/gnome/Shell/Introspect")
	var windows map[uint64]map[string]dbus.Variant
	call := obj.Call("org.gnome.Shell.Introspect.GetWindows", 0)
	if call.Err != nil || call.Store(&windows) != nil {
		return waylandWindow{}, false
	}

	for _, props := range windows {
		focused, _ := props["has-focus"].Value().(bool)
		if !focused {
			continue
		}
		var w waylandWindow
		w.class, _ = props["wm-class"].Value().(string)
		w.title, _ = props["title"].Value().(string)
		if pid, ok := props["pid"].Value().(uint32); ok {
			w.pid = int64(pid)
		}
		return w, true
	}

	return waylandWindow{}, false
}

// procExePath resolves a PID to its executable path through the proc
// filesystem.
func procExePath(pid int64) (string, bool) {
	path, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

var _ Manager = (*linuxManager)(nil)

// Package system provides platform-abstracted introspection of the
// operating system's foreground application.
//
// It answers two questions for the expansion engine:
//
//  1. Which application owns the active window right now?
//  2. Is any process holding the secure-input lock that would make
//     keystroke synthesis unreliable?
//
// Every query is synchronous and independent: nothing is cached between
// calls, and every failure mode collapses to an absent value rather than
// an error, because the expansion loop must keep running even when window
// introspection is transiently unavailable. Callers that need freshness
// are expected to poll (see internal/monitor).
package system

// WindowIdentity describes the foreground application at the moment of a
// query. It has no identity beyond the call that produced it.
type WindowIdentity struct {
	// Class is the application's stable identifier: the bundle identifier
	// on macOS, the WM_CLASS on X11, the executable base name on Windows.
	Class string

	// Title is the active window's title. On macOS this is the same value
	// as Class, since no separate title lookup exists through the bridge.
	Title string

	// Executable is the on-disk path of the owning application.
	Executable string
}

// SecureInputHolder identifies the application currently monopolizing
// secure keyboard input. Derived transiently from its PID; a new query may
// return a different holder or none.
type SecureInputHolder struct {
	// App is a human-readable display name, derived from the executable
	// path via the bundle-name heuristic, or the path itself when no
	// bundle segment is present.
	App string

	// Path is the trimmed executable path of the holder.
	Path string
}

// unknownPID is the sentinel for an absent or unknown process ID. It must
// never be treated as a valid PID.
const unknownPID int64 = -1

// Manager is the per-platform capability set for foreground introspection.
// All queries degrade to absence instead of returning errors.
type Manager interface {
	// CurrentWindowClass returns the foreground application's stable
	// identifier, or false when no app is foreground or the query fails.
	CurrentWindowClass() (string, bool)

	// CurrentWindowTitle returns the active window's title. Platforms
	// without a title lookup return the class identifier instead; the
	// contract only guarantees a string suitable for rule matching.
	CurrentWindowTitle() (string, bool)

	// CurrentWindowExecutable returns the foreground application's
	// on-disk bundle or executable path.
	CurrentWindowExecutable() (string, bool)

	// SecureInput reports the application holding the secure-input lock,
	// or nil when no process holds it (or the platform has no such
	// concept).
	SecureInput() *SecureInputHolder

	// Available reports whether foreground introspection works on this
	// platform, with a short description of the status.
	Available() (bool, string)
}

// NewManager returns the Manager variant for the build target.
func NewManager() Manager {
	return newPlatformManager()
}

// CurrentIdentity captures the foreground window as a single identity.
// Absent when the class query is absent; title and executable are filled
// on a best-effort basis.
func CurrentIdentity(m Manager) (WindowIdentity, bool) {
	class, ok := m.CurrentWindowClass()
	if !ok {
		return WindowIdentity{}, false
	}

	id := WindowIdentity{Class: class}
	if title, ok := m.CurrentWindowTitle(); ok {
		id.Title = title
	}
	if exec, ok := m.CurrentWindowExecutable(); ok {
		id.Executable = exec
	}

	return id, true
}

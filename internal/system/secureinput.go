package system

import "strings"

// pidResolver resolves a process ID to its executable path. The darwin
// variant backs this with the path_for_pid bridge call; tests substitute
// their own.
type pidResolver func(pid int64) (string, bool)

// resolveSecureInput turns the PID holding secure input into a holder
// record. The holder is only constructed when the PID resolves to a
// non-empty trimmed path; everything else is "no holder". The display
// name comes from the bundle-name heuristic, with the path itself as the
// fallback.
func resolveSecureInput(pid int64, resolve pidResolver) *SecureInputHolder {
	if pid <= 0 {
		return nil
	}

	path, ok := resolve(pid)
	if !ok {
		return nil
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	name, ok := AppNameFromPath(path)
	if !ok {
		name = path
	}

	return &SecureInputHolder{App: name, Path: path}
}

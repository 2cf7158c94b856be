package system

import "regexp"

// bundleNamePattern matches the innermost application or service bundle
// directory on a path: a segment bounded by path separators whose name
// carries a .app or .bundle suffix. Compiled once, read-only thereafter.
var bundleNamePattern = regexp.MustCompile(`/([^/]+)\.(app|bundle)/`)

// AppNameFromPath extracts the display name of the application bundle an
// executable path lives in, e.g. "/Applications/iTerm.app/Contents/MacOS/iTerm2"
// yields "iTerm". When the path contains several bundle segments the first
// one scanning left to right wins, which matches the common case of an
// outer .app bundle containing a helper executable. Paths outside any
// bundle yield no name.
func AppNameFromPath(path string) (string, bool) {
	caps := bundleNamePattern.FindStringSubmatch(path)
	if caps == nil {
		return "", false
	}
	return caps[1], true
}

// Package store provides SQLite-based recording of foreground-window
// transitions and secure-input episodes.
package store

import "time"

// Transition records the foreground window observed at a point in time.
type Transition struct {
	ID         int64
	At         time.Time
	Class      string
	Executable string
	Title      string
}

// Episode records an interval during which a process held the
// secure-input lock. EndAt is nil while the episode is still open.
type Episode struct {
	ID      int64
	StartAt time.Time
	EndAt   *time.Time
	App     string
	Path    string
}

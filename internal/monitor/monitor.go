// Package monitor polls the foreground window and the secure-input lock
// and turns the results into change events.
//
// The system package performs one stateless query per call; this package
// owns the freshness semantics on top of it: polling intervals, change
// detection, debouncing, and the ignore list. Consumers receive events on
// a buffered channel and may also snapshot the latest state at any time.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"expandd/internal/system"
)

// Monitor lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("monitor already running")
	ErrNotRunning     = errors.New("monitor not running")
)

// Event describes a change in the foreground window or the secure-input
// lock.
type Event struct {
	// Window is the foreground window at the time of the event. Zero
	// when no window query has succeeded yet, which can happen if a
	// secure-input change is observed before the first window poll.
	Window system.WindowIdentity

	// SecureInput is the current secure-input holder, nil when none.
	SecureInput *system.SecureInputHolder

	// Timestamp is when the event was captured.
	Timestamp time.Time
}

// Config controls polling and filtering behavior.
type Config struct {
	// PollInterval is how often the foreground window is queried.
	PollInterval time.Duration

	// DebounceInterval is the minimum time between emitted events.
	DebounceInterval time.Duration

	// SecureInputPollInterval is how often the secure-input lock is
	// queried. Secure input changes bypass the debounce: the expansion
	// engine must react to the lock immediately.
	SecureInputPollInterval time.Duration

	// IgnoredApplications lists window classes that never produce
	// events.
	IgnoredApplications []string
}

// DefaultConfig returns default monitor configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:            100 * time.Millisecond,
		DebounceInterval:        200 * time.Millisecond,
		SecureInputPollInterval: time.Second,
	}
}

// Monitor polls a system.Manager and emits change events.
type Monitor struct {
	manager system.Manager
	config  Config
	logger  *slog.Logger

	mu         sync.RWMutex
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
	events     chan Event
	lastWindow *system.WindowIdentity
	holder     *system.SecureInputHolder
	lastEmit   time.Time
}

// New creates a monitor over the given manager.
func New(manager system.Manager, config Config) *Monitor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.SecureInputPollInterval <= 0 {
		config.SecureInputPollInterval = DefaultConfig().SecureInputPollInterval
	}
	return &Monitor{
		manager: manager,
		config:  config,
		logger:  slog.Default().With("component", "monitor"),
		events:  make(chan Event, 50),
	}
}

// Start begins polling.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	go m.pollLoop()

	m.logger.Info("monitor started",
		"poll_interval", m.config.PollInterval,
		"secure_input_poll_interval", m.config.SecureInputPollInterval,
	)

	return nil
}

// Stop stops polling and closes the event channel.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return ErrNotRunning
	}

	m.running = false
	m.cancel()
	close(m.events)
	m.logger.Info("monitor stopped")

	return nil
}

// Events returns the channel of change events. The channel is closed
// when the monitor stops.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Current returns the most recent snapshot, nil before the first
// successful poll.
func (m *Monitor) Current() *Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastWindow == nil {
		return nil
	}
	return &Event{
		Window:      *m.lastWindow,
		SecureInput: m.holder,
	}
}

// pollLoop runs the window and secure-input polls until the context is
// canceled.
func (m *Monitor) pollLoop() {
	windowTicker := time.NewTicker(m.config.PollInterval)
	defer windowTicker.Stop()
	secureTicker := time.NewTicker(m.config.SecureInputPollInterval)
	defer secureTicker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-windowTicker.C:
			m.checkWindow()
		case <-secureTicker.C:
			m.checkSecureInput()
		}
	}
}

// checkWindow queries the foreground window and emits an event on change.
func (m *Monitor) checkWindow() {
	win, ok := system.CurrentIdentity(m.manager)
	if !ok {
		return
	}
	if m.ignored(win.Class) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.shouldEmitLocked(win) {
		return
	}

	copied := win
	m.lastWindow = &copied
	m.lastEmit = time.Now()
	m.emitLocked()
}

// checkSecureInput queries the lock holder and emits on acquisition or
// release, bypassing the debounce.
func (m *Monitor) checkSecureInput() {
	holder := m.manager.SecureInput()

	m.mu.Lock()
	defer m.mu.Unlock()

	if sameHolder(m.holder, holder) {
		return
	}

	switch {
	case holder != nil:
		m.logger.Warn("secure input acquired", "app", holder.App, "path", holder.Path)
	case m.holder != nil:
		m.logger.Info("secure input released", "app", m.holder.App)
	}

	m.holder = holder
	m.emitLocked()
}

// shouldEmitLocked applies the debounce and change check. Callers hold
// the mutex.
func (m *Monitor) shouldEmitLocked(win system.WindowIdentity) bool {
	if time.Since(m.lastEmit) < m.config.DebounceInterval {
		return false
	}
	if m.lastWindow != nil && *m.lastWindow == win {
		return false
	}
	return true
}

// emitLocked sends the current state without blocking. Callers hold the
// mutex. Dropped events are acceptable: the next poll resynchronizes.
func (m *Monitor) emitLocked() {
	if !m.running {
		return
	}

	event := Event{
		SecureInput: m.holder,
		Timestamp:   time.Now(),
	}
	if m.lastWindow != nil {
		event.Window = *m.lastWindow
	}

	select {
	case m.events <- event:
	default:
	}
}

// ignored reports whether a window class is on the ignore list.
func (m *Monitor) ignored(class string) bool {
	for _, app := range m.config.IgnoredApplications {
		if app == class {
			return true
		}
	}
	return false
}

// sameHolder compares two holder snapshots.
func sameHolder(a, b *system.SecureInputHolder) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

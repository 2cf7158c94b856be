package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"expandd/internal/system"
)

// fakeManager is a scriptable system.Manager.
type fakeManager struct {
	mu     sync.Mutex
	class  string
	title  string
	exec   string
	absent bool
	holder *system.SecureInputHolder
}

func (f *fakeManager) set(class, title, exec string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.class, f.title, f.exec = class, title, exec
}

func (f *fakeManager) setHolder(h *system.SecureInputHolder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holder = h
}

func (f *fakeManager) CurrentWindowClass() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.absent || f.class == "" {
		return "", false
	}
	return f.class, true
}

func (f *fakeManager) CurrentWindowTitle() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, f.title != ""
}

func (f *fakeManager) CurrentWindowExecutable() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exec, f.exec != ""
}

func (f *fakeManager) SecureInput() *system.SecureInputHolder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holder
}

func (f *fakeManager) Available() (bool, string) { return true, "fake" }

func testConfig() Config {
	return Config{
		PollInterval:            5 * time.Millisecond,
		DebounceInterval:        time.Millisecond,
		SecureInputPollInterval: 5 * time.Millisecond,
	}
}

func waitForEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-events:
		if !ok {
			t.Fatal("event channel closed unexpectedly")
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMonitorEmitsWindowChange(t *testing.T) {
	fake := &fakeManager{}
	fake.set("com.apple.Terminal", "Terminal", "/Applications/Terminal.app")

	m := New(fake, testConfig())
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	event := waitForEvent(t, m.Events())
	if event.Window.Class != "com.apple.Terminal" {
		t.Errorf("unexpected class %q", event.Window.Class)
	}
	if event.SecureInput != nil {
		t.Errorf("unexpected secure input holder %+v", event.SecureInput)
	}

	fake.set("org.mozilla.firefox", "Firefox", "/usr/bin/firefox")
	event = waitForEvent(t, m.Events())
	if event.Window.Class != "org.mozilla.firefox" {
		t.Errorf("unexpected class %q after change", event.Window.Class)
	}
}

func TestMonitorIgnoresListedApplications(t *testing.T) {
	fake := &fakeManager{}
	fake.set("com.apple.Spotlight", "Spotlight", "")

	cfg := testConfig()
	cfg.IgnoredApplications = []string{"com.apple.Spotlight"}

	m := New(fake, cfg)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	select {
	case event := <-m.Events():
		t.Errorf("unexpected event for ignored application: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitorNoEventWithoutChange(t *testing.T) {
	fake := &fakeManager{}
	fake.set("com.apple.Terminal", "Terminal", "")

	m := New(fake, testConfig())
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	waitForEvent(t, m.Events())

	// Unchanged state must stay quiet.
	select {
	case event := <-m.Events():
		t.Errorf("unexpected duplicate event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitorSecureInputTransitions(t *testing.T) {
	fake := &fakeManager{}
	fake.set("com.apple.Terminal", "Terminal", "")

	m := New(fake, testConfig())
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	waitForEvent(t, m.Events())

	holder := &system.SecureInputHolder{App: "loginwindow", Path: "/System/Library/CoreServices/loginwindow.app/Contents/MacOS/loginwindow"}
	fake.setHolder(holder)

	event := waitForEvent(t, m.Events())
	if event.SecureInput == nil || event.SecureInput.App != "loginwindow" {
		t.Fatalf("expected secure input acquisition, got %+v", event.SecureInput)
	}

	fake.setHolder(nil)
	event = waitForEvent(t, m.Events())
	if event.SecureInput != nil {
		t.Errorf("expected secure input release, got %+v", event.SecureInput)
	}
}

func TestMonitorSecureInputBeforeFirstWindow(t *testing.T) {
	// No window is ever foreground, but the lock is taken: the
	// acquisition must still be reported, with a zero window.
	fake := &fakeManager{}
	fake.setHolder(&system.SecureInputHolder{App: "SecurityAgent", Path: "/x/SecurityAgent"})

	m := New(fake, testConfig())
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	event := waitForEvent(t, m.Events())
	if event.SecureInput == nil || event.SecureInput.App != "SecurityAgent" {
		t.Fatalf("expected secure input acquisition, got %+v", event.SecureInput)
	}
	if event.Window.Class != "" {
		t.Errorf("expected zero window before first poll, got %+v", event.Window)
	}
}

func TestMonitorCurrent(t *testing.T) {
	fake := &fakeManager{}
	fake.set("com.apple.Terminal", "Terminal", "")

	m := New(fake, testConfig())

	if m.Current() != nil {
		t.Error("expected nil snapshot before start")
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	waitForEvent(t, m.Events())

	current := m.Current()
	if current == nil || current.Window.Class != "com.apple.Terminal" {
		t.Errorf("unexpected snapshot %+v", current)
	}
}

func TestMonitorLifecycle(t *testing.T) {
	fake := &fakeManager{}
	m := New(fake, testConfig())

	if err := m.Stop(); err != ErrNotRunning {
		t.Errorf("Stop before Start = %v, want ErrNotRunning", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(context.Background()); err != ErrAlreadyRunning {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if err := m.Stop(); err != nil {
		t.Errorf("stop: %v", err)
	}
}

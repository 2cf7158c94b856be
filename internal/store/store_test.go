package store

import (
	"path/filepath"
	"testing"
	"time"

	"expandd/internal/system"
)

func TestOpenAndClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}

func TestRecordAndListTransitions(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	base := time.Now()
	wins := []system.WindowIdentity{
		{Class: "iTerm", Title: "shell", Executable: "/Applications/iTerm.app/Contents/MacOS/iTerm2"},
		{Class: "Safari", Title: "docs", Executable: "/Applications/Safari.app/Contents/MacOS/Safari"},
		{Class: "Code", Title: "main.go", Executable: "/usr/local/bin/code"},
	}
	for i, w := range wins {
		id, err := s.RecordTransition(base.Add(time.Duration(i)*time.Second), w)
		if err != nil {
			t.Fatalf("RecordTransition failed: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero transition id")
		}
	}

	got, err := s.RecentTransitions(2)
	if err != nil {
		t.Fatalf("RecentTransitions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(got))
	}
	// Newest first
	if got[0].Class != "Code" {
		t.Errorf("expected newest transition Code, got %q", got[0].Class)
	}
	if got[1].Class != "Safari" {
		t.Errorf("expected second transition Safari, got %q", got[1].Class)
	}
	if got[0].Title != "main.go" {
		t.Errorf("title mismatch: %q", got[0].Title)
	}
}

func TestEpisodeLifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	holder := system.SecureInputHolder{
		App:  "SecurityAgent",
		Path: "/System/Library/CoreServices/SecurityAgent.bundle/Contents/MacOS/SecurityAgent",
	}

	start := time.Now()
	id, err := s.BeginEpisode(start, holder)
	if err != nil {
		t.Fatalf("BeginEpisode failed: %v", err)
	}

	eps, err := s.RecentEpisodes(10)
	if err != nil {
		t.Fatalf("RecentEpisodes failed: %v", err)
	}
	if len(eps) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(eps))
	}
	if eps[0].EndAt != nil {
		t.Error("episode should still be open")
	}
	if eps[0].App != "SecurityAgent" {
		t.Errorf("app mismatch: %q", eps[0].App)
	}

	end := start.Add(3 * time.Second)
	if err := s.EndEpisode(id, end); err != nil {
		t.Fatalf("EndEpisode failed: %v", err)
	}

	eps, err = s.RecentEpisodes(10)
	if err != nil {
		t.Fatalf("RecentEpisodes failed: %v", err)
	}
	if eps[0].EndAt == nil {
		t.Fatal("episode should be closed")
	}
	if !eps[0].EndAt.Equal(end) {
		t.Errorf("end time mismatch: got %v want %v", eps[0].EndAt, end)
	}
}

func TestEndEpisodeTwice(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	id, err := s.BeginEpisode(time.Now(), system.SecureInputHolder{App: "loginwindow", Path: "/x"})
	if err != nil {
		t.Fatalf("BeginEpisode failed: %v", err)
	}
	if err := s.EndEpisode(id, time.Now()); err != nil {
		t.Fatalf("EndEpisode failed: %v", err)
	}
	if err := s.EndEpisode(id, time.Now()); err == nil {
		t.Error("expected error ending an already closed episode")
	}
}

func TestPrune(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := Open(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	if _, err := s.RecordTransition(old, system.WindowIdentity{Class: "old"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordTransition(recent, system.WindowIdentity{Class: "recent"}); err != nil {
		t.Fatal(err)
	}

	oldID, err := s.BeginEpisode(old, system.SecureInputHolder{App: "old", Path: "/x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EndEpisode(oldID, old.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	// Open episode must survive pruning regardless of age.
	if _, err := s.BeginEpisode(old, system.SecureInputHolder{App: "stuck", Path: "/y"}); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 rows pruned, got %d", deleted)
	}

	trs, err := s.RecentTransitions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 1 || trs[0].Class != "recent" {
		t.Errorf("unexpected surviving transitions: %+v", trs)
	}

	eps, err := s.RecentEpisodes(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 1 || eps[0].App != "stuck" {
		t.Errorf("unexpected surviving episodes: %+v", eps)
	}
}

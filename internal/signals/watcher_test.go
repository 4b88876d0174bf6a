package signals

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_KillCancelsContext(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if w.ShouldStop() {
		t.Fatal("fresh watcher should not be stopped")
	}

	ctx, cancel := w.WithKill(context.Background())
	defer cancel()

	if err := w.SendKill(); err != nil {
		t.Fatalf("SendKill failed: %v", err)
	}

	// ShouldStop polls the file, so it sees the kill even without fsnotify.
	if !w.ShouldStop() {
		t.Error("ShouldStop should report the kill file")
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not canceled by the kill signal")
	}
}

func TestWatcher_Clear(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.SendKill(); err != nil {
		t.Fatalf("SendKill failed: %v", err)
	}
	if !w.ShouldStop() {
		t.Fatal("expected stop after SendKill")
	}

	w.Clear()
	if w.ShouldStop() {
		t.Error("ShouldStop should be false after Clear")
	}
	if _, err := os.Stat(filepath.Join(w.Dir(), "kill")); !os.IsNotExist(err) {
		t.Error("kill file should be removed")
	}

	select {
	case <-w.Killed():
		t.Error("Killed channel should be re-armed")
	default:
	}
}

func writeKillFile(t *testing.T, root string, mtime time.Time) string {
	t.Helper()
	dir := filepath.Join(root, ".goalie", "signals")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "kill")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWatcher_StaleKillFileRemoved(t *testing.T) {
	root := t.TempDir()
	path := writeKillFile(t, root, processStart.Add(-time.Hour))

	w, err := NewWatcher(root)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if w.ShouldStop() {
		t.Error("kill file from an earlier session should not stop this one")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale kill file should be removed")
	}
}

func TestWatcher_KillFileSinceStartCounts(t *testing.T) {
	root := t.TempDir()
	writeKillFile(t, root, processStart.Add(time.Minute))

	w, err := NewWatcher(root)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	select {
	case <-w.Killed():
	default:
		t.Error("kill file written after startup should count as a signal")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.Close()
	w.Close()
}

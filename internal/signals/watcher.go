// Package signals lets an operator stop a running goalie process by
// touching a file under .goalie/signals.
package signals

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const killFile = "kill"

// processStart separates kill files left by an earlier session from ones
// sent to this process.
var processStart = time.Now()

// Watcher observes the signals directory for a kill file.
type Watcher struct {
	signalsDir string

	mu     sync.Mutex
	killed bool
	killCh chan struct{}

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher creates <root>/.goalie/signals and starts watching it. If the
// platform watcher is unavailable, ShouldStop still works by polling the file.
func NewWatcher(root string) (*Watcher, error) {
	dir := filepath.Join(root, ".goalie", "signals")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w := &Watcher{
		signalsDir: dir,
		killCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}

	// A kill file written after this process started counts. Older ones are
	// left over from an earlier session.
	if info, err := os.Stat(filepath.Join(dir, killFile)); err == nil {
		if info.ModTime().Before(processStart) {
			log.Printf("[signals] removing stale kill file from %s", info.ModTime().Format(time.RFC3339))
			os.Remove(filepath.Join(dir, killFile))
		} else {
			w.markKilled()
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return w, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return w, nil
	}
	w.watcher = watcher

	go w.watch()
	return w, nil
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == killFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.markKilled()
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) markKilled() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.killed {
		w.killed = true
		close(w.killCh)
	}
}

func (w *Watcher) killFileExists() bool {
	_, err := os.Stat(filepath.Join(w.signalsDir, killFile))
	return err == nil
}

// ShouldStop reports whether a kill signal has been received.
func (w *Watcher) ShouldStop() bool {
	if w.killFileExists() {
		w.markKilled()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.killed
}

// Killed is closed when a kill signal is received. It is replaced by Clear.
func (w *Watcher) Killed() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.killCh
}

// SendKill creates the kill file.
func (w *Watcher) SendKill() error {
	path := filepath.Join(w.signalsDir, killFile)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the kill file and re-arms the watcher.
func (w *Watcher) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	os.Remove(filepath.Join(w.signalsDir, killFile))
	if w.killed {
		w.killed = false
		w.killCh = make(chan struct{})
	}
}

// WithKill returns a context that is canceled when a kill signal arrives.
func (w *Watcher) WithKill(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	killed := w.Killed()

	go func() {
		select {
		case <-killed:
			cancel()
		case <-ctx.Done():
		case <-w.done:
		}
	}()
	return ctx, cancel
}

// Dir returns the signals directory.
func (w *Watcher) Dir() string {
	return w.signalsDir
}

// Close stops watching.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

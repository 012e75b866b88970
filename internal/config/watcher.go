package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchTargets holds callbacks that fire when specific files change on
// disk. Used for hot-reload of the rule list and the project directory
// without restarting the mediator.
type WatchTargets struct {
	// OnRulesChange fires when the rules file is written or created.
	// Typically triggers rules.Engine.Reload() to pick up the new list.
	OnRulesChange func()

	// OnProjectsChange fires when a file inside the projects directory
	// is written, created, or removed — e.g. a project saved or deleted
	// from another process. Typically triggers a project list refresh.
	OnProjectsChange func()
}

// Watcher monitors the mediator's rules file and projects directory for
// changes using fsnotify, firing the appropriate callback when a change
// is detected.
//
// The watcher runs a background goroutine that processes fsnotify events.
// Call Close() to stop the watcher and release resources.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	rulesPath   string
	projectsDir string
	done        chan struct{}
}

// NewWatcher creates a file watcher covering rulesPath and every file
// inside projectsDir.
//
// The watcher immediately starts processing events in a background
// goroutine. Events are debounced naturally by fsnotify — rapid
// successive writes typically produce a single event.
func NewWatcher(rulesPath, projectsDir string, targets WatchTargets) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(rulesPath)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching rules directory for %s: %w", rulesPath, err)
	}
	if filepath.Dir(rulesPath) != projectsDir {
		if err := fw.Add(projectsDir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching projects directory %s: %w", projectsDir, err)
		}
	}

	w := &Watcher{
		fsWatcher:   fw,
		rulesPath:   filepath.Clean(rulesPath),
		projectsDir: filepath.Clean(projectsDir),
		done:        make(chan struct{}),
	}

	go w.processEvents(targets)

	slog.Info("file watcher started", "rules", rulesPath, "projects", projectsDir)
	return w, nil
}

// processEvents reads fsnotify events and dispatches to the appropriate
// callback. Runs in a background goroutine until Close() is called.
func (w *Watcher) processEvents(targets WatchTargets) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// We only care about write, create, remove, and rename
			// events — not chmod, which doesn't change file contents.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			path := filepath.Clean(event.Name)
			switch {
			case path == w.rulesPath:
				slog.Info("rules file changed, triggering reload")
				if targets.OnRulesChange != nil {
					targets.OnRulesChange()
				}
			case filepath.Dir(path) == w.projectsDir:
				slog.Info("projects directory changed", "file", filepath.Base(path))
				if targets.OnProjectsChange != nil {
					targets.OnProjectsChange()
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("file watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the file watcher goroutine and releases the underlying
// fsnotify watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		// Already closed.
		return nil
	default:
		close(w.done)
	}
	return w.fsWatcher.Close()
}

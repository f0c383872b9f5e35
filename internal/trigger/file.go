package trigger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSource issues one pulse per write to a trigger file. It lets an
// operator authorize from another terminal or a key binding that runs
// `samsite fire`.
type FileSource struct {
	path    string
	clock   *Clock
	watcher *fsnotify.Watcher
}

// OpenFileSource watches path, creating it and its directory if needed.
// The directory is watched so the file may be replaced.
func OpenFileSource(path string, clock *Clock) (*FileSource, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create trigger directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create trigger file: %w", err)
	}
	_ = f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	return &FileSource{path: path, clock: clock, watcher: watcher}, nil
}

// Next blocks until the trigger file is written or ctx ends. Writes that
// happened before the call are discarded.
func (s *FileSource) Next(ctx context.Context) (int64, error) {
	s.discard()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return 0, fmt.Errorf("trigger watcher closed")
			}
			if s.isPulse(ev) {
				return s.clock.Stamp(), nil
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return 0, fmt.Errorf("trigger watcher closed")
			}
			return 0, fmt.Errorf("trigger watcher: %w", err)
		}
	}
}

func (s *FileSource) isPulse(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != s.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

func (s *FileSource) discard() {
	for {
		select {
		case <-s.watcher.Events:
		default:
			return
		}
	}
}

// Path returns the watched trigger file.
func (s *FileSource) Path() string {
	return s.path
}

// Close stops watching.
func (s *FileSource) Close() error {
	return s.watcher.Close()
}

// Fire appends one pulse line to the trigger file at path.
func Fire(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create trigger directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open trigger file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, "fire %s\n", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to write trigger file: %w", err)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever a backing document is edited on disk,
// including by other processes. It watches the parent directories, so editors
// that save by rename are seen too. Watch blocks until ctx is cancelled or
// Close is called.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}

	targets := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, scope := range Scopes {
		path := s.paths[scope]
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if watchedDirs[dir] {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.logger.WithError(err).Warnf("Failed to create settings directory %s", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			s.logger.WithError(err).Warnf("Failed to watch settings directory %s", dir)
			continue
		}
		watchedDirs[dir] = true
		s.logger.Debugf("Watching settings directory: %s", dir)
	}

	if len(watchedDirs) == 0 {
		watcher.Close()
		return fmt.Errorf("no settings directory could be watched")
	}

	s.watchMu.Lock()
	if s.watcher != nil {
		s.watchMu.Unlock()
		watcher.Close()
		return fmt.Errorf("settings watcher already running")
	}
	s.watcher = watcher
	s.watchMu.Unlock()

	defer func() {
		s.watchMu.Lock()
		if s.watcher == watcher {
			s.watcher = nil
		}
		s.watchMu.Unlock()
		watcher.Close()
	}()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[event.Name] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			// Debounce bursts of writes into one reload.
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				s.logger.WithError(err).Warn("Settings reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Errorf("Watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops a running Watch.
func (s *FileStore) Close() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

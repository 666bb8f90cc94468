package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/streamer-mode/errors"
)

// FileStore is a Store backed by one settings document per scope on disk.
// Documents ending in .toml are read and written as TOML, everything else as YAML.
// Missing files read as empty documents and are created on first write.
type FileStore struct {
	mu     sync.RWMutex
	paths  map[Scope]string
	layers layers
	events emitter
	logger *logrus.Entry

	debounce time.Duration
	watchMu  sync.Mutex
	watcher  *fsnotify.Watcher
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used for load and watch diagnostics.
func WithLogger(logger *logrus.Entry) FileStoreOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// WithDebounce sets how long Watch waits for a burst of file events to settle.
func WithDebounce(d time.Duration) FileStoreOption {
	return func(s *FileStore) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// NewFileStore opens the documents at globalPath and workspacePath. Either
// path may be empty, in which case that scope is held in memory only.
func NewFileStore(globalPath, workspacePath string, opts ...FileStoreOption) (*FileStore, error) {
	s := &FileStore{
		paths: map[Scope]string{
			ScopeGlobal:    globalPath,
			ScopeWorkspace: workspacePath,
		},
		layers:   newLayers(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		s.logger = logger.WithField("component", "config")
	}

	for _, scope := range Scopes {
		doc, err := readDocument(s.paths[scope])
		if err != nil {
			return nil, err
		}
		s.layers.docs[scope] = doc
	}
	return s, nil
}

// Path returns the file backing scope, or "" for an in-memory scope.
func (s *FileStore) Path(scope Scope) string {
	return s.paths[scope]
}

// Get implements Store.
func (s *FileStore) Get(section, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers.get(section, key)
}

// Inspect implements Store.
func (s *FileStore) Inspect(section, key string) Inspection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers.inspect(section, key)
}

// Update implements Store. The document is written before the in-memory copy
// changes, so a failed write leaves the store at its last-known-good state.
func (s *FileStore) Update(ctx context.Context, section, key string, value any, scope Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !scope.Valid() {
		return errors.InvalidInput("scope", fmt.Sprintf("unknown settings scope %q", scope))
	}

	full := QualifiedKey(section, key)

	s.mu.Lock()
	before := s.layers.docs[scope]
	after := before.with(full, value)
	changed := changedKeys(before, after)
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}
	if path := s.paths[scope]; path != "" {
		if err := writeDocument(path, after); err != nil {
			s.mu.Unlock()
			return errors.ConfigWriteFailed(err, full, string(scope)).WithDetail("path", path)
		}
	}
	s.layers.docs[scope] = after
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"key": full, "scope": scope}).Debug("Setting updated")
	s.events.emit(ChangeEvent{Keys: changed})
	return nil
}

// OnDidChange implements Store.
func (s *FileStore) OnDidChange(listener func(ChangeEvent)) func() {
	return s.events.subscribe(listener)
}

// Reload re-reads every document from disk and notifies listeners of the keys
// that changed. A document that fails to parse keeps its previous contents.
func (s *FileStore) Reload() error {
	var firstErr error

	s.mu.Lock()
	var changed []string
	for _, scope := range Scopes {
		path := s.paths[scope]
		if path == "" {
			continue
		}
		doc, err := readDocument(path)
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to reload settings, keeping previous values")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		changed = append(changed, changedKeys(s.layers.docs[scope], doc)...)
		s.layers.docs[scope] = doc
	}
	s.mu.Unlock()

	if len(changed) > 0 {
		s.logger.WithField("keys", strings.Join(changed, ",")).Debug("Settings changed on disk")
	}
	s.events.emit(ChangeEvent{Keys: dedupe(changed)})
	return firstErr
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func readDocument(path string) (document, error) {
	if path == "" {
		return document{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read settings file").
			WithDetail("path", path)
	}

	raw := map[string]any{}
	if isTOML(path) {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse settings file").
			WithDetail("path", path)
	}

	doc, _ := normalize(raw).(map[string]any)
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func writeDocument(path string, doc document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(map[string]any(doc))
	} else {
		data, err = yaml.Marshal(map[string]any(doc))
	}
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Write through a temp file so a watcher never observes a half-written document.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

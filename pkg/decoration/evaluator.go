// Package decoration decides which files get the streamer mode badge.
package decoration

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/association"
	"github.com/grovetools/streamer-mode/pkg/pattern"
	"github.com/grovetools/streamer-mode/pkg/protection"
)

// Fixed badge contents.
const (
	Badge   = "S"
	Tooltip = "Hidden in Streamer Mode"
	Color   = "streamerMode.hiddenFile"
)

// Decoration is the badge attached to a protected path.
type Decoration struct {
	Badge     string `json:"badge"`
	Tooltip   string `json:"tooltip"`
	Color     string `json:"color"`
	Propagate bool   `json:"propagate"`
	// Pattern is the protected pattern that matched.
	Pattern string `json:"pattern"`
}

// Sink is told when previously returned decorations may be stale.
type Sink interface {
	DecorationsChanged()
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRoot sets the workspace root that absolute paths are made relative to.
func WithRoot(root string) Option {
	return func(e *Evaluator) {
		e.root = root
	}
}

// WithSink sets the Sink notified by Refresh.
func WithSink(sink Sink) Option {
	return func(e *Evaluator) {
		e.sink = sink
	}
}

// WithLogger sets the evaluator's logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// Evaluator matches paths against the protected patterns of the association
// map. The pattern set is cached and only replaced by Reload or Refresh.
type Evaluator struct {
	store  config.Store
	state  *protection.State
	root   string
	sink   Sink
	logger *logrus.Entry

	mu       sync.RWMutex
	patterns []string
}

// New returns an Evaluator with the current pattern set loaded.
func New(store config.Store, state *protection.State, opts ...Option) *Evaluator {
	e := &Evaluator{
		store: store,
		state: state,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	e.Reload()
	return e
}

// Reload replaces the cached pattern set with the protected patterns of the
// effective association map.
func (e *Evaluator) Reload() {
	m := config.GetStringMap(e.store, config.AssociationsSection, config.AssociationsKey)
	patterns := association.Protected(m, association.Marker)

	e.mu.Lock()
	e.patterns = patterns
	e.mu.Unlock()

	e.logger.WithField("count", len(patterns)).Debug("Loaded protected patterns")
}

// Refresh reloads the pattern set and tells the sink that decorations changed.
// changed lists the patterns that triggered the refresh and is only logged.
func (e *Evaluator) Refresh(changed []string) {
	e.Reload()
	if len(changed) > 0 {
		e.logger.WithField("patterns", changed).Debug("Refreshing decorations")
	}
	if e.sink != nil {
		e.sink.DecorationsChanged()
	}
}

// Patterns returns a copy of the cached pattern set.
func (e *Evaluator) Patterns() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.patterns...)
}

// Decorate returns the decoration for path, or false when the path is not
// protected, protection is off, or ctx is cancelled before a result is known.
func (e *Evaluator) Decorate(ctx context.Context, path string) (*Decoration, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	if !e.state.IsEnabled() {
		return nil, false
	}

	settings, err := config.LoadSettings(e.store)
	if err != nil {
		e.logger.WithError(err).Debug("Invalid decoration settings, using defaults")
	}
	dialect, err := pattern.ParseDialect(settings.Decoration.Dialect)
	if err != nil {
		dialect = pattern.DialectGlob
	}

	matched, ok := pattern.MatchAny(dialect, e.Relative(path), e.Patterns())
	if !ok || ctx.Err() != nil {
		return nil, false
	}
	return &Decoration{
		Badge:     Badge,
		Tooltip:   Tooltip,
		Color:     Color,
		Propagate: settings.Decoration.Propagate,
		Pattern:   matched,
	}, true
}

// Relative returns path relative to the workspace root, slash separated.
// Paths outside the root, and relative paths, are returned as given.
func (e *Evaluator) Relative(path string) string {
	if e.root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(e.root, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

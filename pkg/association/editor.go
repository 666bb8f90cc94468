package association

import (
	"context"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/errors"
)

// Entry is one protected pattern and the scope that holds it.
type Entry struct {
	Pattern string       `json:"pattern"`
	Scope   config.Scope `json:"scope"`
}

// Editor adds and removes protected patterns. Every edit starts from the
// target scope's own map, so entries that belong to other consumers and
// entries inherited from the other scope are left as they are.
type Editor struct {
	store  config.Store
	marker string
}

// NewEditor returns an Editor writing to store.
func NewEditor(store config.Store) *Editor {
	return &Editor{store: store, marker: Marker}
}

// List returns the protected patterns of every scope, global first, each
// scope sorted by pattern.
func (e *Editor) List() []Entry {
	in := e.store.Inspect(config.AssociationsSection, config.AssociationsKey)
	var entries []Entry
	for _, scope := range config.Scopes {
		v, _ := in.Value(scope)
		for _, p := range Protected(config.AsStringMap(v), e.marker) {
			entries = append(entries, Entry{Pattern: p, Scope: scope})
		}
	}
	return entries
}

// IsProtected reports whether scope's own map protects pattern.
func (e *Editor) IsProtected(pattern string, scope config.Scope) bool {
	return isMarker(e.scopeMap(scope)[pattern], e.marker)
}

// Add protects pattern in scope. Adding an already protected pattern writes
// nothing.
func (e *Editor) Add(ctx context.Context, pattern string, scope config.Scope) error {
	if pattern == "" {
		return errors.InvalidInput("pattern", "pattern must not be empty")
	}
	m := e.scopeMap(scope)
	if isMarker(m[pattern], e.marker) {
		return nil
	}
	m[pattern] = e.marker
	return e.write(ctx, m, scope)
}

// Remove unprotects pattern in scope. It reports whether the pattern was
// protected there. Entries that map pattern to another value are kept.
func (e *Editor) Remove(ctx context.Context, pattern string, scope config.Scope) (bool, error) {
	m := e.scopeMap(scope)
	if !isMarker(m[pattern], e.marker) {
		return false, nil
	}
	delete(m, pattern)
	if err := e.write(ctx, m, scope); err != nil {
		return false, err
	}
	return true, nil
}

// Toggle flips the protection of pattern in scope and returns the new state.
func (e *Editor) Toggle(ctx context.Context, pattern string, scope config.Scope) (bool, error) {
	if e.IsProtected(pattern, scope) {
		if _, err := e.Remove(ctx, pattern, scope); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := e.Add(ctx, pattern, scope); err != nil {
		return false, err
	}
	return true, nil
}

// Patterns returns the effective protected patterns across all scopes, sorted.
func (e *Editor) Patterns() []string {
	return Protected(config.GetStringMap(e.store, config.AssociationsSection, config.AssociationsKey), e.marker)
}

// scopeMap returns a copy of scope's own association map with every value
// kept, including ones that are not strings.
func (e *Editor) scopeMap(scope config.Scope) map[string]any {
	v, _ := e.store.Inspect(config.AssociationsSection, config.AssociationsKey).Value(scope)
	m, _ := v.(map[string]any)
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	return out
}

func (e *Editor) write(ctx context.Context, m map[string]any, scope config.Scope) error {
	var value any = m
	if len(m) == 0 {
		// Remove the key rather than leave an empty map behind.
		value = nil
	}
	err := e.store.Update(ctx, config.AssociationsSection, config.AssociationsKey, value, scope)
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	return errors.ConfigWriteFailed(err, config.QualifiedKey(config.AssociationsSection, config.AssociationsKey), string(scope))
}

func isMarker(v any, marker string) bool {
	s, ok := v.(string)
	return ok && s == marker
}

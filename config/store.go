// Package config is the settings layer shared by every streamer-mode component.
//
// Settings live in two scopes, global and workspace. Each scope holds one nested
// document; a key such as "streamer-mode.autoDetected.interval.active" addresses a
// path through it. Reads see the effective value: workspace overrides global, and
// map values are deep-merged so the effective map is the union of both scopes.
package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Scope selects which settings document a write targets.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeWorkspace Scope = "workspace"
)

// Scopes lists every scope in merge order, lowest precedence first.
var Scopes = []Scope{ScopeGlobal, ScopeWorkspace}

// Valid reports whether s names a known scope.
func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeWorkspace
}

// ParseScope converts user input such as "Workspace" into a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global", "user":
		return ScopeGlobal, nil
	case "workspace", "project":
		return ScopeWorkspace, nil
	default:
		return "", fmt.Errorf("unknown settings scope %q (want global or workspace)", s)
	}
}

// Inspection reports the value of one key in each scope separately.
type Inspection struct {
	Key          string
	Global       any
	HasGlobal    bool
	Workspace    any
	HasWorkspace bool
}

// Value returns the value stored at the given scope.
func (i Inspection) Value(scope Scope) (any, bool) {
	if scope == ScopeWorkspace {
		return i.Workspace, i.HasWorkspace
	}
	return i.Global, i.HasGlobal
}

// ChangeEvent describes a settings change. Keys are fully qualified
// ("section.key") and may point at a leaf or at a whole subtree.
type ChangeEvent struct {
	Keys []string
}

// AffectsConfiguration reports whether the change touches section, which may be
// a section name ("streamer-mode") or a qualified key ("streamer-mode.enabled").
func (e ChangeEvent) AffectsConfiguration(section string) bool {
	for _, key := range e.Keys {
		if key == section ||
			strings.HasPrefix(key, section+".") ||
			strings.HasPrefix(section, key+".") {
			return true
		}
	}
	return false
}

// Store is a scoped key-value settings store with change notifications.
//
// Get and Inspect return copies; mutating them never affects the store.
// Listeners run after the write has been applied, outside any store lock,
// in the order the changes were applied.
type Store interface {
	// Get returns the effective value. An empty key returns the whole section.
	Get(section, key string) (any, bool)
	// Inspect returns the per-scope values of a key.
	Inspect(section, key string) Inspection
	// Update writes value at scope. A nil value removes the key.
	Update(ctx context.Context, section, key string, value any, scope Scope) error
	// OnDidChange registers a listener and returns a function that removes it.
	OnDidChange(listener func(ChangeEvent)) (unsubscribe func())
}

// QualifiedKey joins a section and key the way change events report them.
func QualifiedKey(section, key string) string {
	switch {
	case section == "":
		return key
	case key == "":
		return section
	default:
		return section + "." + key
	}
}

// emitter fans change events out to registered listeners.
type emitter struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(ChangeEvent)
	order     []int
}

func (e *emitter) subscribe(listener func(ChangeEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[int]func(ChangeEvent))
	}
	id := e.next
	e.next++
	e.listeners[id] = listener
	e.order = append(e.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.listeners, id)
			for i, v := range e.order {
				if v == id {
					e.order = append(e.order[:i], e.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (e *emitter) emit(event ChangeEvent) {
	if len(event.Keys) == 0 {
		return
	}

	e.mu.Lock()
	listeners := make([]func(ChangeEvent), 0, len(e.order))
	for _, id := range e.order {
		listeners = append(listeners, e.listeners[id])
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

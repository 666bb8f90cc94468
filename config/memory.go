package config

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. Listeners are notified synchronously
// from Update. It is the store used by tests and by hosts that keep settings
// elsewhere and only need the change plumbing.
type MemoryStore struct {
	mu       sync.RWMutex
	layers   layers
	failWith error
	writes   int
	events   emitter
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layers: newLayers()}
}

// Get implements Store.
func (s *MemoryStore) Get(section, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers.get(section, key)
}

// Inspect implements Store.
func (s *MemoryStore) Inspect(section, key string) Inspection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers.inspect(section, key)
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, section, key string, value any, scope Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !scope.Valid() {
		return fmt.Errorf("unknown settings scope %q", scope)
	}

	s.mu.Lock()
	if s.failWith != nil {
		err := s.failWith
		s.mu.Unlock()
		return err
	}
	s.writes++
	full := QualifiedKey(section, key)
	before := s.layers.docs[scope]
	after := before.with(full, value)
	s.layers.docs[scope] = after
	changed := changedKeys(before, after)
	s.mu.Unlock()

	s.events.emit(ChangeEvent{Keys: changed})
	return nil
}

// OnDidChange implements Store.
func (s *MemoryStore) OnDidChange(listener func(ChangeEvent)) func() {
	return s.events.subscribe(listener)
}

// Replace swaps the whole document of a scope, as an external editor would,
// and notifies listeners of every changed key.
func (s *MemoryStore) Replace(scope Scope, doc map[string]any) {
	s.mu.Lock()
	before := s.layers.docs[scope]
	after, _ := normalize(doc).(map[string]any)
	if after == nil {
		after = map[string]any{}
	}
	s.layers.docs[scope] = after
	changed := changedKeys(before, after)
	s.mu.Unlock()

	s.events.emit(ChangeEvent{Keys: changed})
}

// FailWrites makes every subsequent Update return err. Pass nil to recover.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Writes returns the number of Update calls that reached the store.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

package association

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/config"
)

// Watcher reports changes to the protected subset of the association map.
// It keeps the last seen map as a rolling baseline so that edits to entries
// owned by other consumers never trigger a callback.
type Watcher struct {
	store    config.Store
	marker   string
	onChange func(changed []string)
	logger   *logrus.Entry

	mu       sync.Mutex
	baseline map[string]string
	cancel   func()
}

// NewWatcher snapshots the current association map and subscribes to store
// changes. onChange receives the sorted changed patterns and is only called
// when at least one protected pattern was added or removed.
func NewWatcher(store config.Store, logger *logrus.Entry, onChange func(changed []string)) *Watcher {
	w := &Watcher{
		store:    store,
		marker:   Marker,
		onChange: onChange,
		logger:   logger,
		baseline: current(store),
	}
	w.cancel = store.OnDidChange(w.handle)
	return w
}

func (w *Watcher) handle(e config.ChangeEvent) {
	if !e.AffectsConfiguration(config.QualifiedKey(config.AssociationsSection, config.AssociationsKey)) {
		return
	}

	w.mu.Lock()
	cur := current(w.store)
	changed := Diff(w.baseline, cur, w.marker)
	w.baseline = cur
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	keys := Keys(changed)
	if w.logger != nil {
		w.logger.WithField("patterns", keys).Debug("Protected associations changed")
	}
	w.onChange(keys)
}

// Close stops listening for changes.
func (w *Watcher) Close() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func current(store config.Store) map[string]string {
	return config.GetStringMap(store, config.AssociationsSection, config.AssociationsKey)
}

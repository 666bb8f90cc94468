// Package protection holds the persisted streamer-mode enabled flag.
package protection

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/errors"
)

// State reads and writes the enabled flag through a settings store. It keeps
// no copy of the value; every read goes to the store.
type State struct {
	store  config.Store
	logger *logrus.Entry
}

// New returns a State backed by store. logger may be nil.
func New(store config.Store, logger *logrus.Entry) *State {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &State{store: store, logger: logger}
}

// IsEnabled returns the effective flag, or true when it is unset.
func (s *State) IsEnabled() bool {
	return config.GetBool(s.store, config.Section, config.KeyEnabled, config.DefaultEnabled)
}

// SetEnabled writes value at scope. When value already is the effective
// flag nothing is written and no change is emitted.
func (s *State) SetEnabled(ctx context.Context, value bool, scope config.Scope) error {
	if value == s.IsEnabled() {
		return nil
	}
	if err := s.store.Update(ctx, config.Section, config.KeyEnabled, value, scope); err != nil {
		s.logger.WithError(err).WithField("scope", scope).Error("Failed to update streamer mode state")
		if errors.GetCode(err) != "" {
			return err
		}
		return errors.ConfigWriteFailed(err, config.QualifiedKey(config.Section, config.KeyEnabled), string(scope))
	}
	s.logger.WithFields(logrus.Fields{"enabled": value, "scope": scope}).Debug("Streamer mode state updated")
	return nil
}

// SourceScope returns the scope the effective flag comes from: workspace when
// it sets the flag, global otherwise. Writing there always changes the
// effective value.
func (s *State) SourceScope() config.Scope {
	if in := s.store.Inspect(config.Section, config.KeyEnabled); in.HasWorkspace {
		return config.ScopeWorkspace
	}
	return config.ScopeGlobal
}

// Toggle flips the flag at scope and returns the new value.
func (s *State) Toggle(ctx context.Context, scope config.Scope) (bool, error) {
	next := !s.IsEnabled()
	if err := s.SetEnabled(ctx, next, scope); err != nil {
		return !next, err
	}
	return next, nil
}

// OnDidChange calls listener with the new flag whenever it changes.
func (s *State) OnDidChange(listener func(enabled bool)) (unsubscribe func()) {
	key := config.QualifiedKey(config.Section, config.KeyEnabled)
	return s.store.OnDidChange(func(e config.ChangeEvent) {
		if e.AffectsConfiguration(key) {
			listener(s.IsEnabled())
		}
	})
}

// Package extension activates streamer mode against a settings store: it builds
// the protection state, decoration evaluator, auto-detect poller and association
// watcher, and connects their change notifications.
package extension

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/association"
	"github.com/grovetools/streamer-mode/pkg/autodetect"
	"github.com/grovetools/streamer-mode/pkg/decoration"
	"github.com/grovetools/streamer-mode/pkg/process"
	"github.com/grovetools/streamer-mode/pkg/protection"
	"github.com/grovetools/streamer-mode/schema"
)

// Status is what a status indicator shows.
type Status struct {
	Enabled    bool          `json:"enabled"`
	AutoDetect bool          `json:"autoDetect"`
	Interval   time.Duration `json:"interval"`
	Patterns   int           `json:"patterns"`
}

// Text renders the status the way the status bar item does.
func (s Status) Text() string {
	if s.Enabled {
		return "✓ Streamer Mode"
	}
	return "✗ Streamer Mode"
}

// Options configures Activate. The zero value uses the live process table and
// discards notices.
type Options struct {
	// Root is the workspace root that decorated paths are resolved against.
	Root string
	// Inspector enumerates running processes. Defaults to process.SystemInspector.
	Inspector process.Inspector
	// Notifier receives user-facing messages from the poller.
	Notifier autodetect.Notifier
	// Sink is told when decorations must be recomputed.
	Sink decoration.Sink
	// OnStatus is called at activation and whenever the status may have changed.
	OnStatus func(Status)
	// Logger defaults to the standard logger.
	Logger *logrus.Entry
	// Ticker replaces the poll ticker, mainly for tests.
	Ticker func(time.Duration) autodetect.Ticker
	// SkipInitialCheck leaves the first detection to the timer.
	SkipInitialCheck bool
}

// Extension is an activated streamer mode instance.
type Extension struct {
	store     config.Store
	logger    *logrus.Entry
	onStatus  func(Status)
	State     *protection.State
	Evaluator *decoration.Evaluator
	Poller    *autodetect.Poller
	Editor    *association.Editor
	watcher   *association.Watcher

	mu            sync.Mutex
	unsubscribers []func()
	disposed      bool
}

// Activate builds every component against store and starts polling. The
// settings are validated first; violations are logged and the defaults apply.
func Activate(ctx context.Context, store config.Store, opts Options) (*Extension, error) {
	if store == nil {
		return nil, fmt.Errorf("activate: settings store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	inspector := opts.Inspector
	if inspector == nil {
		inspector = process.SystemInspector{}
	}

	validateSettings(store, logger)

	state := protection.New(store, logger.WithField("component", "protection"))

	evalOpts := []decoration.Option{
		decoration.WithRoot(opts.Root),
		decoration.WithLogger(logger.WithField("component", "decoration")),
	}
	if opts.Sink != nil {
		evalOpts = append(evalOpts, decoration.WithSink(opts.Sink))
	}
	evaluator := decoration.New(store, state, evalOpts...)

	pollOpts := []autodetect.Option{
		autodetect.WithLogger(logger.WithField("component", "autodetect")),
	}
	if opts.Notifier != nil {
		pollOpts = append(pollOpts, autodetect.WithNotifier(opts.Notifier))
	}
	if opts.Ticker != nil {
		pollOpts = append(pollOpts, autodetect.WithTicker(opts.Ticker))
	}
	detector := process.NewDetector(inspector, logger.WithField("component", "process"))
	poller := autodetect.New(store, state, detector, pollOpts...)

	e := &Extension{
		store:     store,
		logger:    logger,
		onStatus:  opts.OnStatus,
		State:     state,
		Evaluator: evaluator,
		Poller:    poller,
		Editor:    association.NewEditor(store),
	}

	e.watcher = association.NewWatcher(store, logger.WithField("component", "association"), func(changed []string) {
		logger.WithField("patterns", changed).Debug("Protected associations changed")
		evaluator.Refresh(changed)
		e.publishStatus()
	})

	// The poller must restart before the status is read, so it subscribes first.
	poller.Watch()
	e.track(state.OnDidChange(func(bool) {
		evaluator.Refresh(nil)
	}))
	enabledKey := config.QualifiedKey(config.Section, config.KeyEnabled)
	autoKey := config.QualifiedKey(config.Section, config.KeyAutoDetected)
	e.track(store.OnDidChange(func(ev config.ChangeEvent) {
		if ev.AffectsConfiguration(enabledKey) || ev.AffectsConfiguration(autoKey) {
			e.publishStatus()
		}
	}))

	poller.Start()
	if !opts.SkipInitialCheck {
		outcome := poller.Check(ctx)
		logger.WithField("outcome", outcome.String()).Debug("Initial streaming app check")
	}
	e.publishStatus()

	logger.WithFields(logrus.Fields{
		"enabled":  state.IsEnabled(),
		"patterns": len(evaluator.Patterns()),
		"interval": poller.Interval(),
	}).Info("Streamer Mode activated")
	return e, nil
}

func validateSettings(store config.Store, logger *logrus.Entry) {
	validator, err := schema.NewValidator()
	if err != nil {
		logger.WithError(err).Warn("Settings schema unavailable, skipping validation")
		return
	}
	if err := validator.ValidateStore(store); err != nil {
		logger.WithError(err).Warn("Invalid streamer-mode settings, defaults apply where values are invalid")
	}
}

// Status returns the current status.
func (e *Extension) Status() Status {
	settings, _ := config.LoadSettings(e.store)
	return Status{
		Enabled:    e.State.IsEnabled(),
		AutoDetect: settings.AutoDetected.Enable,
		Interval:   e.Poller.Interval(),
		Patterns:   len(e.Evaluator.Patterns()),
	}
}

func (e *Extension) publishStatus() {
	if e.onStatus == nil {
		return
	}
	e.mu.Lock()
	disposed := e.disposed
	e.mu.Unlock()
	if disposed {
		return
	}
	e.onStatus(e.Status())
}

func (e *Extension) track(unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unsubscribers = append(e.unsubscribers, unsubscribe)
}

// Dispose stops polling and removes every subscription. It is safe to call
// more than once.
func (e *Extension) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	unsubscribers := e.unsubscribers
	e.unsubscribers = nil
	e.mu.Unlock()

	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}
	e.watcher.Close()
	e.Poller.Close()
	e.logger.Debug("Streamer Mode disposed")
}

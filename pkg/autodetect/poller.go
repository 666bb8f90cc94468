// Package autodetect toggles streamer mode when streaming applications start
// or stop.
package autodetect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/protection"
)

const (
	MessageEnabled  = "Streamer Mode enabled automatically (Streaming app detected)"
	MessageDisabled = "Streamer Mode disabled automatically (No streaming app detected)"
)

// Detector reports whether a streaming application is running. extra lists
// additional application names to look for.
type Detector interface {
	Detect(ctx context.Context, extra []string) (bool, error)
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(message string)
	NotifyError(message string)
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Outcome is the result of one Check.
type Outcome int

const (
	// Skipped means another check was already running.
	Skipped Outcome = iota
	// Off means automatic detection is turned off.
	Off
	// Unchanged means the state already matched what was detected.
	Unchanged
	// Enabled means protection was turned on.
	Enabled
	// Disabled means protection was turned off.
	Disabled
	// Failed means detection or the state update failed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Off:
		return "off"
	case Unchanged:
		return "unchanged"
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the poller's logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(p *Poller) {
		p.notifier = n
	}
}

// WithTicker replaces the ticker factory, mainly for tests.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(p *Poller) {
		p.newTicker = newTicker
	}
}

// Poller periodically checks for streaming applications and flips the
// protection state when the result disagrees with it. The interval depends
// on the state: interval.active while protection is on, interval.inactive
// while it is off.
type Poller struct {
	store     config.Store
	state     *protection.State
	detector  Detector
	notifier  Notifier
	logger    *logrus.Entry
	newTicker func(time.Duration) Ticker

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	stopCh      chan struct{}
	interval    time.Duration
	unsubscribe func()
	closed      bool
	wg          sync.WaitGroup

	checking atomic.Bool
}

// New returns a stopped Poller.
func New(store config.Store, state *protection.State, detector Detector, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		store:     store,
		state:     state,
		detector:  detector,
		newTicker: newTimeTicker,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return p
}

// Start stops any running timer and, when automatic detection is on, arms a
// new one at the interval matching the current state.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if p.closed {
		return
	}

	settings, err := config.LoadSettings(p.store)
	if err != nil {
		p.logger.WithError(err).Warn("Invalid auto-detect settings, using defaults")
	}
	if !settings.AutoDetected.Enable {
		p.logger.Debug("Auto-detect is off, polling stopped")
		return
	}

	seconds := settings.AutoDetected.Interval.Inactive
	if p.state.IsEnabled() {
		seconds = settings.AutoDetected.Interval.Active
	}
	interval := time.Duration(seconds) * time.Second

	ticker := p.newTicker(interval)
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.interval = interval

	p.wg.Add(1)
	go p.loop(ticker, stopCh)

	p.logger.WithField("interval", interval).Debug("Polling interval set")
}

func (p *Poller) loop(ticker Ticker, stopCh <-chan struct{}) {
	defer p.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			p.Check(p.ctx)
		case <-stopCh:
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// Stop cancels the timer. It is safe to call when already stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	p.interval = 0
}

// Interval returns the armed interval, or zero when stopped.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Running reports whether a timer is armed.
func (p *Poller) Running() bool {
	return p.Interval() > 0
}

// Check runs one detection. A Check that starts while another is running
// returns Skipped at once. Detection errors are logged and never returned.
func (p *Poller) Check(ctx context.Context) Outcome {
	if !p.checking.CompareAndSwap(false, true) {
		p.logger.Debug("Check already in progress, skipping")
		return Skipped
	}
	defer p.checking.Store(false)

	// Settings may have changed since the timer was armed.
	settings, err := config.LoadSettings(p.store)
	if err != nil {
		p.logger.WithError(err).Warn("Invalid auto-detect settings, using defaults")
	}
	if !settings.AutoDetected.Enable {
		return Off
	}

	detected, err := p.detector.Detect(ctx, settings.AutoDetected.AdditionalApps)
	if err != nil {
		p.logger.WithError(err).Error("Failed to check streaming apps")
		return Failed
	}

	enabled := p.state.IsEnabled()
	switch {
	case detected && !enabled:
		return p.flip(ctx, true)
	case !detected && enabled:
		return p.flip(ctx, false)
	default:
		return Unchanged
	}
}

func (p *Poller) flip(ctx context.Context, enable bool) Outcome {
	scope := p.state.SourceScope()
	if err := p.state.SetEnabled(ctx, enable, scope); err != nil {
		p.notifyError(fmt.Sprintf("Failed to update Streamer Mode: %v", err))
		return Failed
	}

	outcome, message := Disabled, MessageDisabled
	if enable {
		outcome, message = Enabled, MessageEnabled
	}
	p.logger.WithField("scope", scope).Info(message)
	if p.notifier != nil {
		p.notifier.Notify(message)
	}

	// The interval depends on the state that just changed.
	p.Start()
	return outcome
}

func (p *Poller) notifyError(message string) {
	if p.notifier != nil {
		p.notifier.NotifyError(message)
	}
}

// Watch restarts the poller whenever the enabled flag or any auto-detect
// setting changes, so new intervals apply without a restart.
func (p *Poller) Watch() {
	enabledKey := config.QualifiedKey(config.Section, config.KeyEnabled)
	autoKey := config.QualifiedKey(config.Section, config.KeyAutoDetected)

	unsubscribe := p.store.OnDidChange(func(e config.ChangeEvent) {
		if e.AffectsConfiguration(enabledKey) || e.AffectsConfiguration(autoKey) {
			p.Start()
		}
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.unsubscribe = unsubscribe
}

// Close stops the poller, drops its settings subscription and waits for the
// timer goroutine to exit. Checks already running see their context
// cancelled.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	p.stopLocked()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.cancel()
	p.wg.Wait()
}

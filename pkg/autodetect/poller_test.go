package autodetect

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/protection"
)

type fakeDetector struct {
	result  atomic.Bool
	err     error
	calls   atomic.Int32
	extra   []string
	release chan struct{}
	entered chan struct{}
}

func (d *fakeDetector) Detect(ctx context.Context, extra []string) (bool, error) {
	d.calls.Add(1)
	d.extra = extra
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.release != nil {
		<-d.release
	}
	return d.result.Load(), d.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
}

func (n *recordingNotifier) NotifyError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

func setup(t *testing.T, enabled, autoDetect bool) (*config.MemoryStore, *protection.State, *fakeDetector, *recordingNotifier, *tickerFactory, *Poller) {
	t.Helper()
	ctx := context.Background()
	store := config.NewMemoryStore()
	require.NoError(t, store.Update(ctx, config.Section, config.KeyEnabled, enabled, config.ScopeGlobal))
	require.NoError(t, store.Update(ctx, config.Section, config.KeyAutoDetectEnable, autoDetect, config.ScopeGlobal))

	state := protection.New(store, nil)
	detector := &fakeDetector{}
	notifier := &recordingNotifier{}
	tickers := &tickerFactory{}
	p := New(store, state, detector, WithNotifier(notifier), WithTicker(tickers.New))
	t.Cleanup(p.Close)
	return store, state, detector, notifier, tickers, p
}

func TestCheckEnablesWhenStreamingDetected(t *testing.T) {
	_, state, detector, notifier, _, p := setup(t, false, true)
	detector.result.Store(true)

	assert.Equal(t, Enabled, p.Check(context.Background()))
	assert.True(t, state.IsEnabled())
	assert.Equal(t, []string{MessageEnabled}, notifier.infos)
}

func TestCheckDisablesWhenNothingDetected(t *testing.T) {
	_, state, detector, notifier, _, p := setup(t, true, true)
	detector.result.Store(false)

	assert.Equal(t, Disabled, p.Check(context.Background()))
	assert.False(t, state.IsEnabled())
	assert.Equal(t, []string{MessageDisabled}, notifier.infos)
}

func TestCheckLeavesMatchingState(t *testing.T) {
	store, state, detector, notifier, _, p := setup(t, true, true)
	detector.result.Store(true)
	writes := store.Writes()

	assert.Equal(t, Unchanged, p.Check(context.Background()))
	assert.True(t, state.IsEnabled())
	assert.Equal(t, writes, store.Writes())
	assert.Empty(t, notifier.infos)
}

func TestCheckDoesNothingWhenAutoDetectOff(t *testing.T) {
	for _, detected := range []bool{true, false} {
		_, state, detector, _, _, p := setup(t, false, false)
		detector.result.Store(detected)

		assert.Equal(t, Off, p.Check(context.Background()))
		assert.False(t, state.IsEnabled())
		assert.Zero(t, detector.calls.Load())
	}
}

func TestAutoDetectOffSurvivesMalformedInterval(t *testing.T) {
	store, state, detector, notifier, tickers, p := setup(t, true, false)
	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyIntervalInactive,
		"fast", config.ScopeGlobal))

	assert.Equal(t, Off, p.Check(context.Background()))
	assert.True(t, state.IsEnabled())
	assert.Zero(t, detector.calls.Load())
	assert.Empty(t, notifier.infos)

	p.Start()
	assert.False(t, p.Running())
	assert.Nil(t, tickers.last())
}

func TestCheckPassesAdditionalApps(t *testing.T) {
	store, _, detector, _, _, p := setup(t, true, true)
	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyAdditionalApps,
		[]any{"vMix"}, config.ScopeWorkspace))
	detector.result.Store(true)

	p.Check(context.Background())
	assert.Equal(t, []string{"vMix"}, detector.extra)
}

func TestCheckSwallowsDetectorErrors(t *testing.T) {
	_, state, detector, notifier, _, p := setup(t, true, true)
	detector.err = stderrors.New("enumeration failed")

	assert.NotPanics(t, func() {
		assert.Equal(t, Failed, p.Check(context.Background()))
	})
	assert.True(t, state.IsEnabled())
	assert.Empty(t, notifier.infos)
}

func TestCheckReportsWriteFailures(t *testing.T) {
	store, state, detector, notifier, _, p := setup(t, false, true)
	detector.result.Store(true)
	store.FailWrites(stderrors.New("settings locked"))

	assert.Equal(t, Failed, p.Check(context.Background()))
	assert.False(t, state.IsEnabled())
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "settings locked")
}

func TestCheckDropsOverlappingCalls(t *testing.T) {
	_, _, detector, _, _, p := setup(t, true, true)
	detector.result.Store(true)
	detector.entered = make(chan struct{}, 1)
	detector.release = make(chan struct{})

	first := make(chan Outcome, 1)
	go func() { first <- p.Check(context.Background()) }()
	<-detector.entered

	assert.Equal(t, Skipped, p.Check(context.Background()))

	close(detector.release)
	assert.Equal(t, Unchanged, <-first)
	assert.Equal(t, int32(1), detector.calls.Load())
}

func TestStartUsesIntervalMatchingState(t *testing.T) {
	ctx := context.Background()
	store, state, _, _, _, p := setup(t, true, true)
	require.NoError(t, store.Update(ctx, config.Section, config.KeyIntervalActive, 5, config.ScopeGlobal))
	require.NoError(t, store.Update(ctx, config.Section, config.KeyIntervalInactive, 2, config.ScopeGlobal))

	p.Start()
	assert.Equal(t, 5*time.Second, p.Interval())

	require.NoError(t, state.SetEnabled(ctx, false, config.ScopeGlobal))
	p.Start()
	assert.Equal(t, 2*time.Second, p.Interval())
}

func TestStartWithOversizedIntervalUsesDefault(t *testing.T) {
	store, _, _, _, _, p := setup(t, true, true)
	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyIntervalActive,
		int64(10000000000), config.ScopeGlobal))

	assert.NotPanics(t, p.Start)
	assert.Equal(t, time.Duration(config.DefaultActiveInterval)*time.Second, p.Interval())
}

func TestStartStaysStoppedWhenAutoDetectOff(t *testing.T) {
	_, _, _, _, tickers, p := setup(t, true, false)

	p.Start()
	assert.False(t, p.Running())
	assert.Nil(t, tickers.last())
}

func TestStopIsIdempotent(t *testing.T) {
	_, _, _, _, tickers, p := setup(t, true, true)

	p.Start()
	require.True(t, p.Running())
	p.Stop()
	p.Stop()
	assert.False(t, p.Running())

	ticker := tickers.last()
	require.NotNil(t, ticker)
	assert.Eventually(t, ticker.stopped.Load, time.Second, 5*time.Millisecond)
}

func TestFlipRestartsWithNewInterval(t *testing.T) {
	_, _, detector, _, _, p := setup(t, false, true)
	detector.result.Store(true)

	p.Start()
	assert.Equal(t, time.Duration(config.DefaultInactiveInterval)*time.Second, p.Interval())

	p.Check(context.Background())
	assert.Equal(t, time.Duration(config.DefaultActiveInterval)*time.Second, p.Interval())
}

func TestTickRunsCheck(t *testing.T) {
	_, state, detector, _, tickers, p := setup(t, false, true)
	detector.result.Store(true)

	p.Start()
	ticker := tickers.last()
	require.NotNil(t, ticker)
	ticker.c <- time.Now()

	assert.Eventually(t, state.IsEnabled, time.Second, 5*time.Millisecond)
}

func TestWatchRestartsOnSettingsChange(t *testing.T) {
	ctx := context.Background()
	store, _, _, _, _, p := setup(t, true, true)
	p.Watch()
	p.Start()

	require.NoError(t, store.Update(ctx, config.Section, config.KeyIntervalActive, 7, config.ScopeWorkspace))
	assert.Equal(t, 7*time.Second, p.Interval())

	require.NoError(t, store.Update(ctx, config.Section, config.KeyAutoDetectEnable, false, config.ScopeWorkspace))
	assert.False(t, p.Running())

	require.NoError(t, store.Update(ctx, config.Section, config.KeyAutoDetectEnable, true, config.ScopeWorkspace))
	assert.True(t, p.Running())
}

func TestWatchIgnoresUnrelatedChanges(t *testing.T) {
	store, _, _, _, tickers, p := setup(t, true, true)
	p.Watch()

	require.NoError(t, store.Update(context.Background(), config.AssociationsSection, config.AssociationsKey,
		map[string]any{"*.env": "marker"}, config.ScopeWorkspace))
	assert.False(t, p.Running())
	assert.Nil(t, tickers.last())
}

func TestCloseStopsEverything(t *testing.T) {
	store, _, _, _, _, p := setup(t, true, true)
	p.Watch()
	p.Start()
	p.Close()

	assert.False(t, p.Running())
	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyIntervalActive, 9, config.ScopeWorkspace))
	assert.False(t, p.Running())

	p.Start()
	assert.False(t, p.Running(), "a closed poller stays stopped")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "enabled", Enabled.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}

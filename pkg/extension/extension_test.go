package extension

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/pkg/autodetect"
	"github.com/grovetools/streamer-mode/testutil"
)

type idleTicker struct{ c chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.c }
func (t idleTicker) Stop()               {}

func newIdleTicker(time.Duration) autodetect.Ticker {
	return idleTicker{c: make(chan time.Time)}
}

type recorder struct {
	mu       sync.Mutex
	notices  []string
	errors   []string
	statuses []Status
	refresh  int
}

func (r *recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

func (r *recorder) NotifyError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recorder) DecorationsChanged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh++
}

func (r *recorder) status(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) lastStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

func activate(t *testing.T, store config.Store, inspector *testutil.FakeInspector, skipCheck bool) (*Extension, *recorder) {
	t.Helper()
	rec := &recorder{}
	ext, err := Activate(context.Background(), store, Options{
		Root:             "/work",
		Inspector:        inspector,
		Notifier:         rec,
		Sink:             rec,
		OnStatus:         rec.status,
		Ticker:           newIdleTicker,
		SkipInitialCheck: skipCheck,
	})
	require.NoError(t, err)
	t.Cleanup(ext.Dispose)
	return ext, rec
}

func TestActivateEnablesWhenStreaming(t *testing.T) {
	store := config.NewMemoryStore()
	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyEnabled, false, config.ScopeGlobal))

	ext, rec := activate(t, store, testutil.NewFakeInspector("bash", "obs64.exe"), false)

	assert.True(t, ext.State.IsEnabled())
	assert.Equal(t, []string{autodetect.MessageEnabled}, rec.notices)
	assert.Equal(t, 60*time.Second, ext.Poller.Interval())

	status := rec.lastStatus()
	assert.True(t, status.Enabled)
	assert.Equal(t, "✓ Streamer Mode", status.Text())
}

func TestActivateDisablesWithoutStreamingApp(t *testing.T) {
	ext, rec := activate(t, config.NewMemoryStore(), testutil.NewFakeInspector("bash"), false)

	assert.False(t, ext.State.IsEnabled())
	assert.Equal(t, []string{autodetect.MessageDisabled}, rec.notices)
	assert.Equal(t, 30*time.Second, ext.Poller.Interval())
	assert.Equal(t, "✗ Streamer Mode", rec.lastStatus().Text())
	assert.Positive(t, rec.refresh, "decorations refresh when protection changes")
}

func TestActivateSkipInitialCheck(t *testing.T) {
	inspector := testutil.NewFakeInspector()
	ext, rec := activate(t, config.NewMemoryStore(), inspector, true)

	assert.Zero(t, inspector.Calls())
	assert.True(t, ext.State.IsEnabled())
	assert.Empty(t, rec.notices)
	assert.Len(t, rec.statuses, 1)
}

func TestAssociationChangeRefreshesDecorations(t *testing.T) {
	ctx := context.Background()
	ext, rec := activate(t, config.NewMemoryStore(), testutil.NewFakeInspector(), true)

	_, ok := ext.Evaluator.Decorate(ctx, "/work/deploy/.env")
	assert.False(t, ok)

	require.NoError(t, ext.Editor.Add(ctx, "**/*.env", config.ScopeWorkspace))

	assert.Equal(t, 1, rec.refresh)
	assert.Equal(t, []string{"**/*.env"}, ext.Evaluator.Patterns())
	assert.Equal(t, 1, rec.lastStatus().Patterns)

	d, ok := ext.Evaluator.Decorate(ctx, "/work/deploy/.env")
	require.True(t, ok)
	assert.Equal(t, "**/*.env", d.Pattern)
}

func TestAutoDetectSettingChangeRestartsPoller(t *testing.T) {
	ctx := context.Background()
	store := config.NewMemoryStore()
	ext, rec := activate(t, store, testutil.NewFakeInspector(), true)
	require.True(t, ext.Poller.Running())

	require.NoError(t, store.Update(ctx, config.Section, config.KeyAutoDetectEnable, false, config.ScopeGlobal))
	assert.False(t, ext.Poller.Running())
	assert.False(t, rec.lastStatus().AutoDetect)

	require.NoError(t, store.Update(ctx, config.Section, config.KeyAutoDetectEnable, true, config.ScopeGlobal))
	require.NoError(t, store.Update(ctx, config.Section, config.KeyIntervalActive, 5, config.ScopeGlobal))
	assert.Equal(t, 5*time.Second, ext.Poller.Interval())
	assert.Equal(t, 5*time.Second, rec.lastStatus().Interval)
}

func TestActivateWithInvalidSettingsUsesDefaults(t *testing.T) {
	store := config.NewMemoryStore()
	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyIntervalInactive, "soon", config.ScopeGlobal))

	ext, _ := activate(t, store, testutil.NewFakeInspector(), true)
	assert.True(t, ext.Poller.Running())
	assert.Equal(t, 60*time.Second, ext.Poller.Interval())
}

func TestActivateRequiresStore(t *testing.T) {
	_, err := Activate(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestDisposeReleasesSubscriptions(t *testing.T) {
	ctx := context.Background()
	store := config.NewMemoryStore()
	ext, rec := activate(t, store, testutil.NewFakeInspector(), true)

	ext.Dispose()
	ext.Dispose()
	assert.False(t, ext.Poller.Running())

	statuses := len(rec.statuses)
	require.NoError(t, store.Update(ctx, config.Section, config.KeyEnabled, false, config.ScopeGlobal))
	require.NoError(t, ext.Editor.Add(ctx, "*.key", config.ScopeGlobal))

	assert.Len(t, rec.statuses, statuses)
	assert.Zero(t, rec.refresh)
	assert.False(t, ext.Poller.Running())
}

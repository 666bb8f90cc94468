package protection

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/errors"
)

func TestIsEnabledDefaultsToTrue(t *testing.T) {
	s := New(config.NewMemoryStore(), nil)
	assert.True(t, s.IsEnabled())
}

func TestSetEnabledSameValueWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := config.NewMemoryStore()
	s := New(store, nil)

	notified := 0
	s.OnDidChange(func(bool) { notified++ })

	require.NoError(t, s.SetEnabled(ctx, true, config.ScopeWorkspace))
	assert.Equal(t, 0, store.Writes())
	assert.Equal(t, 0, notified)

	require.NoError(t, s.SetEnabled(ctx, false, config.ScopeWorkspace))
	require.NoError(t, s.SetEnabled(ctx, false, config.ScopeWorkspace))
	assert.Equal(t, 1, store.Writes())
	assert.Equal(t, 1, notified)
}

func TestSetEnabledWritesAtScope(t *testing.T) {
	ctx := context.Background()
	store := config.NewMemoryStore()
	s := New(store, nil)

	require.NoError(t, s.SetEnabled(ctx, false, config.ScopeGlobal))

	in := store.Inspect(config.Section, config.KeyEnabled)
	assert.True(t, in.HasGlobal)
	assert.False(t, in.HasWorkspace)
	assert.False(t, s.IsEnabled())
}

func TestSetEnabledWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := config.NewMemoryStore()
	store.FailWrites(stderrors.New("settings locked"))
	s := New(store, nil)

	err := s.SetEnabled(ctx, false, config.ScopeWorkspace)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigWrite))
	assert.True(t, s.IsEnabled())
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s := New(config.NewMemoryStore(), nil)

	enabled, err := s.Toggle(ctx, config.ScopeWorkspace)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = s.Toggle(ctx, config.ScopeWorkspace)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestOnDidChangeReportsExternalEdits(t *testing.T) {
	store := config.NewMemoryStore()
	s := New(store, nil)

	var seen []bool
	unsubscribe := s.OnDidChange(func(enabled bool) { seen = append(seen, enabled) })

	store.Replace(config.ScopeWorkspace, map[string]any{
		"streamer-mode": map[string]any{"enabled": false},
	})
	unsubscribe()
	store.Replace(config.ScopeWorkspace, map[string]any{})

	assert.Equal(t, []bool{false}, seen)
}

func TestSourceScope(t *testing.T) {
	ctx := context.Background()
	store := config.NewMemoryStore()
	s := New(store, nil)
	assert.Equal(t, config.ScopeGlobal, s.SourceScope())

	require.NoError(t, s.SetEnabled(ctx, false, config.ScopeWorkspace))
	assert.Equal(t, config.ScopeWorkspace, s.SourceScope())

	// A global write under a workspace override would not change the flag.
	require.NoError(t, s.SetEnabled(ctx, true, s.SourceScope()))
	assert.True(t, s.IsEnabled())
}

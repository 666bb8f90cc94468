package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/streamer-mode/errors"
)

func TestFileStoreLoadsBothScopes(t *testing.T) {
	tmpDir := t.TempDir()
	globalPath := filepath.Join(tmpDir, "global", "settings.yml")
	workspacePath := filepath.Join(tmpDir, "project", ".streamer-mode", "settings.yml")

	require.NoError(t, os.MkdirAll(filepath.Dir(globalPath), 0755))
	require.NoError(t, os.MkdirAll(filepath.Dir(workspacePath), 0755))

	globalYAML := `
streamer-mode:
  enabled: true
  autoDetected:
    interval:
      active: 120
workbench:
  editorAssociations:
    "*.env": vscode-streamer-mode-x.editor
    "*.png": imagePreview.previewEditor
`
	workspaceYAML := `
streamer-mode:
  enabled: false
workbench:
  editorAssociations:
    "secrets/**": vscode-streamer-mode-x.editor
`
	require.NoError(t, os.WriteFile(globalPath, []byte(globalYAML), 0644))
	require.NoError(t, os.WriteFile(workspacePath, []byte(workspaceYAML), 0644))

	s, err := NewFileStore(globalPath, workspacePath)
	require.NoError(t, err)

	settings, err := LoadSettings(s)
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Equal(t, 120, settings.AutoDetected.Interval.Active)

	assoc := GetStringMap(s, AssociationsSection, AssociationsKey)
	assert.Len(t, assoc, 3)
	assert.Equal(t, "vscode-streamer-mode-x.editor", assoc["secrets/**"])
}

func TestFileStoreMissingFilesAreEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := NewFileStore(filepath.Join(tmpDir, "none.yml"), "")
	require.NoError(t, err)

	_, ok := s.Get(Section, KeyEnabled)
	assert.False(t, ok)
}

func TestFileStoreInvalidDocument(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("streamer-mode: [unclosed"), 0644))

	_, err := NewFileStore(path, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestFileStoreUpdatePersists(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	workspacePath := filepath.Join(tmpDir, ".streamer-mode", "settings.yml")

	s, err := NewFileStore("", workspacePath)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, AssociationsSection, AssociationsKey,
		map[string]string{"*.key": "vscode-streamer-mode-x.editor"}, ScopeWorkspace))
	require.NoError(t, s.Update(ctx, Section, KeyEnabled, false, ScopeWorkspace))

	reopened, err := NewFileStore("", workspacePath)
	require.NoError(t, err)
	assert.False(t, GetBool(reopened, Section, KeyEnabled, true))
	assert.Equal(t, map[string]string{"*.key": "vscode-streamer-mode-x.editor"},
		GetStringMap(reopened, AssociationsSection, AssociationsKey))
}

func TestFileStoreTOMLDocument(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.toml")
	toml := `
["streamer-mode".autoDetected.interval]
active = 45
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0644))

	s, err := NewFileStore(path, "")
	require.NoError(t, err)
	settings, err := LoadSettings(s)
	require.NoError(t, err)
	assert.Equal(t, 45, settings.AutoDetected.Interval.Active)

	require.NoError(t, s.Update(ctx, Section, KeyIntervalInactive, 12, ScopeGlobal))
	reopened, err := NewFileStore(path, "")
	require.NoError(t, err)
	settings, err = LoadSettings(reopened)
	require.NoError(t, err)
	assert.Equal(t, 45, settings.AutoDetected.Interval.Active)
	assert.Equal(t, 12, settings.AutoDetected.Interval.Inactive)
}

func TestFileStoreWriteFailureKeepsLastKnownGood(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "blocked")
	path := filepath.Join(dir, "settings.yml")

	s, err := NewFileStore("", path)
	require.NoError(t, err)

	// A regular file where the settings directory should be makes every write fail.
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0644))

	notified := false
	s.OnDidChange(func(ChangeEvent) { notified = true })

	err = s.Update(ctx, Section, KeyEnabled, false, ScopeWorkspace)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigWrite))
	assert.True(t, GetBool(s, Section, KeyEnabled, true))
	assert.False(t, notified)
}

func TestFileStoreReloadNotifiesExternalEdits(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("streamer-mode:\n  enabled: true\n"), 0644))

	s, err := NewFileStore(path, "")
	require.NoError(t, err)

	var keys []string
	s.OnDidChange(func(e ChangeEvent) { keys = append(keys, e.Keys...) })

	require.NoError(t, os.WriteFile(path, []byte("streamer-mode:\n  enabled: false\n"), 0644))
	require.NoError(t, s.Reload())

	assert.Equal(t, []string{"streamer-mode.enabled"}, keys)
	assert.False(t, GetBool(s, Section, KeyEnabled, true))
}

func TestFileStoreWatch(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("streamer-mode:\n  enabled: true\n"), 0644))

	s, err := NewFileStore(path, "", WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		changed bool
	)
	s.OnDidChange(func(e ChangeEvent) {
		if e.AffectsConfiguration("streamer-mode.enabled") {
			mu.Lock()
			changed = true
			mu.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Give the watcher a moment to register before editing.
	require.Eventually(t, func() bool {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		return s.watcher != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("streamer-mode:\n  enabled: false\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changed
	}, 2*time.Second, 20*time.Millisecond)
	assert.False(t, GetBool(s, Section, KeyEnabled, true))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

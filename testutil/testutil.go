package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grovetools/streamer-mode/pkg/paths"
)

// FakeInspector is a process.Inspector that returns a fixed process list.
type FakeInspector struct {
	mu    sync.Mutex
	names []string
	err   error
	calls int
}

// NewFakeInspector returns an inspector reporting the given process names.
func NewFakeInspector(names ...string) *FakeInspector {
	return &FakeInspector{names: names}
}

// ProcessNames returns the configured names, or the configured error.
func (f *FakeInspector) ProcessNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.names...), nil
}

// Set replaces the running process list and clears any failure.
func (f *FakeInspector) Set(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = names
	f.err = nil
}

// Fail makes every following call return err.
func (f *FakeInspector) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns how many times the process list was requested.
func (f *FakeInspector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// IsolateHome points every XDG lookup at a fresh temp directory and returns it.
func IsolateHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("STREAMER_MODE_HOME", home)
	return home
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteGlobalSettings writes the global settings document. Call IsolateHome first.
func WriteGlobalSettings(t *testing.T, content string) string {
	t.Helper()
	return WriteFile(t, paths.GlobalSettingsPath(), content)
}

// WriteWorkspaceSettings writes the workspace settings document under root.
func WriteWorkspaceSettings(t *testing.T, root, content string) string {
	t.Helper()
	return WriteFile(t, paths.WorkspaceSettingsPath(root), content)
}

// WaitFor polls cond until it is true or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

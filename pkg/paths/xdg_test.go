package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortableHomeTakesPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STREAMER_MODE_HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "ignored"))

	assert.Equal(t, filepath.Join(home, "config", "streamer-mode"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "state", "streamer-mode"), StateDir())
	assert.Equal(t, filepath.Join(home, "state", "streamer-mode", "logs"), LogDir())
	assert.Equal(t, filepath.Join(home, "config", "streamer-mode", "settings.yml"), GlobalSettingsPath())
}

func TestXDGDirs(t *testing.T) {
	base := t.TempDir()
	t.Setenv("STREAMER_MODE_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "cfg"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))

	assert.Equal(t, filepath.Join(base, "cfg", "streamer-mode"), ConfigDir())
	assert.Equal(t, filepath.Join(base, "state", "streamer-mode"), StateDir())
}

func TestWorkspaceSettingsPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/work/project", ".streamer-mode", "settings.yml"),
		WorkspaceSettingsPath("/work/project"))
}

func TestEnsureDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STREAMER_MODE_HOME", home)

	assert.NoError(t, EnsureDirs())
	assert.DirExists(t, LogDir())
	assert.DirExists(t, ConfigDir())
}

func TestSettingsFilePrefersYAML(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, WorkspaceDirName)
	require.NoError(t, os.MkdirAll(dir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLSettingsFileName), nil, 0644))
	assert.Equal(t, filepath.Join(dir, TOMLSettingsFileName), WorkspaceSettingsPath(root))

	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), nil, 0644))
	assert.Equal(t, filepath.Join(dir, SettingsFileName), WorkspaceSettingsPath(root))
}

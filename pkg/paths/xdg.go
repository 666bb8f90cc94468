// Package paths provides XDG-compliant path resolution for streamer-mode.
//
// Resolution order:
// 1. STREAMER_MODE_HOME (portable root) → $STREAMER_MODE_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/streamer-mode
// 3. Platform defaults → ~/.config/streamer-mode, ~/.local/state/streamer-mode
package paths

import (
	"os"
	"path/filepath"
)

const appName = "streamer-mode"

// WorkspaceDirName is the per-workspace settings directory, relative to the workspace root.
const WorkspaceDirName = ".streamer-mode"

// SettingsFileName is the default settings document name in both scopes.
const SettingsFileName = "settings.yml"

// TOMLSettingsFileName is used instead of SettingsFileName when only it exists.
const TOMLSettingsFileName = "settings.toml"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("STREAMER_MODE_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("STREAMER_MODE_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the global configuration directory.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the state directory. Used for logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// LogDir returns the directory holding the component log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// GlobalSettingsPath returns the path of the global-scope settings document.
func GlobalSettingsPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return settingsFile(dir)
}

// WorkspaceSettingsPath returns the path of the workspace-scope settings document
// for the workspace rooted at root.
func WorkspaceSettingsPath(root string) string {
	return settingsFile(filepath.Join(root, WorkspaceDirName))
}

func settingsFile(dir string) string {
	yml := filepath.Join(dir, SettingsFileName)
	if _, err := os.Stat(yml); err == nil {
		return yml
	}
	toml := filepath.Join(dir, TOMLSettingsFileName)
	if _, err := os.Stat(toml); err == nil {
		return toml
	}
	return yml
}

// EnsureDirs creates the global directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		LogDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// Package association tracks which entries of the editor association map are
// claimed by streamer mode.
package association

import (
	"path/filepath"
	"sort"
	"strings"
)

// Marker is the association value that marks a pattern as protected.
const Marker = "vscode-streamer-mode-x.editor"

// Diff returns the keys whose association with marker differs between
// previous and current: keys newly mapped to marker and keys that no longer
// are. Entries mapped to other values are ignored in both maps.
func Diff(previous, current map[string]string, marker string) map[string]struct{} {
	changed := make(map[string]struct{})
	for key, value := range current {
		if value == marker {
			if prev, ok := previous[key]; !ok || prev != value {
				changed[key] = struct{}{}
			}
		}
	}
	for key, value := range previous {
		if value == marker {
			if cur, ok := current[key]; !ok || cur != value {
				changed[key] = struct{}{}
			}
		}
	}
	return changed
}

// Protected returns the sorted keys of m mapped to marker.
func Protected(m map[string]string, marker string) []string {
	var patterns []string
	for key, value := range m {
		if value == marker {
			patterns = append(patterns, key)
		}
	}
	sort.Strings(patterns)
	return patterns
}

// Keys returns the sorted members of a set returned by Diff.
func Keys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PatternForPath returns the pattern that protects target. A directory is
// protected as a subtree relative to root, a file by its basename.
func PatternForPath(root, target string, isDir bool) string {
	if !isDir {
		return filepath.Base(target)
	}
	rel := target
	if root != "" {
		if r, err := filepath.Rel(root, target); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "**"
	}
	return strings.TrimSuffix(rel, "/") + "/**"
}

// PatternOptions returns the candidate patterns for protecting a file: its
// extension (unless it is a plain dotfile such as ".env") followed by its
// basename.
func PatternOptions(filename string) []string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	isDotfile := strings.HasPrefix(base, ".") && strings.LastIndex(base, ".") == 0

	var options []string
	if ext != "" && !isDotfile {
		options = append(options, "*"+ext)
	}
	return append(options, base)
}

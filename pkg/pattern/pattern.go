// Package pattern decides whether a workspace-relative path is covered by a
// protection pattern.
//
// Two dialects exist and callers pick one explicitly:
//
//   - DialectGlob anchors patterns containing a slash at the workspace root
//     and matches slash-less patterns against the basename of the path or of
//     any of its parent directories. "*" and "?" never cross a slash but do
//     match a leading dot. "**/" matches zero or more directories and a
//     trailing "/**" matches the directory itself and everything below it.
//     Bracket classes and backslash escapes are supported. Matching is
//     case-sensitive.
//
//   - DialectLegacy is the three-case matcher of early releases: a leading
//     "*" is a plain suffix test, a pattern containing a slash is a prefix
//     test after dropping its first "/**", and anything else matches by
//     equality, by suffix, or when the basename is the name followed by a
//     further extension. It over-matches ("config.env" matches
//     "myconfig.env" and "config.env.bak") and is kept for settings written
//     against it.
//
// Matching is total: empty or malformed patterns never match and never panic.
package pattern

import (
	"fmt"
	"path"
	"strings"

	"github.com/moby/patternmatcher"
)

// Dialect selects a matching algorithm.
type Dialect string

const (
	DialectGlob   Dialect = "glob"
	DialectLegacy Dialect = "legacy"
)

// ParseDialect converts a settings value into a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DialectGlob):
		return DialectGlob, nil
	case string(DialectLegacy):
		return DialectLegacy, nil
	default:
		return "", fmt.Errorf("unknown pattern dialect %q (want glob or legacy)", s)
	}
}

// Match reports whether path is covered by pattern in the glob dialect.
func Match(path, pattern string) bool {
	return MatchDialect(DialectGlob, path, pattern)
}

// MatchDialect reports whether path is covered by pattern in dialect d.
// Unknown dialects never match.
func MatchDialect(d Dialect, path, pattern string) bool {
	switch d {
	case DialectGlob:
		return matchGlob(path, pattern)
	case DialectLegacy:
		return matchLegacy(path, pattern)
	default:
		return false
	}
}

// MatchAny returns the first pattern in order that covers path.
func MatchAny(d Dialect, path string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if MatchDialect(d, path, p) {
			return p, true
		}
	}
	return "", false
}

func matchLegacy(p, pattern string) bool {
	if pattern == "" {
		return false
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(p, pattern[1:])
	}
	if strings.Contains(pattern, "/") {
		return strings.HasPrefix(p, strings.Replace(pattern, "/**", "", 1))
	}
	return p == pattern || strings.HasSuffix(p, pattern) || strings.HasPrefix(path.Base(p), pattern+".")
}

func matchGlob(p, pattern string) bool {
	p = cleanPath(p)
	pattern = strings.TrimSpace(pattern)
	if p == "" || pattern == "" || strings.HasPrefix(pattern, "!") {
		return false
	}

	pattern = cleanPattern(pattern)
	if pattern == "" {
		return false
	}
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}

	candidates := []string{pattern}
	if base := strings.TrimSuffix(pattern, "/**"); base != pattern && base != "" && base != "**" {
		candidates = append(candidates, base)
	}

	pm, err := patternmatcher.New(candidates)
	if err != nil {
		return false
	}
	matched, err := pm.MatchesOrParentMatches(p)
	if err != nil {
		return false
	}
	return matched
}

// cleanPath normalizes a path to slash-separated, root-relative form.
func cleanPath(s string) string {
	return cleanPattern(strings.ReplaceAll(s, "\\", "/"))
}

// cleanPattern anchors a pattern at the root. Backslashes are left alone
// because they escape the next character.
func cleanPattern(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimLeft(path.Clean(s), "/")
	if s == "." {
		return ""
	}
	return s
}

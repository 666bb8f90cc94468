package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// document is one scope's settings tree.
type document map[string]any

func splitKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, ".")
}

// lookup walks the dotted key through nested maps.
func (d document) lookup(key string) (any, bool) {
	var current any = map[string]any(d)
	for _, part := range splitKey(key) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// with returns a copy of d with key set to value. A nil value removes the key
// and prunes parents left empty.
func (d document) with(key string, value any) document {
	out := document(deepCopyMap(d))
	if out == nil {
		out = document{}
	}
	parts := splitKey(key)
	if len(parts) == 0 {
		if m, ok := value.(map[string]any); ok {
			return document(deepCopyMap(m))
		}
		return out
	}

	if value == nil {
		deletePath(out, parts)
		return out
	}

	m := map[string]any(out)
	for _, part := range parts[:len(parts)-1] {
		child, ok := m[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[part] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = deepCopy(normalize(value))
	return out
}

func deletePath(m map[string]any, parts []string) {
	if len(parts) == 1 {
		delete(m, parts[0])
		return
	}
	child, ok := m[parts[0]].(map[string]any)
	if !ok {
		return
	}
	deletePath(child, parts[1:])
	if len(child) == 0 {
		delete(m, parts[0])
	}
}

// mergeMaps deep-merges override into base. Nested maps merge key by key;
// any other value in override replaces the base value.
func mergeMaps(base, override map[string]any) map[string]any {
	result := deepCopyMap(base)
	if result == nil {
		result = make(map[string]any)
	}
	for key, value := range override {
		if baseMap, ok := result[key].(map[string]any); ok {
			if overrideMap, ok := value.(map[string]any); ok {
				result[key] = mergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[key] = deepCopy(value)
	}
	return result
}

// flatten maps every leaf to its dotted key.
func flatten(prefix string, m map[string]any, out map[string]any) {
	for key, value := range m {
		full := QualifiedKey(prefix, key)
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			flatten(full, child, out)
			continue
		}
		out[full] = value
	}
}

// changedKeys lists the leaf keys whose values differ between two documents.
func changedKeys(before, after map[string]any) []string {
	a := make(map[string]any)
	b := make(map[string]any)
	flatten("", before, a)
	flatten("", after, b)

	var keys []string
	for k, v := range a {
		if w, ok := b[k]; !ok || !reflect.DeepEqual(v, w) {
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// normalize converts decoder-specific container types into
// map[string]any and []any so lookups behave the same for every format.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return v
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

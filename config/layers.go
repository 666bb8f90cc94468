package config

// layers holds one document per scope and answers effective reads.
// Callers provide their own locking.
type layers struct {
	docs map[Scope]document
}

func newLayers() layers {
	return layers{docs: map[Scope]document{
		ScopeGlobal:    {},
		ScopeWorkspace: {},
	}}
}

// effective deep-merges the scopes in precedence order.
func (l layers) effective() map[string]any {
	merged := map[string]any{}
	for _, scope := range Scopes {
		merged = mergeMaps(merged, l.docs[scope])
	}
	return merged
}

func (l layers) get(section, key string) (any, bool) {
	full := QualifiedKey(section, key)

	var value any
	found := false
	for _, scope := range Scopes {
		v, ok := l.docs[scope].lookup(full)
		if !ok {
			continue
		}
		prev, prevIsMap := value.(map[string]any)
		next, nextIsMap := v.(map[string]any)
		if found && prevIsMap && nextIsMap {
			value = mergeMaps(prev, next)
		} else {
			value = deepCopy(v)
		}
		found = true
	}
	return value, found
}

func (l layers) inspect(section, key string) Inspection {
	full := QualifiedKey(section, key)
	in := Inspection{Key: full}
	if v, ok := l.docs[ScopeGlobal].lookup(full); ok {
		in.Global, in.HasGlobal = deepCopy(v), true
	}
	if v, ok := l.docs[ScopeWorkspace].lookup(full); ok {
		in.Workspace, in.HasWorkspace = deepCopy(v), true
	}
	return in
}

package validator

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry maps rule names to definitions. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Definition
}

// NewRegistry returns a registry holding every built-in rule.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[string]Definition)}
	for name, def := range builtins() {
		r.rules[name] = def
	}
	return r
}

// Register adds a definition, replacing any rule of the same name,
// built-ins included. Definitions without a constructor are ignored.
func (r *Registry) Register(name string, def Definition) {
	name = strings.TrimSpace(name)
	if name == "" || def.New == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = def
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.rules[name]
	return def, ok
}

// Names returns the registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.rules))
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Registry{rules: maps.Clone(r.rules)}
}

func builtins() map[string]Definition {
	defs := make(map[string]Definition)
	for _, group := range []map[string]Definition{
		presenceRules(),
		typeRules(),
		sizeRules(),
		fieldRules(),
		membershipRules(),
		dateRules(),
		patternRules(),
		formatRules(),
		fileRules(),
		remoteRules(),
	} {
		maps.Copy(defs, group)
	}
	defs["in_array"] = defs["in"]
	defs["not_in_array"] = defs["not_in"]
	return defs
}

// Package namespace keeps the prefix bindings of a store.
//
// A Registry is a bijection between prefixes and namespace IRIs: every prefix
// maps to exactly one namespace and every namespace to exactly one prefix.
// Rebinding either side removes the stale pair so both directions stay
// inverse to each other. A Registry is not safe for concurrent use.
package namespace

import (
	"maps"
	"slices"
	"strings"
)

// Binding is one prefix/namespace pair.
type Binding struct {
	Prefix    string
	Namespace string
}

// Registry is an ordered prefix/namespace bijection.
type Registry struct {
	namespaces map[string]string // prefix -> namespace
	prefixes   map[string]string // namespace -> prefix
	order      []string          // prefixes in binding order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]string),
		prefixes:   make(map[string]string),
	}
}

// Bind associates prefix with ns.
//
// Without override the call is a no-op when either side is already bound.
// With override any pair touching prefix or ns is removed first.
func (r *Registry) Bind(prefix, ns string, override bool) {
	_, prefixBound := r.namespaces[prefix]
	_, nsBound := r.prefixes[ns]
	if !override && (prefixBound || nsBound) {
		return
	}

	if prefixBound {
		r.unlink(prefix)
	}
	if p, ok := r.prefixes[ns]; ok {
		r.unlink(p)
	}

	r.namespaces[prefix] = ns
	r.prefixes[ns] = prefix
	r.order = append(r.order, prefix)
}

// unlink removes the pair keyed by prefix from both directions.
func (r *Registry) unlink(prefix string) {
	ns, ok := r.namespaces[prefix]
	if !ok {
		return
	}
	delete(r.namespaces, prefix)
	delete(r.prefixes, ns)
	if i := slices.Index(r.order, prefix); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// PrefixFor returns the prefix bound to ns.
func (r *Registry) PrefixFor(ns string) (string, bool) {
	p, ok := r.prefixes[ns]
	return p, ok
}

// NamespaceFor returns the namespace bound to prefix.
func (r *Registry) NamespaceFor(prefix string) (string, bool) {
	ns, ok := r.namespaces[prefix]
	return ns, ok
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every binding in the order it was made.
func (r *Registry) All() []Binding {
	out := make([]Binding, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, Binding{Prefix: p, Namespace: r.namespaces[p]})
	}
	return out
}

// Prologue renders PREFIX declarations for the registry merged with extra.
// A prefix present in both takes its namespace from extra. Registry prefixes
// come first in binding order, then the remaining extra prefixes sorted.
func (r *Registry) Prologue(extra map[string]string) string {
	var b strings.Builder
	write := func(prefix, ns string) {
		b.WriteString("PREFIX ")
		b.WriteString(prefix)
		b.WriteString(": <")
		b.WriteString(ns)
		b.WriteString(">\n")
	}

	for _, p := range r.order {
		ns := r.namespaces[p]
		if v, ok := extra[p]; ok {
			ns = v
		}
		write(p, ns)
	}
	for _, p := range slices.Sorted(maps.Keys(extra)) {
		if _, ok := r.namespaces[p]; ok {
			continue
		}
		write(p, extra[p])
	}
	return b.String()
}

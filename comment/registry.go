package comment

import (
	"slices"
	"sync"
)

// Component is one named key/value pair of an annotation.
type Component struct {
	Name  string
	Value string
}

// Components is an ordered list of components. Values returned by
// Registry.Snapshot are never modified by the registry afterwards.
type Components []Component

// Get returns the value for name.
func (c Components) Get(name string) (string, bool) {
	for _, comp := range c {
		if comp.Name == name {
			return comp.Value, true
		}
	}
	return "", false
}

// Merge returns a new list with other applied on top of c.
// A name present in both keeps its position in c and takes the value from other.
func (c Components) Merge(other Components) Components {
	merged := make(Components, len(c), len(c)+len(other))
	copy(merged, c)

	for _, comp := range other {
		found := false
		for i := range merged {
			if merged[i].Name == comp.Name {
				merged[i].Value = comp.Value
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, comp)
		}
	}
	return merged
}

// String renders the components with Format.
func (c Components) String() string {
	return Format(c)
}

// Registry holds the active components of one request, job or process.
//
// Components keep their insertion order. Setting an existing name replaces its
// value in place. A Registry is safe for concurrent use by the goroutines of
// the scope that owns it.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	values map[string]string
}

// NewRegistry returns a registry seeded with components.
func NewRegistry(components ...Component) *Registry {
	r := &Registry{values: make(map[string]string, len(components))}
	for _, c := range components {
		r.set(c.Name, c.Value)
	}
	return r
}

// Set inserts or overwrites name. An empty value is kept as an empty value.
func (r *Registry) Set(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(name, value)
}

func (r *Registry) set(name, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

// Unset removes name.
func (r *Registry) Unset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	if i := slices.Index(r.names, name); i >= 0 {
		r.names = slices.Delete(r.names, i, i+1)
	}
}

// Clear removes every component.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = nil
	r.values = make(map[string]string)
}

// Replace swaps the whole set for components.
func (r *Registry) Replace(components ...Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = make([]string, 0, len(components))
	r.values = make(map[string]string, len(components))
	for _, c := range components {
		r.set(c.Name, c.Value)
	}
}

// Get returns the value of name.
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[name]
	return v, ok
}

// Len returns the number of components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Snapshot returns a copy of the current components in insertion order.
func (r *Registry) Snapshot() Components {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Components, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, Component{Name: n, Value: r.values[n]})
	}
	return out
}

package comment

import "context"

// registryKey is the context key for the request registry.
type registryKey struct{}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// FromContext returns the registry stored in ctx, if any.
func FromContext(ctx context.Context) (*Registry, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(registryKey{}).(*Registry)
	return r, ok && r != nil
}

// Set sets name on the registry stored in ctx.
// It reports false when ctx carries no registry.
func Set(ctx context.Context, name, value string) bool {
	r, ok := FromContext(ctx)
	if !ok {
		return false
	}
	r.Set(name, value)
	return true
}

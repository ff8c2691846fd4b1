package container

import "reflect"

// Overlay is a Resolver that answers for a few caller-held values and
// delegates everything else to an inner Resolver. The router builds one per
// request so handlers can receive the *http.Request alongside singletons
// without the Registry knowing about requests.
//
//	res := container.NewOverlay(reg)
//	container.Provide(res, req)
//	container.Provide(res, &requestID)
type Overlay struct {
	inner  Resolver
	values map[reflect.Type]any
}

// NewOverlay creates an overlay over inner. A nil inner resolves nothing
// beyond the overlay's own values.
func NewOverlay(inner Resolver) *Overlay {
	return &Overlay{inner: inner, values: make(map[reflect.Type]any)}
}

// Provide makes *v resolvable as T through o for immutable access. The
// value is read in place, never copied. It returns o for chaining.
func Provide[T any](o *Overlay, v *T) *Overlay {
	o.values[reflect.TypeFor[T]()] = v
	return o
}

// Inner returns the resolver o delegates to.
func (o *Overlay) Inner() Resolver { return o.inner }

// ResolveImmutable implements Resolver.
func (o *Overlay) ResolveImmutable(key reflect.Type) (*Lease, error) {
	return o.resolveImmutableVia(o, key)
}

// ResolveMutable implements Resolver. Overlaid values are read-only.
func (o *Overlay) ResolveMutable(key reflect.Type) (*Lease, error) {
	return o.resolveMutableVia(o, key)
}

// ResolveOwned implements Resolver. Overlaid values are borrowed, not owned.
func (o *Overlay) ResolveOwned(key reflect.Type) (any, error) {
	return o.resolveOwnedVia(o, key)
}

// Delegation keeps outer, so a factory bound below the overlay resolves its
// own dependencies through the whole stack.

func (o *Overlay) resolveImmutableVia(outer Resolver, key reflect.Type) (*Lease, error) {
	if v, ok := o.values[key]; ok {
		return RefLease(v), nil
	}
	switch inner := o.inner.(type) {
	case nil:
		return nil, newResolveError(NonExist, key)
	case layered:
		return inner.resolveImmutableVia(outer, key)
	default:
		return inner.ResolveImmutable(key)
	}
}

func (o *Overlay) resolveMutableVia(outer Resolver, key reflect.Type) (*Lease, error) {
	if _, ok := o.values[key]; ok {
		return nil, newResolveError(MutImmutable, key)
	}
	switch inner := o.inner.(type) {
	case nil:
		return nil, newResolveError(NonExist, key)
	case layered:
		return inner.resolveMutableVia(outer, key)
	default:
		return inner.ResolveMutable(key)
	}
}

func (o *Overlay) resolveOwnedVia(outer Resolver, key reflect.Type) (any, error) {
	if _, ok := o.values[key]; ok {
		return nil, newResolveError(OwnedImmutable, key)
	}
	switch inner := o.inner.(type) {
	case nil:
		return nil, newResolveError(NonExist, key)
	case layered:
		return inner.resolveOwnedVia(outer, key)
	default:
		return inner.ResolveOwned(key)
	}
}

package container

import (
	"fmt"
	"reflect"
)

// Resolver is the capability to resolve services by type. The Registry
// implements it; so does Overlay, which layers request-scoped values over
// another Resolver.
//
// Go interfaces cannot carry type parameters, so the methods take the
// service type as a reflect.Type and return type-erased results holding a
// *T. Callers use ResolveRef, ResolveMut and ResolveOwned, which derive the
// key with reflect.TypeFor and check the result's type.
type Resolver interface {
	// ResolveImmutable returns read access to the service bound under key.
	ResolveImmutable(key reflect.Type) (*Lease, error)

	// ResolveMutable returns write access to the service bound under key.
	// The returned lease must be Writable.
	ResolveMutable(key reflect.Type) (*Lease, error)

	// ResolveOwned returns a *T holding a freshly built value.
	ResolveOwned(key reflect.Type) (any, error)
}

// layered is implemented by resolvers that can answer on behalf of an outer
// resolver. Factories reached through a layer receive outer, so they see the
// values every layer above them holds.
type layered interface {
	resolveImmutableVia(outer Resolver, key reflect.Type) (*Lease, error)
	resolveMutableVia(outer Resolver, key reflect.Type) (*Lease, error)
	resolveOwnedVia(outer Resolver, key reflect.Type) (any, error)
}

// ResolveRef resolves read access to T.
//
//	cfg, err := container.ResolveRef[AppConfig](reg)
//	if err != nil { return err }
//	defer cfg.Release()
func ResolveRef[T any](res Resolver) (*ReadGuard[T], error) {
	key := reflect.TypeFor[T]()
	lease, err := res.ResolveImmutable(key)
	if err != nil {
		return nil, err
	}
	return &ReadGuard[T]{lease: lease, ptr: downcast[T](lease, key)}, nil
}

// ResolveMut resolves write access to T. Resolving T again on the same
// goroutine while the guard is held deadlocks on lock-backed bindings.
//
//	state, err := container.ResolveMut[AppState](reg)
//	if err != nil { return err }
//	defer state.Release()
//	state.Ptr().Subject = "frogs"
func ResolveMut[T any](res Resolver) (*WriteGuard[T], error) {
	key := reflect.TypeFor[T]()
	lease, err := res.ResolveMutable(key)
	if err != nil {
		return nil, err
	}
	if !lease.Writable() {
		lease.release(false)
		panic(fmt.Sprintf("container: resolver returned a %s lease for mutable %s", lease.kind, key))
	}
	return &WriteGuard[T]{lease: lease, ptr: downcast[T](lease, key)}, nil
}

// ResolveOwned resolves a freshly built T. Only factory bindings can
// satisfy it.
//
//	client, err := container.ResolveOwned[S3Client](reg)
func ResolveOwned[T any](res Resolver) (T, error) {
	key := reflect.TypeFor[T]()
	v, err := res.ResolveOwned(key)
	if err != nil {
		var zero T
		return zero, err
	}
	p, ok := v.(*T)
	if !ok {
		panic(fmt.Sprintf("container: resolver returned %T for owned %s", v, key))
	}
	return *p, nil
}

// downcast checks the lease holds a *T. A mismatch means a Resolver handed
// back something other than what it was asked for.
func downcast[T any](lease *Lease, key reflect.Type) *T {
	p, ok := lease.ptr.(*T)
	if !ok {
		lease.release(false)
		panic(fmt.Sprintf("container: resolver returned %T for %s", lease.ptr, key))
	}
	return p
}

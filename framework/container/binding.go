package container

import (
	"fmt"
	"reflect"
)

// ── Bindings ──────────────────────────────────────────────────────────────────

type bindingKind uint8

const (
	bindShared  bindingKind = iota + 1 // SharedImmutable
	bindRWLock                         // ReaderWriterProtected
	bindMutex                          // ExclusiveProtected
	bindFactory                        // Factory
)

func (k bindingKind) String() string {
	switch k {
	case bindShared:
		return "shared"
	case bindRWLock:
		return "rwlock"
	case bindMutex:
		return "mutex"
	case bindFactory:
		return "factory"
	default:
		return "invalid"
	}
}

// binding is the type-erased storage for one service type. ptr always holds
// a *T for the key the binding was registered under.
type binding struct {
	kind    bindingKind
	ptr     any
	rw      *rwState
	ex      *exState
	factory func(Resolver) (any, error)
}

func sharedBinding[T any](v T) *binding {
	return &binding{kind: bindShared, ptr: &v}
}

func rwBinding[T any](l *RWLock[T]) *binding {
	return &binding{kind: bindRWLock, ptr: &l.value, rw: &l.state}
}

func mutexBinding[T any](l *Mutex[T]) *binding {
	return &binding{kind: bindMutex, ptr: &l.value, ex: &l.state}
}

func factoryBinding[T any](fn func(Resolver) (T, error)) *binding {
	return &binding{kind: bindFactory, factory: func(res Resolver) (any, error) {
		v, err := fn(res)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}}
}

// immutable acquires read access. Blocks on lock-backed bindings.
func (b *binding) immutable(res Resolver, key reflect.Type) (*Lease, error) {
	switch b.kind {
	case bindShared:
		return &Lease{kind: leaseShared, ptr: b.ptr}, nil
	case bindRWLock:
		b.rw.mu.RLock()
		if b.rw.poisoned.Load() {
			b.rw.mu.RUnlock()
			return nil, newResolveError(Poisoned, key)
		}
		return &Lease{kind: leaseRead, ptr: b.ptr, rw: b.rw}, nil
	case bindMutex:
		return b.lockExclusive(key)
	case bindFactory:
		return b.produce(res, key)
	}
	panic(fmt.Sprintf("container: invalid binding kind %d for %s", b.kind, key))
}

// mutable acquires write access. Blocks on lock-backed bindings.
func (b *binding) mutable(res Resolver, key reflect.Type) (*Lease, error) {
	switch b.kind {
	case bindShared:
		return nil, newResolveError(MutImmutable, key)
	case bindRWLock:
		b.rw.mu.Lock()
		if b.rw.poisoned.Load() {
			b.rw.mu.Unlock()
			return nil, newResolveError(Poisoned, key)
		}
		return &Lease{kind: leaseWrite, ptr: b.ptr, rw: b.rw}, nil
	case bindMutex:
		return b.lockExclusive(key)
	case bindFactory:
		return b.produce(res, key)
	}
	panic(fmt.Sprintf("container: invalid binding kind %d for %s", b.kind, key))
}

// owned returns a fresh *T. Only factories can give up ownership.
func (b *binding) owned(res Resolver, key reflect.Type) (any, error) {
	switch b.kind {
	case bindShared:
		return nil, newResolveError(OwnedImmutable, key)
	case bindRWLock, bindMutex:
		return nil, newResolveError(OwnedMutable, key)
	case bindFactory:
		return b.call(res, key)
	}
	panic(fmt.Sprintf("container: invalid binding kind %d for %s", b.kind, key))
}

func (b *binding) lockExclusive(key reflect.Type) (*Lease, error) {
	b.ex.mu.Lock()
	if b.ex.poisoned.Load() {
		b.ex.mu.Unlock()
		return nil, newResolveError(Poisoned, key)
	}
	return &Lease{kind: leaseExclusive, ptr: b.ptr, ex: b.ex}, nil
}

func (b *binding) produce(res Resolver, key reflect.Type) (*Lease, error) {
	ptr, err := b.call(res, key)
	if err != nil {
		return nil, err
	}
	return &Lease{kind: leaseOwned, ptr: ptr}, nil
}

func (b *binding) call(res Resolver, key reflect.Type) (any, error) {
	ptr, err := b.factory(res)
	if err != nil {
		return nil, fmt.Errorf("container: factory for %s: %w", key, err)
	}
	return ptr, nil
}

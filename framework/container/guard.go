package container

import "fmt"

// ── Lease ─────────────────────────────────────────────────────────────────────

type leaseKind uint8

const (
	leaseShared    leaseKind = iota + 1 // handle to a shared-immutable value
	leaseRead                           // read lock on an RWLock
	leaseWrite                          // write lock on an RWLock
	leaseExclusive                      // lock on a Mutex
	leaseOwned                          // fresh value from a factory
	leaseRef                            // plain reference into caller-local data
)

func (k leaseKind) String() string {
	switch k {
	case leaseShared:
		return "shared"
	case leaseRead:
		return "read"
	case leaseWrite:
		return "write"
	case leaseExclusive:
		return "exclusive"
	case leaseOwned:
		return "owned"
	case leaseRef:
		return "ref"
	default:
		return "invalid"
	}
}

// Lease is the type-erased result of a resolution: a pointer to the value
// plus whatever lock acquisition backs it. Resolver implementations return
// leases; callers normally hold the typed ReadGuard or WriteGuard instead.
//
// A lease is owned by one goroutine and must be released exactly once.
type Lease struct {
	kind     leaseKind
	ptr      any // *T
	rw       *rwState
	ex       *exState
	released bool
}

// RefLease returns a lease over caller-owned data. ptr must be a *T for the
// type it is returned under. Layered resolvers use it to hand out values
// they hold themselves.
func RefLease(ptr any) *Lease {
	return &Lease{kind: leaseRef, ptr: ptr}
}

// Ptr returns the leased *T as an any.
func (l *Lease) Ptr() any {
	if l.released {
		panic(fmt.Sprintf("container: use of released %s guard", l.kind))
	}
	return l.ptr
}

// Writable reports whether the lease permits mutation.
func (l *Lease) Writable() bool {
	switch l.kind {
	case leaseWrite, leaseExclusive, leaseOwned:
		return true
	default:
		return false
	}
}

// Release gives up the lease. When deferred directly and the goroutine is
// panicking, a write or exclusive lease poisons its lock first and re-panics
// with the same value; the trace then starts at Release. Other leases do not
// recover at all.
//
//	lease, err := reg.ResolveMutable(key)
//	if err != nil { ... }
//	defer lease.Release()
func (l *Lease) Release() {
	if l.poisons() {
		if r := recover(); r != nil {
			l.release(true)
			panic(r)
		}
	}
	l.release(false)
}

// poisons reports whether releasing l during a panic poisons a lock. Only
// those leases intercept the panic; the others let it unwind untouched.
func (l *Lease) poisons() bool {
	return l != nil && !l.released && (l.kind == leaseWrite || l.kind == leaseExclusive)
}

// release unlocks whatever the lease holds. Calling it twice is a no-op.
func (l *Lease) release(panicking bool) {
	if l == nil || l.released {
		return
	}
	l.released = true
	switch l.kind {
	case leaseRead:
		l.rw.mu.RUnlock()
	case leaseWrite:
		if panicking {
			l.rw.poisoned.Store(true)
		}
		l.rw.mu.Unlock()
	case leaseExclusive:
		if panicking {
			l.ex.poisoned.Store(true)
		}
		l.ex.mu.Unlock()
	}
}

// ── Typed guards ──────────────────────────────────────────────────────────────

// ReadGuard gives read access to a resolved T until Release is called.
//
//	cfg, err := container.ResolveRef[AppConfig](reg)
//	if err != nil { return err }
//	defer cfg.Release()
//	fmt.Println(cfg.Value().Name)
type ReadGuard[T any] struct {
	lease *Lease
	ptr   *T
}

// Value returns a copy of the guarded value.
func (g *ReadGuard[T]) Value() T {
	g.check()
	return *g.ptr
}

// Release gives up the guard. Defer it directly so that a panic while the
// guard is held is observed and the lock is poisoned where applicable.
func (g *ReadGuard[T]) Release() {
	if g.lease.poisons() {
		if r := recover(); r != nil {
			g.lease.release(true)
			panic(r)
		}
	}
	g.lease.release(false)
}

func (g *ReadGuard[T]) check() {
	if g.lease.released {
		panic(fmt.Sprintf("container: use of released %s guard", g.lease.kind))
	}
}

// WriteGuard gives read and write access to a resolved T until Release is
// called. Other accessors of the same binding wait for it.
//
//	state, err := container.ResolveMut[AppState](reg)
//	if err != nil { return err }
//	defer state.Release()
//	state.Ptr().Subject = "frogs"
type WriteGuard[T any] struct {
	lease *Lease
	ptr   *T
}

// Value returns a copy of the guarded value.
func (g *WriteGuard[T]) Value() T {
	g.check()
	return *g.ptr
}

// Ptr returns a pointer to the guarded value. It must not be retained past
// Release.
func (g *WriteGuard[T]) Ptr() *T {
	g.check()
	return g.ptr
}

// Set replaces the guarded value.
func (g *WriteGuard[T]) Set(v T) {
	g.check()
	*g.ptr = v
}

// Release gives up the guard. Defer it directly: a panic while the guard is
// held poisons the lock behind it.
func (g *WriteGuard[T]) Release() {
	if g.lease.poisons() {
		if r := recover(); r != nil {
			g.lease.release(true)
			panic(r)
		}
	}
	g.lease.release(false)
}

func (g *WriteGuard[T]) check() {
	if g.lease.released {
		panic(fmt.Sprintf("container: use of released %s guard", g.lease.kind))
	}
}

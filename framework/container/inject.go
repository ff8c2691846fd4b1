package container

import "reflect"

// ── Injection ─────────────────────────────────────────────────────────────────

// Dep describes one argument of an injected function: which service to
// resolve and in which access mode. V is the argument type the function
// receives.
type Dep[V any] struct {
	mode    string
	key     reflect.Type
	resolve func(Resolver) (V, *Lease, error)
}

// Mode returns "immutable", "mutable" or "owned".
func (d Dep[V]) Mode() string { return d.mode }

// Type returns the service type the dep resolves.
func (d Dep[V]) Type() reflect.Type { return d.key }

// Ref declares a read-only dependency on T. The function receives a copy of
// the value; any lock stays held until the function returns.
func Ref[T any]() Dep[T] {
	return Dep[T]{mode: modeImmutable, key: reflect.TypeFor[T](), resolve: func(res Resolver) (T, *Lease, error) {
		g, err := ResolveRef[T](res)
		if err != nil {
			var zero T
			return zero, nil, err
		}
		return *g.ptr, g.lease, nil
	}}
}

// Mut declares a mutable dependency on T. The function receives a pointer
// that is valid until it returns.
func Mut[T any]() Dep[*T] {
	return Dep[*T]{mode: modeMutable, key: reflect.TypeFor[T](), resolve: func(res Resolver) (*T, *Lease, error) {
		g, err := ResolveMut[T](res)
		if err != nil {
			return nil, nil, err
		}
		return g.ptr, g.lease, nil
	}}
}

// Owned declares a dependency on a freshly built T.
func Owned[T any]() Dep[T] {
	return Dep[T]{mode: modeOwned, key: reflect.TypeFor[T](), resolve: func(res Resolver) (T, *Lease, error) {
		v, err := ResolveOwned[T](res)
		return v, nil, err
	}}
}

// Injected is a function whose dependencies are resolved from a Resolver at
// call time.
type Injected[R any] func(res Resolver) (R, error)

// scope holds the leases acquired for one injected call.
type scope struct {
	leases []*Lease
}

func resolveDep[V any](s *scope, res Resolver, d Dep[V]) (V, error) {
	v, lease, err := d.resolve(res)
	if err != nil {
		return v, err
	}
	if lease != nil {
		s.leases = append(s.leases, lease)
	}
	return v, nil
}

// close releases leases in reverse order. It must be deferred directly so a
// panic in the injected function poisons the write locks it held.
func (s *scope) close() {
	if s.poisons() {
		if r := recover(); r != nil {
			s.releaseAll(true)
			panic(r)
		}
	}
	s.releaseAll(false)
}

func (s *scope) poisons() bool {
	for _, l := range s.leases {
		if l.poisons() {
			return true
		}
	}
	return false
}

func (s *scope) releaseAll(panicking bool) {
	for i := len(s.leases) - 1; i >= 0; i-- {
		s.leases[i].release(panicking)
	}
	s.leases = nil
}

// Inject1 wraps fn so that its argument is resolved before each call.
//
//	show := container.Inject1(container.Ref[AppConfig](), func(cfg AppConfig) string {
//	    return cfg.Name
//	})
//	name, err := show(reg)
func Inject1[A, R any](a Dep[A], fn func(A) R) Injected[R] {
	return func(res Resolver) (out R, err error) {
		var s scope
		defer s.close()
		va, err := resolveDep(&s, res, a)
		if err != nil {
			return out, err
		}
		return fn(va), nil
	}
}

// Inject2 resolves a then b, in that order, and calls fn. Resolution stops
// at the first failure and fn is not called.
func Inject2[A, B, R any](a Dep[A], b Dep[B], fn func(A, B) R) Injected[R] {
	return func(res Resolver) (out R, err error) {
		var s scope
		defer s.close()
		va, err := resolveDep(&s, res, a)
		if err != nil {
			return out, err
		}
		vb, err := resolveDep(&s, res, b)
		if err != nil {
			return out, err
		}
		return fn(va, vb), nil
	}
}

// Inject3 is Inject2 with three dependencies.
func Inject3[A, B, C, R any](a Dep[A], b Dep[B], c Dep[C], fn func(A, B, C) R) Injected[R] {
	return func(res Resolver) (out R, err error) {
		var s scope
		defer s.close()
		va, err := resolveDep(&s, res, a)
		if err != nil {
			return out, err
		}
		vb, err := resolveDep(&s, res, b)
		if err != nil {
			return out, err
		}
		vc, err := resolveDep(&s, res, c)
		if err != nil {
			return out, err
		}
		return fn(va, vb, vc), nil
	}
}

// Inject4 is Inject2 with four dependencies.
func Inject4[A, B, C, D, R any](a Dep[A], b Dep[B], c Dep[C], d Dep[D], fn func(A, B, C, D) R) Injected[R] {
	return func(res Resolver) (out R, err error) {
		var s scope
		defer s.close()
		va, err := resolveDep(&s, res, a)
		if err != nil {
			return out, err
		}
		vb, err := resolveDep(&s, res, b)
		if err != nil {
			return out, err
		}
		vc, err := resolveDep(&s, res, c)
		if err != nil {
			return out, err
		}
		vd, err := resolveDep(&s, res, d)
		if err != nil {
			return out, err
		}
		return fn(va, vb, vc, vd), nil
	}
}

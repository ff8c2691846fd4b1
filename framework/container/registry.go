package container

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/km-arc/go-ioc/framework/metrics"
)

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry maps service types to bindings.
//
// Bind everything during startup on one goroutine, call Freeze, then share
// the *Registry freely: after Freeze the binding map is only read, so
// resolution needs no synchronization beyond the per-binding locks.
type Registry struct {
	bindings map[reflect.Type]*binding
	frozen   atomic.Bool
	logger   *slog.Logger
	metrics  *metrics.Resolution
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for bind and resolution diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records every resolution into m.
func WithMetrics(m *metrics.Resolution) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		bindings: make(map[reflect.Type]*binding),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ── Registration ──────────────────────────────────────────────────────────────

// BindShared registers v as a shared-immutable service. Readers share one
// copy; mutable and owned resolution are refused.
//
//	container.BindShared(reg, AppConfig{Name: "demo"})
func BindShared[T any](r *Registry, v T) {
	r.bind(reflect.TypeFor[T](), sharedBinding(v))
}

// BindRWLock registers v behind a reader-writer lock.
//
//	container.BindRWLock(reg, AppState{Greeting: "hello", Subject: "world"})
func BindRWLock[T any](r *Registry, v T) {
	BindRWLockHandle(r, NewRWLock(v))
}

// BindRWLockHandle registers an existing RWLock, so the caller keeps a handle
// to it (for ClearPoison or direct inspection).
func BindRWLockHandle[T any](r *Registry, l *RWLock[T]) {
	if l == nil {
		panic(fmt.Sprintf("container: nil RWLock bound for %s", reflect.TypeFor[T]()))
	}
	r.bind(reflect.TypeFor[T](), rwBinding(l))
}

// BindMutex registers v behind an exclusive lock.
func BindMutex[T any](r *Registry, v T) {
	BindMutexHandle(r, NewMutex(v))
}

// BindMutexHandle registers an existing Mutex.
func BindMutexHandle[T any](r *Registry, l *Mutex[T]) {
	if l == nil {
		panic(fmt.Sprintf("container: nil Mutex bound for %s", reflect.TypeFor[T]()))
	}
	r.bind(reflect.TypeFor[T](), mutexBinding(l))
}

// BindFactory registers fn as a factory. It is called once per resolution,
// on the resolving goroutine, and may resolve its own dependencies from res.
//
//	container.BindFactory(reg, func(res container.Resolver) (*S3Client, error) {
//	    cfg, err := container.ResolveRef[AppConfig](res)
//	    if err != nil { return nil, err }
//	    defer cfg.Release()
//	    return s3.New(cfg.Value().Bucket), nil
//	})
func BindFactory[T any](r *Registry, fn func(res Resolver) (T, error)) {
	if fn == nil {
		panic(fmt.Sprintf("container: nil factory bound for %s", reflect.TypeFor[T]()))
	}
	r.bind(reflect.TypeFor[T](), factoryBinding(fn))
}

// BindFactoryFunc registers a factory that needs nothing from the registry.
func BindFactoryFunc[T any](r *Registry, fn func() T) {
	if fn == nil {
		panic(fmt.Sprintf("container: nil factory bound for %s", reflect.TypeFor[T]()))
	}
	BindFactory(r, func(Resolver) (T, error) { return fn(), nil })
}

func (r *Registry) bind(key reflect.Type, b *binding) {
	if r.frozen.Load() {
		panic(fmt.Sprintf("container: bind of %s after Freeze", key))
	}
	if prev, ok := r.bindings[key]; ok {
		r.logger.Debug("binding replaced", "type", key.String(), "was", prev.kind.String(), "now", b.kind.String())
	} else {
		r.logger.Debug("binding added", "type", key.String(), "kind", b.kind.String())
	}
	r.bindings[key] = b
	r.metrics.SetBindings(len(r.bindings))
}

// Freeze ends the setup phase. Later binds panic.
func (r *Registry) Freeze() {
	if r.frozen.CompareAndSwap(false, true) {
		r.logger.Info("registry frozen", "bindings", len(r.bindings))
	}
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether T is bound.
func Has[T any](r *Registry) bool {
	_, ok := r.bindings[reflect.TypeFor[T]()]
	return ok
}

// Len returns the number of bound service types.
func (r *Registry) Len() int { return len(r.bindings) }

// Types returns the bound service types sorted by name.
func (r *Registry) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(r.bindings))
	for k := range r.bindings {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Describe returns "type=kind" pairs for every binding, sorted by type.
func (r *Registry) Describe() string {
	types := r.Types()
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, t.String()+"="+r.bindings[t].kind.String())
	}
	return strings.Join(parts, " ")
}

// ── Resolution ────────────────────────────────────────────────────────────────

const (
	modeImmutable = "immutable"
	modeMutable   = "mutable"
	modeOwned     = "owned"
)

// ResolveImmutable implements Resolver.
func (r *Registry) ResolveImmutable(key reflect.Type) (*Lease, error) {
	return r.resolveImmutableVia(r, key)
}

// ResolveMutable implements Resolver.
func (r *Registry) ResolveMutable(key reflect.Type) (*Lease, error) {
	return r.resolveMutableVia(r, key)
}

// ResolveOwned implements Resolver.
func (r *Registry) ResolveOwned(key reflect.Type) (any, error) {
	return r.resolveOwnedVia(r, key)
}

func (r *Registry) resolveImmutableVia(outer Resolver, key reflect.Type) (*Lease, error) {
	start := time.Now()
	b, ok := r.bindings[key]
	if !ok {
		return nil, r.observe(modeImmutable, key, start, newResolveError(NonExist, key))
	}
	lease, err := b.immutable(outer, key)
	return lease, r.observe(modeImmutable, key, start, err)
}

func (r *Registry) resolveMutableVia(outer Resolver, key reflect.Type) (*Lease, error) {
	start := time.Now()
	b, ok := r.bindings[key]
	if !ok {
		return nil, r.observe(modeMutable, key, start, newResolveError(NonExist, key))
	}
	lease, err := b.mutable(outer, key)
	return lease, r.observe(modeMutable, key, start, err)
}

func (r *Registry) resolveOwnedVia(outer Resolver, key reflect.Type) (any, error) {
	start := time.Now()
	b, ok := r.bindings[key]
	if !ok {
		return nil, r.observe(modeOwned, key, start, newResolveError(NonExist, key))
	}
	v, err := b.owned(outer, key)
	return v, r.observe(modeOwned, key, start, err)
}

// observe records the outcome and passes err through.
func (r *Registry) observe(mode string, key reflect.Type, start time.Time, err error) error {
	outcome := "ok"
	switch kind := KindOf(err); {
	case err == nil:
	case kind == Poisoned:
		outcome = kind.String()
		r.logger.Warn("resolution refused: lock poisoned", "type", key.String(), "mode", mode)
	case kind != 0:
		outcome = kind.String()
		r.logger.Debug("resolution refused", "type", key.String(), "mode", mode, "kind", kind.String())
	default:
		outcome = "factory_error"
		r.logger.Warn("factory failed", "type", key.String(), "mode", mode, "error", err.Error())
	}
	r.metrics.Observe(mode, outcome, time.Since(start))
	return err
}

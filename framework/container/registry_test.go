package container_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/metrics"
)

// ── NonExist ─────────────────────────────────────────────────────────────────

func TestResolve_Unbound_IsNonExistInEveryMode(t *testing.T) {
	reg := container.New()

	_, err := container.ResolveRef[Missing](reg)
	assert.ErrorIs(t, err, container.ErrNonExist)

	_, err = container.ResolveMut[Missing](reg)
	assert.ErrorIs(t, err, container.ErrNonExist)

	_, err = container.ResolveOwned[Missing](reg)
	assert.ErrorIs(t, err, container.ErrNonExist)

	var re *container.ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, reflect.TypeFor[Missing](), re.Type)
}

func TestResolve_TypeIdentityIsExact(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, Counter{N: 1})

	_, err := container.ResolveRef[*Counter](reg)
	assert.ErrorIs(t, err, container.ErrNonExist, "*Counter is not Counter")
}

// ── SharedImmutable ──────────────────────────────────────────────────────────

func TestShared_ReadersShareOneValue(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{Name: "demo"})

	g1, err := container.ResolveRef[AppConfig](reg)
	require.NoError(t, err)
	g2, err := container.ResolveRef[AppConfig](reg)
	require.NoError(t, err)

	assert.Equal(t, "demo", g1.Value().Name)
	assert.Equal(t, "demo", g2.Value().Name)
	g2.Release()
	g1.Release()
}

func TestShared_RefusesMutableAndOwned(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{Name: "demo"})

	_, err := container.ResolveMut[AppConfig](reg)
	assert.ErrorIs(t, err, container.ErrMutImmutable)

	_, err = container.ResolveOwned[AppConfig](reg)
	assert.ErrorIs(t, err, container.ErrOwnedImmutable)
}

// ── ReaderWriterProtected ────────────────────────────────────────────────────

func TestRWLock_ConcurrentReaders(t *testing.T) {
	reg := container.New()
	container.BindRWLock(reg, Counter{N: 7})

	g, err := container.ResolveRef[Counter](reg)
	require.NoError(t, err)
	defer g.Release()

	ok := within(t, timeout, func() {
		g2, err := container.ResolveRef[Counter](reg)
		if assert.NoError(t, err) {
			assert.Equal(t, 7, g2.Value().N)
			g2.Release()
		}
	})
	assert.True(t, ok, "a second reader must not wait for the first")
}

func TestRWLock_WriterExcludesReaders(t *testing.T) {
	reg := container.New()
	container.BindRWLock(reg, Counter{})

	w, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	w.Ptr().N = 5

	seen := make(chan int, 1)
	go func() {
		r, err := container.ResolveRef[Counter](reg)
		if err != nil {
			seen <- -1
			return
		}
		seen <- r.Value().N
		r.Release()
	}()

	select {
	case <-seen:
		t.Fatal("reader acquired while the write guard was held")
	case <-time.After(settle):
	}

	w.Release()
	assert.Equal(t, 5, <-seen, "write must be visible after release")
}

func TestRWLock_RefusesOwned(t *testing.T) {
	reg := container.New()
	container.BindRWLock(reg, Counter{})

	_, err := container.ResolveOwned[Counter](reg)
	assert.ErrorIs(t, err, container.ErrOwnedMutable)
}

func TestRWLock_HandleIsShared(t *testing.T) {
	reg := container.New()
	h := container.NewRWLock(Counter{N: 1})
	container.BindRWLockHandle(reg, h)

	w, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	w.Set(Counter{N: 2})
	w.Release()

	r, err := container.ResolveRef[Counter](reg)
	require.NoError(t, err)
	defer r.Release()
	assert.Equal(t, 2, r.Value().N)
	assert.False(t, h.IsPoisoned())
}

// ── ExclusiveProtected ───────────────────────────────────────────────────────

func TestMutex_ReadsAreExclusiveToo(t *testing.T) {
	reg := container.New()
	container.BindMutex(reg, Counter{N: 3})

	g, err := container.ResolveRef[Counter](reg)
	require.NoError(t, err)

	ok := within(t, settle, func() {
		g2, err := container.ResolveRef[Counter](reg)
		if err == nil {
			g2.Release()
		}
	})
	assert.False(t, ok, "second accessor must wait for the mutex")

	g.Release()
	ok = within(t, timeout, func() {
		w, err := container.ResolveMut[Counter](reg)
		if assert.NoError(t, err) {
			w.Release()
		}
	})
	assert.True(t, ok)
}

func TestMutex_RefusesOwned(t *testing.T) {
	reg := container.New()
	container.BindMutex(reg, Counter{})

	_, err := container.ResolveOwned[Counter](reg)
	assert.ErrorIs(t, err, container.ErrOwnedMutable)
}

// ── Factory ──────────────────────────────────────────────────────────────────

func TestFactory_FreshValueEveryResolution(t *testing.T) {
	reg := container.New()
	next := 0
	container.BindFactoryFunc(reg, func() Session {
		s := Session{ID: next}
		next++
		return s
	})

	r, err := container.ResolveRef[Session](reg)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Value().ID)
	r.Release()

	w, err := container.ResolveMut[Session](reg)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Value().ID)
	w.Ptr().ID = 100
	w.Release()

	s, err := container.ResolveOwned[Session](reg)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ID, "writes to a factory value are not kept")
}

func TestFactory_ResolvesItsOwnDependencies(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{Name: "bucket-a"})
	container.BindFactory(reg, func(res container.Resolver) (Session, error) {
		cfg, err := container.ResolveRef[AppConfig](res)
		if err != nil {
			return Session{}, err
		}
		defer cfg.Release()
		return Session{ID: len(cfg.Value().Name)}, nil
	})

	s, err := container.ResolveOwned[Session](reg)
	require.NoError(t, err)
	assert.Equal(t, len("bucket-a"), s.ID)
}

func TestFactory_ErrorIsWrapped(t *testing.T) {
	reg := container.New()
	boom := errors.New("boom")
	container.BindFactory(reg, func(container.Resolver) (Session, error) {
		return Session{}, boom
	})

	_, err := container.ResolveOwned[Session](reg)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, container.Kind(0), container.KindOf(err))
	assert.Contains(t, err.Error(), "container: factory for container_test.Session")

	_, err = container.ResolveRef[Session](reg)
	assert.ErrorIs(t, err, boom)
}

func TestFactory_DependencyErrorPassesThrough(t *testing.T) {
	reg := container.New()
	container.BindFactory(reg, func(res container.Resolver) (Session, error) {
		_, err := container.ResolveRef[Missing](res)
		return Session{}, err
	})

	_, err := container.ResolveOwned[Session](reg)
	assert.ErrorIs(t, err, container.ErrNonExist)
	assert.Equal(t, container.NonExist, container.KindOf(err))
}

// ── Registration ─────────────────────────────────────────────────────────────

func TestBind_ReplacesPreviousBinding(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, Counter{N: 1})
	container.BindRWLock(reg, Counter{N: 2})

	assert.Equal(t, 1, reg.Len())

	w, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	defer w.Release()
	assert.Equal(t, 2, w.Value().N)
}

func TestBind_NilHandlesPanic(t *testing.T) {
	reg := container.New()
	assert.Panics(t, func() { container.BindRWLockHandle[Counter](reg, nil) })
	assert.Panics(t, func() { container.BindMutexHandle[Counter](reg, nil) })
	assert.Panics(t, func() { container.BindFactory[Counter](reg, nil) })
	assert.Panics(t, func() { container.BindFactoryFunc[Counter](reg, nil) })
	assert.Zero(t, reg.Len())
}

func TestFreeze(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{})
	assert.False(t, reg.Frozen())

	reg.Freeze()
	reg.Freeze()
	assert.True(t, reg.Frozen())

	assert.PanicsWithValue(t, "container: bind of container_test.Counter after Freeze", func() {
		container.BindShared(reg, Counter{})
	})

	g, err := container.ResolveRef[AppConfig](reg)
	require.NoError(t, err)
	g.Release()
}

func TestHasTypesDescribe(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{})
	container.BindMutex(reg, Counter{})
	container.BindFactoryFunc(reg, func() Session { return Session{} })

	assert.True(t, container.Has[Counter](reg))
	assert.False(t, container.Has[Missing](reg))
	assert.Equal(t, []reflect.Type{
		reflect.TypeFor[AppConfig](),
		reflect.TypeFor[Counter](),
		reflect.TypeFor[Session](),
	}, reg.Types())
	assert.Equal(t,
		"container_test.AppConfig=shared container_test.Counter=mutex container_test.Session=factory",
		reg.Describe())
}

// ── End to end ───────────────────────────────────────────────────────────────

func TestRegistry_SharedAcrossGoroutines(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{Name: "demo"})
	container.BindRWLock(reg, Counter{})
	reg.Freeze()

	const workers = 32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := container.ResolveRef[AppConfig](reg)
			if !assert.NoError(t, err) {
				return
			}
			defer cfg.Release()

			c, err := container.ResolveMut[Counter](reg)
			if !assert.NoError(t, err) {
				return
			}
			defer c.Release()
			c.Ptr().N += len(cfg.Value().Name)
		}()
	}
	wg.Wait()

	c, err := container.ResolveRef[Counter](reg)
	require.NoError(t, err)
	defer c.Release()
	assert.Equal(t, workers*len("demo"), c.Value().N)
}

// ── Metrics ──────────────────────────────────────────────────────────────────

func TestRegistry_RecordsMetrics(t *testing.T) {
	m := metrics.NewResolution(prometheus.NewRegistry())
	reg := container.New(container.WithMetrics(m))
	container.BindShared(reg, AppConfig{})
	container.BindFactory(reg, func(container.Resolver) (Session, error) {
		return Session{}, errors.New("down")
	})

	g, err := container.ResolveRef[AppConfig](reg)
	require.NoError(t, err)
	g.Release()
	_, _ = container.ResolveMut[AppConfig](reg)
	_, _ = container.ResolveOwned[Missing](reg)
	_, _ = container.ResolveOwned[Session](reg)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Total.WithLabelValues("immutable", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Total.WithLabelValues("mutable", "MutImmutable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Total.WithLabelValues("owned", "NonExist")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Total.WithLabelValues("owned", "factory_error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Bindings))
}

package container_test

import (
	"reflect"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/container"
)

// ── Poisoning ────────────────────────────────────────────────────────────────

func TestWriteGuard_PanicPoisonsRWLock(t *testing.T) {
	reg := container.New()
	state := container.NewRWLock(Counter{})
	container.BindRWLockHandle(reg, state)

	assert.PanicsWithValue(t, "boom", func() {
		g, err := container.ResolveMut[Counter](reg)
		require.NoError(t, err)
		defer g.Release()
		g.Ptr().N = 99
		panic("boom")
	})

	assert.True(t, state.IsPoisoned())

	_, err := container.ResolveRef[Counter](reg)
	assert.ErrorIs(t, err, container.ErrPoisoned)
	_, err = container.ResolveMut[Counter](reg)
	assert.ErrorIs(t, err, container.ErrPoisoned)

	// The lock itself was released: clearing the flag restores access.
	state.ClearPoison()
	g, err := container.ResolveRef[Counter](reg)
	require.NoError(t, err)
	defer g.Release()
	assert.Equal(t, 99, g.Value().N)
}

func TestReadGuard_PanicDoesNotPoisonRWLock(t *testing.T) {
	reg := container.New()
	state := container.NewRWLock(Counter{})
	container.BindRWLockHandle(reg, state)

	assert.Panics(t, func() {
		g, err := container.ResolveRef[Counter](reg)
		require.NoError(t, err)
		defer g.Release()
		panic("boom")
	})

	assert.False(t, state.IsPoisoned())
	w, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	w.Release()
}

func TestMutex_AnyPanickingHolderPoisons(t *testing.T) {
	reg := container.New()
	state := container.NewMutex(Counter{})
	container.BindMutexHandle(reg, state)

	assert.Panics(t, func() {
		g, err := container.ResolveRef[Counter](reg)
		require.NoError(t, err)
		defer g.Release()
		panic("boom")
	})

	assert.True(t, state.IsPoisoned())
	_, err := container.ResolveMut[Counter](reg)
	assert.ErrorIs(t, err, container.ErrPoisoned)

	state.ClearPoison()
	assert.False(t, state.IsPoisoned())
	g, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	g.Release()
}

func TestSharedAndFactory_NeverPoison(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{Name: "demo"})
	container.BindFactoryFunc(reg, func() Session { return Session{ID: 1} })

	assert.Panics(t, func() {
		g, err := container.ResolveRef[AppConfig](reg)
		require.NoError(t, err)
		defer g.Release()
		panic("boom")
	})
	assert.Panics(t, func() {
		g, err := container.ResolveMut[Session](reg)
		require.NoError(t, err)
		defer g.Release()
		panic("boom")
	})

	g, err := container.ResolveRef[AppConfig](reg)
	require.NoError(t, err)
	g.Release()
	s, err := container.ResolveMut[Session](reg)
	require.NoError(t, err)
	s.Release()
}

// ── Release ──────────────────────────────────────────────────────────────────

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	reg := container.New()
	container.BindRWLock(reg, Counter{})

	g, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	g.Release()
	assert.NotPanics(t, g.Release)

	// A double unlock would have corrupted the lock; a fresh writer works.
	ok := within(t, timeout, func() {
		w, err := container.ResolveMut[Counter](reg)
		if assert.NoError(t, err) {
			w.Release()
		}
	})
	assert.True(t, ok)
}

func TestGuard_UseAfterReleasePanics(t *testing.T) {
	reg := container.New()
	container.BindRWLock(reg, Counter{})

	r, err := container.ResolveRef[Counter](reg)
	require.NoError(t, err)
	r.Release()
	assert.PanicsWithValue(t, "container: use of released read guard", func() { r.Value() })

	w, err := container.ResolveMut[Counter](reg)
	require.NoError(t, err)
	w.Release()
	assert.PanicsWithValue(t, "container: use of released write guard", func() { w.Ptr() })
	assert.Panics(t, func() { w.Set(Counter{}) })
}

// ── Lease ────────────────────────────────────────────────────────────────────

func TestLease(t *testing.T) {
	v := Counter{N: 4}
	l := container.RefLease(&v)

	assert.False(t, l.Writable())
	assert.Same(t, &v, l.Ptr())

	l.Release()
	assert.Panics(t, func() { l.Ptr() })
}

func TestLease_ReleasePoisonsOnPanic(t *testing.T) {
	reg := container.New()
	state := container.NewRWLock(Counter{})
	container.BindRWLockHandle(reg, state)
	key := reflect.TypeFor[Counter]()

	assert.Panics(t, func() {
		l, err := reg.ResolveMutable(key)
		require.NoError(t, err)
		defer l.Release()
		assert.True(t, l.Writable())
		panic("boom")
	})
	assert.True(t, state.IsPoisoned())
}

// panicStack runs fn and returns the goroutine stack as seen while its
// panic unwinds past fn.
func panicStack(fn func()) (stack string) {
	defer func() {
		s := debug.Stack()
		if recover() != nil {
			stack = string(s)
		}
	}()
	fn()
	return ""
}

func TestRelease_OnlyPoisoningGuardsInterceptPanics(t *testing.T) {
	reg := container.New()
	container.BindShared(reg, AppConfig{Name: "demo"})
	container.BindRWLock(reg, Counter{})
	container.BindFactoryFunc(reg, func() Session { return Session{ID: 1} })

	passThrough := map[string]func(){
		"shared": func() {
			g, err := container.ResolveRef[AppConfig](reg)
			require.NoError(t, err)
			defer g.Release()
			panic("boom")
		},
		"read": func() {
			g, err := container.ResolveRef[Counter](reg)
			require.NoError(t, err)
			defer g.Release()
			panic("boom")
		},
		"owned": func() {
			g, err := container.ResolveMut[Session](reg)
			require.NoError(t, err)
			defer g.Release()
			panic("boom")
		},
	}
	for name, fn := range passThrough {
		stack := panicStack(fn)
		require.NotEmpty(t, stack, name)
		assert.NotContains(t, stack, ").Release(", name)
	}

	stack := panicStack(func() {
		g, err := container.ResolveMut[Counter](reg)
		require.NoError(t, err)
		defer g.Release()
		panic("boom")
	})
	assert.Contains(t, stack, ").Release(", "write guards re-panic from Release")
}

package container

import (
	"sync"
	"sync/atomic"
)

// ── Poisonable locks ──────────────────────────────────────────────────────────

// rwState is the non-generic half of an RWLock. Leases point at it directly
// so releasing a guard never needs the value's type.
type rwState struct {
	mu       sync.RWMutex
	poisoned atomic.Bool
}

// exState is the non-generic half of a Mutex.
type exState struct {
	mu       sync.Mutex
	poisoned atomic.Bool
}

// RWLock guards one value with a reader-writer lock: many readers or one
// writer. A writer that panics while holding its guard poisons the lock.
//
//	state := container.NewRWLock(AppState{Subject: "world"})
//	container.BindRWLockHandle(reg, state)
type RWLock[T any] struct {
	state rwState
	value T
}

// NewRWLock wraps v in an unpoisoned RWLock.
func NewRWLock[T any](v T) *RWLock[T] {
	return &RWLock[T]{value: v}
}

// IsPoisoned reports whether a writer panicked while holding the lock.
func (l *RWLock[T]) IsPoisoned() bool { return l.state.poisoned.Load() }

// ClearPoison resets the poison flag. Callers use it after restoring the
// value to a consistent state.
func (l *RWLock[T]) ClearPoison() { l.state.poisoned.Store(false) }

// Mutex guards one value with an exclusive lock: one accessor at a time,
// whether it reads or writes. Any holder that panics poisons it.
type Mutex[T any] struct {
	state exState
	value T
}

// NewMutex wraps v in an unpoisoned Mutex.
func NewMutex[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// IsPoisoned reports whether a holder panicked while holding the lock.
func (l *Mutex[T]) IsPoisoned() bool { return l.state.poisoned.Load() }

// ClearPoison resets the poison flag.
func (l *Mutex[T]) ClearPoison() { l.state.poisoned.Store(false) }

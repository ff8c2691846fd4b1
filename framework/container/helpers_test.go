package container_test

import (
	"testing"
	"time"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type AppConfig struct {
	Name string
}

type Counter struct {
	N int
}

type Session struct {
	ID int
}

type Missing struct{}

const (
	settle  = 50 * time.Millisecond
	timeout = 2 * time.Second
)

// within runs fn on a new goroutine and reports whether it returned before d.
func within(t *testing.T, d time.Duration, fn func()) bool {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

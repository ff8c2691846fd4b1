package container

import (
	"errors"
	"reflect"
)

// Kind classifies why a resolution failed. The set is closed.
type Kind int

const (
	// NonExist: no binding is registered for the requested type.
	NonExist Kind = iota + 1
	// Poisoned: the lock behind the binding was left inconsistent by a
	// holder that panicked.
	Poisoned
	// MutImmutable: mutable access requested on a shared-immutable binding.
	MutImmutable
	// OwnedMutable: owned value requested from a lock-protected binding.
	OwnedMutable
	// OwnedImmutable: owned value requested from a shared-immutable binding.
	OwnedImmutable
)

// Sentinels for errors.Is. A *ResolveError matches the sentinel of its Kind.
var (
	ErrNonExist       = errors.New("container: tried to resolve a non-existent service")
	ErrPoisoned       = errors.New("container: tried to resolve a service whose lock is poisoned")
	ErrMutImmutable   = errors.New("container: tried to get mutable reference to immutable service")
	ErrOwnedMutable   = errors.New("container: tried to get owned value from mutable singleton service")
	ErrOwnedImmutable = errors.New("container: tried to get owned value from immutable singleton service")
)

func (k Kind) String() string {
	switch k {
	case NonExist:
		return "NonExist"
	case Poisoned:
		return "Poisoned"
	case MutImmutable:
		return "MutImmutable"
	case OwnedMutable:
		return "OwnedMutable"
	case OwnedImmutable:
		return "OwnedImmutable"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case NonExist:
		return ErrNonExist
	case Poisoned:
		return ErrPoisoned
	case MutImmutable:
		return ErrMutImmutable
	case OwnedMutable:
		return ErrOwnedMutable
	case OwnedImmutable:
		return ErrOwnedImmutable
	default:
		return nil
	}
}

// ResolveError is returned by every failed resolution. Type is the
// service type that was requested.
//
//	if errors.Is(err, container.ErrMutImmutable) { ... }
//
//	var re *container.ResolveError
//	if errors.As(err, &re) { log.Warn("resolve failed", "kind", re.Kind, "type", re.Type) }
type ResolveError struct {
	Kind Kind
	Type reflect.Type
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	msg := "container: unknown resolve error"
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Type != nil {
		msg += " [" + e.Type.String() + "]"
	}
	return msg
}

// Is reports whether target is the sentinel for e.Kind.
func (e *ResolveError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

func newResolveError(kind Kind, key reflect.Type) error {
	return &ResolveError{Kind: kind, Type: key}
}

// KindOf returns the Kind carried by err, or 0 if err is not a resolution error.
func KindOf(err error) Kind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

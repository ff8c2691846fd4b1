package container_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-ioc/framework/container"
)

func TestResolveError_Message(t *testing.T) {
	err := &container.ResolveError{Kind: container.NonExist, Type: reflect.TypeFor[Missing]()}
	assert.Equal(t,
		"container: tried to resolve a non-existent service [container_test.Missing]",
		err.Error())

	assert.Equal(t, "container: unknown resolve error", (&container.ResolveError{}).Error())
}

func TestResolveError_IsMatchesOwnSentinelOnly(t *testing.T) {
	sentinels := map[container.Kind]error{
		container.NonExist:       container.ErrNonExist,
		container.Poisoned:       container.ErrPoisoned,
		container.MutImmutable:   container.ErrMutImmutable,
		container.OwnedMutable:   container.ErrOwnedMutable,
		container.OwnedImmutable: container.ErrOwnedImmutable,
	}

	for kind, want := range sentinels {
		err := &container.ResolveError{Kind: kind}
		for other, sentinel := range sentinels {
			assert.Equal(t, other == kind, errors.Is(err, sentinel), "%s vs %s", kind, other)
		}
		assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), want)
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", &container.ResolveError{Kind: container.Poisoned})
	assert.Equal(t, container.Poisoned, container.KindOf(err))
	assert.Equal(t, container.Kind(0), container.KindOf(errors.New("plain")))
	assert.Equal(t, container.Kind(0), container.KindOf(nil))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "NonExist", container.NonExist.String())
	assert.Equal(t, "OwnedImmutable", container.OwnedImmutable.String())
	assert.Equal(t, "Unknown", container.Kind(42).String())
}

package di

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chainA struct{}
type chainB struct{}
type chainC struct{}

// push / pop
func TestChainPushPop(t *testing.T) {
	t.Parallel()

	a := reflect.TypeFor[chainA]()
	b := reflect.TypeFor[chainB]()

	c := newResolutionChain()
	require.NoError(t, c.push(a))
	require.NoError(t, c.push(b))

	c.pop()
	// b is free again, a is still guarded
	require.NoError(t, c.push(b))
	err := c.push(a)
	require.Error(t, err)
}

// push: repeated type fails with the full path
func TestChainCycleError(t *testing.T) {
	t.Parallel()

	a := reflect.TypeFor[chainA]()
	b := reflect.TypeFor[chainB]()
	c := reflect.TypeFor[chainC]()

	ch := newResolutionChain()
	require.NoError(t, ch.push(a))
	require.NoError(t, ch.push(b))
	require.NoError(t, ch.push(c))

	err := ch.push(b)
	require.Error(t, err)

	var cyc CircularDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []reflect.Type{a, b, c, b}, cyc.Chain)
}

// guard: pops on success and on error
func TestChainGuardPopsOnEveryExit(t *testing.T) {
	t.Parallel()

	a := reflect.TypeFor[chainA]()
	ch := newResolutionChain()

	_, err := ch.guard(a, func() (any, error) { return nil, nil })
	require.NoError(t, err)
	require.NoError(t, ch.push(a))
	ch.pop()

	_, err = ch.guard(a, func() (any, error) { return nil, errors.New("create failed") })
	require.Error(t, err)
	// sibling resolution of the same type must not see a stale guard
	require.NoError(t, ch.push(a))
}

// guard: nested guard of the same type reports the cycle
func TestChainGuardNestedCycle(t *testing.T) {
	t.Parallel()

	a := reflect.TypeFor[chainA]()
	ch := newResolutionChain()

	_, err := ch.guard(a, func() (any, error) {
		return ch.guard(a, func() (any, error) { return nil, nil })
	})
	var cyc CircularDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []reflect.Type{a, a}, cyc.Chain)
}

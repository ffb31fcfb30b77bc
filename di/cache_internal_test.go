package di

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedValue struct{ n int }

func cacheKey() serviceKey {
	return serviceKey{Type: reflect.TypeFor[cachedValue]()}
}

// get / set
func TestCacheGetSet(t *testing.T) {
	t.Parallel()

	c := newLifetimeCache()
	k := cacheKey()

	_, ok := c.get(k)
	require.False(t, ok)

	c.set(k, &cachedValue{n: 1})
	v, ok := c.get(k)
	require.True(t, ok)
	assert.Equal(t, 1, v.(*cachedValue).n)
}

// getOrCreate: second call hits the cache
func TestCacheGetOrCreateCachesResult(t *testing.T) {
	t.Parallel()

	c := newLifetimeCache()
	k := cacheKey()
	calls := 0

	create := func() (any, error) {
		calls++
		return &cachedValue{n: calls}, nil
	}

	v1, err := c.getOrCreate(nil, k, create)
	require.NoError(t, err)
	v2, err := c.getOrCreate(nil, k, create)
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	assert.Equal(t, 1, calls)
}

// getOrCreate: concurrent callers share one creation
func TestCacheReservationExactlyOnce(t *testing.T) {
	t.Parallel()

	c := newLifetimeCache()
	k := cacheKey()

	var calls atomic.Int32
	release := make(chan struct{})
	create := func() (any, error) {
		calls.Add(1)
		<-release
		return &cachedValue{}, nil
	}

	const waiters = 8
	results := make([]any, waiters)
	errs := make([]error, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.getOrCreate(context.Background(), k, create)
		}()
	}

	// let the waiters pile up on the reservation before releasing creation
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, int32(1), calls.Load())
	for i := 1; i < waiters; i++ {
		assert.Same(t, results[0], results[i])
	}
}

// getOrCreate: waiters observe the creator's failure, and the entry is
// removed so a later call can retry
func TestCacheReservationFailurePropagates(t *testing.T) {
	t.Parallel()

	c := newLifetimeCache()
	k := cacheKey()

	release := make(chan struct{})
	failing := func() (any, error) {
		<-release
		return nil, errors.New("factory exploded")
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.getOrCreate(context.Background(), k, failing)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Error(t, errs[0])
	require.Error(t, errs[1])
	assert.Equal(t, errs[0].Error(), errs[1].Error())

	// the failed reservation must not poison the slot
	v, err := c.getOrCreate(nil, k, func() (any, error) { return &cachedValue{n: 7}, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v.(*cachedValue).n)
}

// getOrCreate: a waiter's context can expire while creation continues
func TestCacheWaiterContextExpiry(t *testing.T) {
	t.Parallel()

	c := newLifetimeCache()
	k := cacheKey()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = c.getOrCreate(context.Background(), k, func() (any, error) {
			close(started)
			<-release
			return &cachedValue{n: 42}, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.getOrCreate(ctx, k, func() (any, error) { return nil, nil })
	require.ErrorIs(t, err, context.Canceled)

	// the abandoned creation still completes and lands in the cache
	close(release)
	v, err := c.getOrCreate(nil, k, func() (any, error) { return nil, errors.New("should not run") })
	require.NoError(t, err)
	assert.Equal(t, 42, v.(*cachedValue).n)
}

// dispose: all operations rejected afterward
func TestCacheDisposed(t *testing.T) {
	t.Parallel()

	c := newLifetimeCache()
	k := cacheKey()
	c.set(k, &cachedValue{})

	c.dispose()
	require.True(t, c.isDisposed())

	_, err := c.getOrCreate(nil, k, func() (any, error) { return &cachedValue{}, nil })
	var state InvalidStateError
	require.True(t, errors.As(err, &state))
	assert.Equal(t, "disposed", state.State)
}

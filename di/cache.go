package di

import (
	"context"
	"reflect"
	"sync"
)

// serviceKey identifies one cache slot: a service type plus its optional
// registration key.
type serviceKey struct {
	Type reflect.Type
	Key  any
}

// reservation is a pending handle published into a cache before its factory
// completes. Concurrent resolvers of the same slot wait on done instead of
// invoking the factory a second time; value and err are written before done
// is closed.
type reservation struct {
	done  chan struct{}
	value any
	err   error
}

// wait blocks until the reservation is fulfilled or the context expires. The
// underlying creation always runs to completion; abandoning a waiter never
// leaves a permanently-pending entry.
func (p *reservation) wait(ctx context.Context) (any, error) {
	if ctx == nil {
		<-p.done
	} else {
		select {
		case <-p.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.value, p.err
}

// lifetimeCache stores created instances per (type, key) slot. The container
// root owns one for singletons; every scope owns one for its scoped
// services. A disposed cache rejects all operations.
type lifetimeCache struct {
	mu           sync.Mutex
	entries      map[serviceKey]any
	reservations map[serviceKey]*reservation
	disposed     bool
}

func newLifetimeCache() *lifetimeCache {
	return &lifetimeCache{
		entries:      map[serviceKey]any{},
		reservations: map[serviceKey]*reservation{},
	}
}

// get returns the completed instance for k, if any.
func (c *lifetimeCache) get(k serviceKey) (any, bool) {
	c.mu.Lock()
	v, ok := c.entries[k]
	c.mu.Unlock()
	return v, ok
}

// set stores a completed instance for k.
func (c *lifetimeCache) set(k serviceKey, v any) {
	c.mu.Lock()
	if !c.disposed {
		c.entries[k] = v
	}
	c.mu.Unlock()
}

// getOrCreate returns the cached instance for k, waits on an in-flight
// reservation for k, or publishes a new reservation and runs create. The
// reservation is published before create runs, and is fulfilled or removed
// on every exit, so all concurrent callers observe exactly one creation and
// share its outcome, success or failure.
func (c *lifetimeCache) getOrCreate(ctx context.Context, k serviceKey, create func() (any, error)) (any, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, InvalidStateError{Op: "resolve", State: "disposed"}
	}
	if v, ok := c.entries[k]; ok {
		c.mu.Unlock()
		return v, nil
	}
	if p, ok := c.reservations[k]; ok {
		c.mu.Unlock()
		return p.wait(ctx)
	}
	p := &reservation{done: make(chan struct{})}
	c.reservations[k] = p
	c.mu.Unlock()

	v, err := create()

	c.mu.Lock()
	delete(c.reservations, k)
	if err == nil && !c.disposed {
		c.entries[k] = v
	}
	c.mu.Unlock()

	p.value, p.err = v, err
	close(p.done)
	return v, err
}

// dispose marks the cache unusable and drops its entries. Teardown ordering
// is the disposal tracker's job, not the cache's.
func (c *lifetimeCache) dispose() {
	c.mu.Lock()
	c.disposed = true
	c.entries = nil
	c.reservations = nil
	c.mu.Unlock()
}

// isDisposed reports whether dispose was called.
func (c *lifetimeCache) isDisposed() bool {
	c.mu.Lock()
	d := c.disposed
	c.mu.Unlock()
	return d
}

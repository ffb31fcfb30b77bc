package di

import (
	"context"
	"reflect"
	"sync"
)

// Disposable is the synchronous teardown capability. io.Closer satisfies it.
type Disposable interface {
	Close() error
}

// ContextDisposable is the context-aware teardown capability, preferred by
// DisposeCtx when an instance exposes both.
type ContextDisposable interface {
	Shutdown(ctx context.Context) error
}

// disposalTracker records created instances that expose a teardown
// capability and releases them in reverse creation order: consumers before
// their dependencies. One tracker exists per scope, plus one on the root for
// singletons and root-resolved services.
type disposalTracker struct {
	mu        sync.Mutex
	instances []any
	disposed  bool
}

func newDisposalTracker() *disposalTracker {
	return &disposalTracker{}
}

// track appends v if it is teardown-capable; everything else is ignored.
// Append order is creation order.
func (t *disposalTracker) track(v any) {
	switch v.(type) {
	case Disposable, ContextDisposable:
	default:
		return
	}
	t.mu.Lock()
	if !t.disposed {
		t.instances = append(t.instances, v)
	}
	t.mu.Unlock()
}

// count reports how many instances are awaiting teardown.
func (t *disposalTracker) count() int {
	t.mu.Lock()
	n := len(t.instances)
	t.mu.Unlock()
	return n
}

// dispose tears down every tracked instance in reverse order. Every teardown
// is attempted regardless of earlier failures; the failures are raised
// together as one DisposalError. A second call is a no-op.
func (t *disposalTracker) dispose() error {
	return t.drain(nil)
}

// disposeCtx is dispose preferring context-aware teardown where available.
func (t *disposalTracker) disposeCtx(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return t.drain(ctx)
}

func (t *disposalTracker) drain(ctx context.Context) error {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return nil
	}
	t.disposed = true
	instances := t.instances
	t.instances = nil
	t.mu.Unlock()

	var failures []DisposalFailure
	for i := len(instances) - 1; i >= 0; i-- {
		if err := teardown(ctx, instances[i]); err != nil {
			failures = append(failures, DisposalFailure{
				Type: reflect.TypeOf(instances[i]).String(),
				Err:  err,
			})
		}
	}

	if len(failures) > 0 {
		return DisposalError{Failures: failures}
	}
	return nil
}

// teardown invokes one instance's teardown. On the context-aware path the
// context variant wins; on the synchronous path context-only instances are
// still shut down with a background context rather than leaked.
func teardown(ctx context.Context, v any) error {
	if ctx != nil {
		if cd, ok := v.(ContextDisposable); ok {
			return cd.Shutdown(ctx)
		}
		return v.(Disposable).Close()
	}
	if d, ok := v.(Disposable); ok {
		return d.Close()
	}
	return v.(ContextDisposable).Shutdown(context.Background())
}

package di

import (
	"context"
	"reflect"
)

// executor walks compiled site trees to produce instances, consulting the
// lifetime caches, threading the resolution chain, and registering created
// instances with the owning disposal tracker.
type executor struct {
	plan *plan
}

// resolution is the live state of one top-level resolve call: the active
// scope, the cycle chain, and the context on the context-aware path (nil on
// the synchronous path). It is the Resolver handed to factories, decorators,
// and constructor callbacks, so nested requests share the same chain.
type resolution struct {
	exec  *executor
	scope *Scope
	chain *resolutionChain
	ctx   context.Context
}

// Resolve implements Resolver for nested requests.
func (r *resolution) Resolve(serviceType reflect.Type) (any, error) {
	site, ok := r.exec.plan.nodes[serviceType]
	if !ok {
		return nil, MissingServiceError{Type: serviceType}
	}
	return r.exec.resolveSite(site, r)
}

// ResolveKeyed implements Resolver for nested keyed requests.
func (r *resolution) ResolveKeyed(serviceType reflect.Type, key any) (any, error) {
	site, ok := r.exec.plan.keyed[serviceKey{Type: serviceType, Key: key}]
	if !ok {
		return nil, MissingServiceError{Type: serviceType, Key: key}
	}
	return r.exec.resolveSite(site, r)
}

// ResolveAll implements Resolver: one instance per registration of the type,
// in registration order.
func (r *resolution) ResolveAll(serviceType reflect.Type) ([]any, error) {
	sites := r.exec.plan.allNodes[serviceType]
	out := make([]any, 0, len(sites))
	for _, site := range sites {
		v, err := r.exec.resolveSite(site, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// resolveSite guards the site's declared type on the chain, then executes
// the site tree. The push happens once per service: wrapper nodes below
// share the slot, so a keyed variant or lifetime wrapper never trips the
// guard against its own terminal.
func (e *executor) resolveSite(site callSite, r *resolution) (any, error) {
	return r.chain.guard(site.serviceType(), func() (any, error) {
		return e.visit(site, r)
	})
}

// visit dispatches on the node kind. The switch is exhaustive over the
// closed set of site types.
func (e *executor) visit(site callSite, r *resolution) (any, error) {
	switch s := site.(type) {
	case *instanceCallSite:
		return s.value, nil

	case *lifetimeCallSite:
		return e.visitLifetime(s, r)

	case *keyedCallSite:
		return e.visit(s.inner, r)

	case *decoratorCallSite:
		v, err := e.visit(s.inner, r)
		if err != nil {
			return nil, err
		}
		for _, d := range s.decorators {
			if v, err = d(r, v); err != nil {
				return nil, err
			}
		}
		return v, nil

	case *factoryCallSite:
		return s.fn(r)

	case *ctxFactoryCallSite:
		if r.ctx == nil {
			return nil, ErrAsyncOnly
		}
		return s.fn(r.ctx, r)

	case *constructorCallSite:
		factory, ok := e.plan.lookup.Lookup(s.impl)
		if !ok {
			return nil, MissingServiceError{Type: s.impl}
		}
		return factory(r)

	default:
		return nil, InvalidStateError{Op: "resolve", State: "corrupt"}
	}
}

// visitLifetime applies the caching behavior of the wrapper. Singletons go
// to the root cache and root tracker. Scoped services go to the active
// scope's cache and tracker; resolved with no open scope they fall back to
// the root, which acts as an implicit scope. Transients are created fresh
// every time and still tracked by the active scope so they are torn down
// with it.
func (e *executor) visitLifetime(s *lifetimeCallSite, r *resolution) (any, error) {
	switch s.lifetime {
	case Transient:
		v, err := e.visit(s.inner, r)
		if err != nil {
			return nil, err
		}
		r.scope.tracker.track(v)
		return v, nil

	case Singleton:
		return e.cached(s, r, r.scope.container.root)

	default: // Scoped
		return e.cached(s, r, r.scope)
	}
}

// cached resolves s.inner through owner's cache under the reservation
// protocol, tracking the instance with owner's disposal tracker on first
// creation. Prebuilt instances are cached but never tracked: the container
// did not create the value and does not own its teardown.
func (e *executor) cached(s *lifetimeCallSite, r *resolution, owner *Scope) (any, error) {
	k := serviceKey{Type: s.typ, Key: s.key}
	return owner.cache.getOrCreate(r.ctx, k, func() (any, error) {
		v, err := e.visit(s.inner, r)
		if err != nil {
			return nil, err
		}
		if _, prebuilt := s.inner.(*instanceCallSite); !prebuilt {
			owner.tracker.track(v)
		}
		return v, nil
	})
}

package di

import "reflect"

// A callSite is one compiled, immutable instruction for producing a service
// instance. Terminal sites carry a creation strategy; wrapper sites add
// lifetime caching, key routing, or decoration. Sites form a tree built once
// at compile time and shared read-only by the root and all scopes.
type callSite interface {
	// serviceType is the declared type the site produces, used as the
	// resolution chain slot and the cache key component.
	serviceType() reflect.Type
}

// instanceCallSite returns a prebuilt value. Always singleton-lifetime and
// never tracked for disposal: the container did not create the value.
type instanceCallSite struct {
	typ   reflect.Type
	value any
}

func (s *instanceCallSite) serviceType() reflect.Type { return s.typ }

// factoryCallSite invokes a synchronous factory.
type factoryCallSite struct {
	typ reflect.Type
	fn  Factory
}

func (s *factoryCallSite) serviceType() reflect.Type { return s.typ }

// ctxFactoryCallSite invokes a context-aware factory. Only reachable through
// the ResolveCtx entry points.
type ctxFactoryCallSite struct {
	typ reflect.Type
	fn  CtxFactory
}

func (s *ctxFactoryCallSite) serviceType() reflect.Type { return s.typ }

// constructorCallSite delegates to the factory registered for impl in the
// plan's ImplementationFactoryLookup. Its dependencies are discovered only
// when the factory calls back into the resolver.
type constructorCallSite struct {
	typ  reflect.Type
	impl reflect.Type
}

func (s *constructorCallSite) serviceType() reflect.Type { return s.typ }

// lifetimeCallSite wraps exactly one inner site and selects where its result
// is cached: the root cache for singletons, the active scope's cache for
// scoped services, nowhere for transients.
type lifetimeCallSite struct {
	typ      reflect.Type
	key      any
	lifetime Lifetime
	inner    callSite
}

func (s *lifetimeCallSite) serviceType() reflect.Type { return s.typ }

// keyedCallSite routes a keyed lookup to its lifetime wrapper. The declared
// type and its keyed variant intentionally share one resolution chain slot.
type keyedCallSite struct {
	typ   reflect.Type
	key   any
	inner callSite
}

func (s *keyedCallSite) serviceType() reflect.Type { return s.typ }

// decoratorCallSite resolves its inner terminal, then applies each decorator
// in registration order. It sits inside the lifetime wrapper, so caches hold
// the decorated instance.
type decoratorCallSite struct {
	typ        reflect.Type
	inner      callSite
	decorators []Decorator
}

func (s *decoratorCallSite) serviceType() reflect.Type { return s.typ }

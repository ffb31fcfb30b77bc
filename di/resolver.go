package di

import (
	"context"
	"reflect"
)

// Resolver resolves services synchronously. It is implemented by the
// Container, by every Scope, and by the callback handed to factories and
// decorators during resolution. A factory that resolves through the callback
// participates in the caller's resolution chain, so transitive cycles are
// caught at run time.
type Resolver interface {
	// Resolve returns the instance for the last registration of serviceType.
	Resolve(serviceType reflect.Type) (any, error)

	// ResolveKeyed returns the instance for the (serviceType, key)
	// registration.
	ResolveKeyed(serviceType reflect.Type, key any) (any, error)

	// ResolveAll returns one instance per registration of serviceType, in
	// registration order.
	ResolveAll(serviceType reflect.Type) ([]any, error)
}

// CtxResolver resolves services on the context-aware path. Services backed by
// a CtxFactory can only be reached through it.
type CtxResolver interface {
	ResolveCtx(ctx context.Context, serviceType reflect.Type) (any, error)
	ResolveKeyedCtx(ctx context.Context, serviceType reflect.Type, key any) (any, error)
	ResolveAllCtx(ctx context.Context, serviceType reflect.Type) ([]any, error)
}

// Factory creates a service instance, pulling its dependencies from the
// resolver it is given.
type Factory func(r Resolver) (any, error)

// CtxFactory creates a service instance on the context-aware path. Resolving
// a CtxFactory-backed service synchronously fails with ErrAsyncOnly.
type CtxFactory func(ctx context.Context, r Resolver) (any, error)

// Decorator wraps an already-created instance. Decorators run in
// registration order after the instance is produced by its lifetime wrapper
// and may pull further dependencies from the resolver.
type Decorator func(r Resolver, instance any) (any, error)

// ImplementationFactoryLookup supplies the factory for an implementation
// type referenced by a constructor registration. It is an explicit
// collaborator rather than a process-wide registry so tests can isolate or
// reset it per run.
type ImplementationFactoryLookup interface {
	// Lookup returns the factory registered for the implementation type.
	Lookup(impl reflect.Type) (Factory, bool)
}

// TypeOf returns the reflect.Type for T, including interface types.
//
// It is the standard way to name a service type in the non-generic API:
//
//	c.RegisterType(di.TypeOf[Logger](), di.TypeOf[*ConsoleLogger](), di.Singleton)
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

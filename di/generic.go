package di

import (
	"context"
	"reflect"
)

// This file is the generics-first face of the container. Go disallows
// methods with type parameters, so the sugar lives in package-level
// functions that delegate to the reflect.Type API.

// AddSingleton registers ctor's return type as the implementation of T with
// singleton lifetime. ctor must be a func returning T's implementation, or
// that and an error; its parameters are resolved from the container.
func AddSingleton[T any](c *Collection, ctor any) error {
	return addConstructor[T](c, ctor, Singleton, nil)
}

// AddScoped is AddSingleton with scoped lifetime.
func AddScoped[T any](c *Collection, ctor any) error {
	return addConstructor[T](c, ctor, Scoped, nil)
}

// AddTransient is AddSingleton with transient lifetime.
func AddTransient[T any](c *Collection, ctor any) error {
	return addConstructor[T](c, ctor, Transient, nil)
}

// AddKeyedSingleton is AddSingleton under a registration key.
func AddKeyedSingleton[T any](c *Collection, key any, ctor any) error {
	return addConstructor[T](c, ctor, Singleton, key)
}

// AddKeyedScoped is AddScoped under a registration key.
func AddKeyedScoped[T any](c *Collection, key any, ctor any) error {
	return addConstructor[T](c, ctor, Scoped, key)
}

// AddKeyedTransient is AddTransient under a registration key.
func AddKeyedTransient[T any](c *Collection, key any, ctor any) error {
	return addConstructor[T](c, ctor, Transient, key)
}

func addConstructor[T any](c *Collection, ctor any, lifetime Lifetime, key any) error {
	impl, err := c.factories.ProvideConstructor(ctor)
	if err != nil {
		return err
	}
	service := reflect.TypeFor[T]()
	if !impl.AssignableTo(service) {
		return ImplementationMismatchError{Service: service, Impl: impl}
	}
	if key != nil {
		return c.RegisterKeyedType(service, key, impl, lifetime)
	}
	return c.RegisterType(service, impl, lifetime)
}

// AddInstance registers a prebuilt value under T as a singleton.
func AddInstance[T any](c *Collection, value T) error {
	return c.RegisterInstance(reflect.TypeFor[T](), value)
}

// AddFactory registers a typed factory for T.
func AddFactory[T any](c *Collection, lifetime Lifetime, f func(Resolver) (T, error)) error {
	if f == nil {
		return ErrNilConstructor
	}
	return c.RegisterFactory(reflect.TypeFor[T](), lifetime, func(r Resolver) (any, error) {
		return f(r)
	})
}

// AddCtxFactory registers a typed context factory for T. The service is only
// reachable through the ResolveCtx entry points.
func AddCtxFactory[T any](c *Collection, lifetime Lifetime, f func(context.Context, Resolver) (T, error)) error {
	if f == nil {
		return ErrNilConstructor
	}
	return c.RegisterCtxFactory(reflect.TypeFor[T](), lifetime, func(ctx context.Context, r Resolver) (any, error) {
		return f(ctx, r)
	})
}

// AddDecorator registers a typed decorator for T, applied in registration
// order after the instance is produced.
func AddDecorator[T any](c *Collection, d func(Resolver, T) (T, error)) error {
	if d == nil {
		return ErrNilConstructor
	}
	return c.RegisterDecorator(reflect.TypeFor[T](), func(r Resolver, v any) (any, error) {
		t, err := as[T](v)
		if err != nil {
			return nil, err
		}
		return d(r, t)
	})
}

// Resolve returns the instance for the last registration of T, from a
// container, a scope, or a factory's resolver callback.
func Resolve[T any](r Resolver) (T, error) {
	v, err := r.Resolve(reflect.TypeFor[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

// ResolveKeyed is Resolve for a keyed registration.
func ResolveKeyed[T any](r Resolver, key any) (T, error) {
	v, err := r.ResolveKeyed(reflect.TypeFor[T](), key)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

// ResolveAll returns one T per registration, in registration order.
func ResolveAll[T any](r Resolver) ([]T, error) {
	vs, err := r.ResolveAll(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return allAs[T](vs)
}

// ResolveCtx is Resolve on the context-aware path.
func ResolveCtx[T any](ctx context.Context, r CtxResolver) (T, error) {
	v, err := r.ResolveCtx(ctx, reflect.TypeFor[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

// ResolveKeyedCtx is ResolveKeyed on the context-aware path.
func ResolveKeyedCtx[T any](ctx context.Context, r CtxResolver, key any) (T, error) {
	v, err := r.ResolveKeyedCtx(ctx, reflect.TypeFor[T](), key)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

// ResolveAllCtx is ResolveAll on the context-aware path.
func ResolveAllCtx[T any](ctx context.Context, r CtxResolver) ([]T, error) {
	vs, err := r.ResolveAllCtx(ctx, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return allAs[T](vs)
}

// as narrows a resolved instance to T, reporting WrongTypeError instead of
// panicking on a mismatched registration.
func as[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, WrongTypeError{Type: reflect.TypeFor[T](), GotType: reflect.TypeOf(v).String()}
	}
	return t, nil
}

func allAs[T any](vs []any) ([]T, error) {
	out := make([]T, len(vs))
	for i, v := range vs {
		t, err := as[T](v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

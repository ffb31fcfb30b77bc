package di

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrNotAFunction is returned when a constructor argument is not a
	// function.
	ErrNotAFunction = errors.New("di: constructor must be a function")

	// ErrBadConstructorShape is returned when a constructor does not return
	// exactly one value, or a value and an error.
	ErrBadConstructorShape = errors.New("di: constructor must return a value, or a value and an error")
)

// FactoryRegistry maps implementation types to their factories. It is the
// default ImplementationFactoryLookup of a Collection.
//
// It is intentionally:
// - explicit and injectable (never a process-wide singleton)
// - write-then-read: populated during registration, read-only at resolve time
// - last-write-wins for repeated implementation types
type FactoryRegistry struct {
	mu        sync.RWMutex
	factories map[reflect.Type]Factory
}

// NewFactoryRegistry returns an empty registry.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{factories: map[reflect.Type]Factory{}}
}

// Provide stores a factory under an implementation type and returns the
// registry for chaining.
func (r *FactoryRegistry) Provide(impl reflect.Type, f Factory) *FactoryRegistry {
	r.mu.Lock()
	r.factories[impl] = f
	r.mu.Unlock()
	return r
}

// ProvideConstructor adapts a plain constructor function into a Factory and
// stores it under the constructor's return type, which it reports back.
//
// The constructor must be a func returning T or (T, error). Every parameter
// is resolved from the Resolver the factory is invoked with, so dependency
// requests stay visible to the resolution chain and to build-time probing.
func (r *FactoryRegistry) ProvideConstructor(ctor any) (reflect.Type, error) {
	f, impl, err := constructorFactory(ctor)
	if err != nil {
		return nil, err
	}
	r.Provide(impl, f)
	return impl, nil
}

// Lookup implements ImplementationFactoryLookup.
func (r *FactoryRegistry) Lookup(impl reflect.Type) (Factory, bool) {
	r.mu.RLock()
	f, ok := r.factories[impl]
	r.mu.RUnlock()
	return f, ok
}

// constructorFactory validates a constructor and wraps it in a Factory. The
// returned factory converts constructor panics into ErrConstructorPanic so a
// misbehaving constructor fails the resolve call instead of the process.
func constructorFactory(ctor any) (Factory, reflect.Type, error) {
	if ctor == nil {
		return nil, nil, ErrNilConstructor
	}
	fn := reflect.ValueOf(ctor)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return nil, nil, ErrNotAFunction
	}
	if ft.NumOut() < 1 || ft.NumOut() > 2 {
		return nil, nil, ErrBadConstructorShape
	}
	if ft.NumOut() == 2 && !ft.Out(1).AssignableTo(reflect.TypeFor[error]()) {
		return nil, nil, ErrBadConstructorShape
	}

	impl := ft.Out(0)
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}

	factory := func(r Resolver) (out any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				out = nil
				err = panicError{value: rec}
			}
		}()

		args := make([]reflect.Value, len(params))
		for i, pt := range params {
			dep, depErr := r.Resolve(pt)
			if depErr != nil {
				return nil, depErr
			}
			if dep == nil {
				args[i] = reflect.Zero(pt)
			} else {
				args[i] = reflect.ValueOf(dep)
			}
		}

		results := fn.Call(args)
		if len(results) == 2 {
			if e, _ := results[1].Interface().(error); e != nil {
				return nil, e
			}
		}
		return results[0].Interface(), nil
	}

	return factory, impl, nil
}

// panicError carries a recovered panic value and matches ErrConstructorPanic
// under errors.Is.
type panicError struct {
	value any
}

// Error implements the error interface.
func (e panicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConstructorPanic, e.value)
}

// Unwrap lets errors.Is(err, ErrConstructorPanic) succeed.
func (e panicError) Unwrap() error {
	return ErrConstructorPanic
}

// Recovered returns the original panic value.
func (e panicError) Recovered() any {
	return e.value
}

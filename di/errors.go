package di

import (
	"errors"
	"reflect"
	"strconv"
)

var (
	// ErrAsyncOnly is returned when a service backed by a context factory is
	// resolved through a synchronous entry point. Use ResolveCtx instead.
	ErrAsyncOnly = errors.New("di: service requires a context-aware resolution, use ResolveCtx")

	// ErrConstructorPanic is returned when a user constructor or factory
	// panics during resolution. The panic value is carried in the message.
	ErrConstructorPanic = errors.New("di: panic during construction")

	// ErrNilConstructor is returned when a nil constructor or factory is
	// registered.
	ErrNilConstructor = errors.New("di: nil constructor")
)

// InvalidStateError is returned when an operation is attempted against a
// collection, container, or scope that is in the wrong phase of its life:
// registering after build, resolving after disposal, closing twice the same
// handle, and so on.
type InvalidStateError struct {
	// Op is the attempted operation, e.g. "register" or "resolve".
	Op string

	// State is the state that forbids it, e.g. "built" or "disposed".
	State string
}

// Error implements the error interface.
func (e InvalidStateError) Error() string {
	// Example: di: cannot resolve: container is disposed
	return "di: cannot " + e.Op + ": container is " + e.State
}

// MissingServiceError is returned when a requested service type (or type and
// key) has no compiled registration.
type MissingServiceError struct {
	// Type is the requested service type.
	Type reflect.Type

	// Key is the requested registration key, nil for unkeyed lookups.
	Key any
}

// Error implements the error interface.
func (e MissingServiceError) Error() string {
	if e.Key == nil {
		// Example: di: no registration for type di_test.Database
		return "di: no registration for type " + typeName(e.Type)
	}
	return "di: no registration for type " + typeName(e.Type) + " with key " + keyName(e.Key)
}

// CircularDependencyError is returned when a dependency cycle is found,
// either by the build-time graph check or by the resolution chain at run
// time. Chain holds the ordered type path with the repeated type at both
// ends, e.g. [A B C A].
type CircularDependencyError struct {
	Chain []reflect.Type
}

// Error implements the error interface.
func (e CircularDependencyError) Error() string {
	s := "di: circular dependency detected: "
	for i, t := range e.Chain {
		if i > 0 {
			s += " -> "
		}
		s += typeName(t)
	}
	return s
}

// ScopeViolationError reports a captive dependency: a scoped service reached
// from under a singleton, which would outlive every scope boundary.
type ScopeViolationError struct {
	// Service is the scoped service being captured.
	Service reflect.Type

	// Dependent is the singleton-rooted service that consumes it.
	Dependent reflect.Type
}

// Error implements the error interface.
func (e ScopeViolationError) Error() string {
	// Example: di: scoped service di_test.Database consumed by singleton di_test.Repo
	return "di: scoped service " + typeName(e.Service) + " consumed by singleton " + typeName(e.Dependent)
}

// ImplementationMismatchError is returned when a constructor's return type
// is not assignable to the service type it is registered under.
type ImplementationMismatchError struct {
	// Service is the declared service type.
	Service reflect.Type

	// Impl is the constructor's return type.
	Impl reflect.Type
}

// Error implements the error interface.
func (e ImplementationMismatchError) Error() string {
	return "di: implementation " + typeName(e.Impl) + " is not assignable to service " + typeName(e.Service)
}

// WrongTypeError is returned when a resolved instance does not have the type
// the generic helper expected.
type WrongTypeError struct {
	// Type is the expected type.
	Type reflect.Type

	// GotType is reflect.TypeOf(instance).String() for the resolved value.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: di: resolved instance for di_test.Logger has wrong type (*di_test.Database)
	return "di: resolved instance for " + typeName(e.Type) + " has wrong type (" + e.GotType + ")"
}

// MissingDependencyError reports a dependency requested by a constructor that
// has no registration of its own. It is found by build-time probing.
type MissingDependencyError struct {
	// Service is the service whose constructor requested the dependency.
	Service reflect.Type

	// Dependency is the unregistered type.
	Dependency reflect.Type
}

// Error implements the error interface.
func (e MissingDependencyError) Error() string {
	return "di: service " + typeName(e.Service) + " depends on unregistered type " + typeName(e.Dependency)
}

// BuildError aggregates every problem found during build validation so a
// developer can fix all of them in one iteration. With fail-fast enabled the
// first violation is returned directly instead.
type BuildError struct {
	Errors []error
}

// Error implements the error interface.
func (e BuildError) Error() string {
	s := "di: build failed with " + strconv.Itoa(len(e.Errors)) + " error(s)"
	for _, err := range e.Errors {
		s += "\n\t" + err.Error()
	}
	return s
}

// First returns the first collected error, or nil.
func (e BuildError) First() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e BuildError) Unwrap() []error {
	return e.Errors
}

// DisposalFailure is one instance whose teardown failed.
type DisposalFailure struct {
	// Type is the dynamic type name of the failing instance.
	Type string

	// Err is the error its teardown returned.
	Err error
}

// DisposalError aggregates every teardown failure of one Dispose call. Every
// tracked instance is attempted regardless of earlier failures.
type DisposalError struct {
	Failures []DisposalFailure
}

// Error implements the error interface.
func (e DisposalError) Error() string {
	s := "di: disposal failed for " + strconv.Itoa(len(e.Failures)) + " instance(s)"
	for _, f := range e.Failures {
		s += "\n\t" + f.Type + ": " + f.Err.Error()
	}
	return s
}

// First returns the first failure's error, or nil.
func (e DisposalError) First() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[0].Err
}

// Unwrap exposes the underlying teardown errors to errors.Is and errors.As.
func (e DisposalError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func keyName(key any) string {
	switch k := key.(type) {
	case string:
		return strconv.Quote(k)
	case interface{ String() string }:
		return strconv.Quote(k.String())
	default:
		return strconv.Quote(reflect.TypeOf(key).String())
	}
}

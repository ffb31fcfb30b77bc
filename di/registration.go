package di

import (
	"errors"
	"reflect"
)

// strategyKind tags the single creation strategy of a registration.
type strategyKind uint8

const (
	strategyInstance strategyKind = iota
	strategyFactory
	strategyCtxFactory
	strategyConstructor
)

func (s strategyKind) String() string {
	switch s {
	case strategyInstance:
		return "instance"
	case strategyFactory:
		return "factory"
	case strategyCtxFactory:
		return "ctx-factory"
	case strategyConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// Registration describes one service: its type, optional key, lifetime, and
// exactly one creation strategy. Registrations are immutable once added to a
// Collection.
type Registration struct {
	// ServiceType is the type under which the service is resolved.
	ServiceType reflect.Type

	// Key optionally disambiguates multiple registrations of the same type.
	// Keyed registrations are only reachable through ResolveKeyed. Keys must
	// be comparable.
	Key any

	// Lifetime selects the caching behavior. Instance registrations are
	// always Singleton.
	Lifetime Lifetime

	// Impl selects the constructor strategy: creation delegates to the
	// factory registered for this implementation type in the collection's
	// ImplementationFactoryLookup.
	Impl reflect.Type

	// Factory selects the factory strategy.
	Factory Factory

	// CtxFactory selects the context-factory strategy.
	CtxFactory CtxFactory

	// Instance selects the prebuilt-value strategy.
	Instance any
}

// strategy returns the populated creation strategy. validate guarantees
// exactly one is set.
func (r Registration) strategy() strategyKind {
	switch {
	case r.Instance != nil:
		return strategyInstance
	case r.Factory != nil:
		return strategyFactory
	case r.CtxFactory != nil:
		return strategyCtxFactory
	default:
		return strategyConstructor
	}
}

func (r Registration) validate() error {
	if r.ServiceType == nil {
		return errors.New("di: registration has no service type")
	}
	n := 0
	if r.Impl != nil {
		n++
	}
	if r.Factory != nil {
		n++
	}
	if r.CtxFactory != nil {
		n++
	}
	if r.Instance != nil {
		n++
	}
	if n != 1 {
		return errors.New("di: registration must carry exactly one creation strategy")
	}
	if r.Instance != nil && r.Lifetime != Singleton {
		return errors.New("di: instance registrations are always singletons")
	}
	if r.Key != nil && !reflect.TypeOf(r.Key).Comparable() {
		return errors.New("di: registration key must be comparable")
	}
	return nil
}

// Collection accumulates registrations and decorators until Build compiles
// them into a Container. After a successful Build the collection is frozen
// and further registration fails with InvalidStateError.
type Collection struct {
	regs       []Registration
	decorators map[reflect.Type][]Decorator
	factories  *FactoryRegistry
	lookup     ImplementationFactoryLookup
	built      bool
}

// NewCollection returns an empty collection backed by a fresh
// FactoryRegistry.
func NewCollection() *Collection {
	fr := NewFactoryRegistry()
	return &Collection{
		decorators: make(map[reflect.Type][]Decorator),
		factories:  fr,
		lookup:     fr,
	}
}

// Factories returns the collection's registry of implementation factories,
// for registering constructors ahead of constructor-strategy registrations.
func (c *Collection) Factories() *FactoryRegistry {
	return c.factories
}

// UseFactoryLookup replaces the lookup consulted by constructor
// registrations. The default is the collection's own FactoryRegistry.
func (c *Collection) UseFactoryLookup(l ImplementationFactoryLookup) *Collection {
	c.lookup = l
	return c
}

// Register appends a registration. Later unkeyed registrations of the same
// type win for single resolution; all of them remain visible to ResolveAll.
func (c *Collection) Register(reg Registration) error {
	if c.built {
		return InvalidStateError{Op: "register", State: "built"}
	}
	if err := reg.validate(); err != nil {
		return err
	}
	c.regs = append(c.regs, reg)
	return nil
}

// RegisterType registers a constructor-strategy service: resolution
// delegates to the factory registered for impl in the collection's lookup.
func (c *Collection) RegisterType(service, impl reflect.Type, lifetime Lifetime) error {
	return c.Register(Registration{ServiceType: service, Impl: impl, Lifetime: lifetime})
}

// RegisterFactory registers a factory-strategy service.
func (c *Collection) RegisterFactory(service reflect.Type, lifetime Lifetime, f Factory) error {
	if f == nil {
		return ErrNilConstructor
	}
	return c.Register(Registration{ServiceType: service, Factory: f, Lifetime: lifetime})
}

// RegisterCtxFactory registers a context-factory-strategy service, reachable
// only through the ResolveCtx entry points.
func (c *Collection) RegisterCtxFactory(service reflect.Type, lifetime Lifetime, f CtxFactory) error {
	if f == nil {
		return ErrNilConstructor
	}
	return c.Register(Registration{ServiceType: service, CtxFactory: f, Lifetime: lifetime})
}

// RegisterInstance registers a prebuilt value as a singleton.
func (c *Collection) RegisterInstance(service reflect.Type, instance any) error {
	return c.Register(Registration{ServiceType: service, Instance: instance, Lifetime: Singleton})
}

// RegisterKeyedType is RegisterType with a registration key.
func (c *Collection) RegisterKeyedType(service reflect.Type, key any, impl reflect.Type, lifetime Lifetime) error {
	return c.Register(Registration{ServiceType: service, Key: key, Impl: impl, Lifetime: lifetime})
}

// RegisterKeyedFactory is RegisterFactory with a registration key.
func (c *Collection) RegisterKeyedFactory(service reflect.Type, key any, lifetime Lifetime, f Factory) error {
	if f == nil {
		return ErrNilConstructor
	}
	return c.Register(Registration{ServiceType: service, Key: key, Factory: f, Lifetime: lifetime})
}

// RegisterKeyedCtxFactory is RegisterCtxFactory with a registration key.
func (c *Collection) RegisterKeyedCtxFactory(service reflect.Type, key any, lifetime Lifetime, f CtxFactory) error {
	if f == nil {
		return ErrNilConstructor
	}
	return c.Register(Registration{ServiceType: service, Key: key, CtxFactory: f, Lifetime: lifetime})
}

// RegisterKeyedInstance is RegisterInstance with a registration key.
func (c *Collection) RegisterKeyedInstance(service reflect.Type, key any, instance any) error {
	return c.Register(Registration{ServiceType: service, Key: key, Instance: instance, Lifetime: Singleton})
}

// RegisterDecorator appends a decorator for a service type. Decorators run
// in registration order after the instance is created.
func (c *Collection) RegisterDecorator(service reflect.Type, d Decorator) error {
	if c.built {
		return InvalidStateError{Op: "register", State: "built"}
	}
	if d == nil {
		return ErrNilConstructor
	}
	c.decorators[service] = append(c.decorators[service], d)
	return nil
}

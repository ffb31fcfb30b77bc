package di

import (
	"reflect"

	"go.uber.org/zap"
)

// plan is the compiled, immutable resolution plan: the frozen site maps, the
// implementation-factory lookup, and the dependency graph retained read-only
// for diagnostics. It is shared by the root and all scopes without
// synchronization; no writer exists after build.
type plan struct {
	nodes    map[reflect.Type]callSite
	allNodes map[reflect.Type][]callSite
	keyed    map[serviceKey]callSite
	lookup   ImplementationFactoryLookup
	graph    *DependencyGraph
	services []compiledService
}

// compiledService is the diagnostic record of one registration, in
// registration order.
type compiledService struct {
	site     callSite
	key      any
	lifetime Lifetime
	strategy strategyKind
	decorate bool
}

type compiler struct {
	regs       []Registration
	decorators map[reflect.Type][]Decorator
	lookup     ImplementationFactoryLookup
	opts       buildOptions
	log        *zap.Logger

	// probed maps an implementation type to the dependency slots its factory
	// requested when invoked against the recording stub, keyed requests
	// included.
	probed map[reflect.Type][]serviceKey
}

// compile transforms the registrations into the frozen plan, populates the
// dependency graph, and runs build validation per the options. The cycle
// check always runs; the missing-dependency and captive-dependency checks
// are opt-in.
func (cp *compiler) compile() (*plan, error) {
	p := &plan{
		nodes:    make(map[reflect.Type]callSite, len(cp.regs)),
		allNodes: make(map[reflect.Type][]callSite, len(cp.regs)),
		keyed:    map[serviceKey]callSite{},
		lookup:   cp.lookup,
		graph:    NewDependencyGraph(),
	}

	for _, reg := range cp.regs {
		site := cp.compileRegistration(p, reg)
		if reg.Key != nil {
			p.keyed[serviceKey{Type: reg.ServiceType, Key: reg.Key}] = site
		} else {
			p.nodes[reg.ServiceType] = site
			p.allNodes[reg.ServiceType] = append(p.allNodes[reg.ServiceType], site)
		}
		cp.log.Debug("service compiled",
			zap.String("service", reg.ServiceType.String()),
			zap.String("lifetime", reg.Lifetime.String()),
			zap.String("strategy", reg.strategy().String()),
		)
	}

	if err := cp.validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// compileRegistration builds one site tree: terminal per creation strategy,
// wrapped in a decorator node when decorators exist for the type, wrapped in
// the lifetime wrapper, wrapped last in a keyed node for keyed registrations.
// Decorators sit inside the lifetime wrapper so caches hold the decorated
// instance and decorators run once per creation, not once per resolve.
func (cp *compiler) compileRegistration(p *plan, reg Registration) callSite {
	p.graph.AddNode(reg.ServiceType)

	var term callSite
	switch reg.strategy() {
	case strategyInstance:
		term = &instanceCallSite{typ: reg.ServiceType, value: reg.Instance}
	case strategyFactory:
		term = &factoryCallSite{typ: reg.ServiceType, fn: reg.Factory}
	case strategyCtxFactory:
		term = &ctxFactoryCallSite{typ: reg.ServiceType, fn: reg.CtxFactory}
	default:
		term = &constructorCallSite{typ: reg.ServiceType, impl: reg.Impl}
		// A service implemented by its own type has no structural edge;
		// it would read as a self-cycle.
		if reg.Impl != reg.ServiceType {
			p.graph.AddEdge(reg.ServiceType, reg.Impl)
		}
	}

	decorated := false
	if ds := cp.decorators[reg.ServiceType]; len(ds) > 0 {
		term = &decoratorCallSite{typ: reg.ServiceType, inner: term, decorators: ds}
		decorated = true
	}

	var site callSite = &lifetimeCallSite{
		typ:      reg.ServiceType,
		key:      reg.Key,
		lifetime: reg.Lifetime,
		inner:    term,
	}

	if reg.Key != nil {
		site = &keyedCallSite{typ: reg.ServiceType, key: reg.Key, inner: site}
	}

	p.services = append(p.services, compiledService{
		site:     site,
		key:      reg.Key,
		lifetime: reg.Lifetime,
		strategy: reg.strategy(),
		decorate: decorated,
	})
	return site
}

// validate probes constructor factories, extends the graph with the
// discovered edges, and runs the enabled validators. Structural problems are
// collected exhaustively and raised once, unless fail-fast is selected.
func (cp *compiler) validate(p *plan) error {
	var found []error
	report := func(err error) error {
		if cp.opts.failFast {
			return err
		}
		found = append(found, err)
		return nil
	}

	if cp.opts.validateMissing || cp.opts.validateScopes {
		if err := cp.probeConstructors(p, report); err != nil {
			return err
		}
	}

	if cp.opts.validateScopes {
		w := &scopeWalker{plan: p, probed: cp.probed, visited: map[scopeVisit]struct{}{}}
		if err := w.walkAll(report); err != nil {
			return err
		}
	}

	if err := p.graph.DetectCycles(); err != nil {
		if cp.opts.failFast {
			return err
		}
		found = append(found, err)
	}

	if len(found) > 0 {
		cp.log.Debug("build validation failed", zap.Int("errors", len(found)))
		return BuildError{Errors: found}
	}
	return nil
}

// probeConstructors invokes every constructor registration's implementation
// factory against a recording stub, adds a graph edge per requested type,
// and, when the missing-dependency check is enabled, reports requested
// types that have no compiled node. Probing is best-effort: a factory fed
// sentinel dependencies may panic or bail early, and branches it does not
// take stay invisible; the resolution chain remains the run-time authority.
func (cp *compiler) probeConstructors(p *plan, report func(error) error) error {
	cp.probed = map[reflect.Type][]serviceKey{}

	for _, reg := range cp.regs {
		if reg.strategy() != strategyConstructor {
			continue
		}
		if _, done := cp.probed[reg.Impl]; done {
			continue
		}

		factory, ok := cp.lookup.Lookup(reg.Impl)
		if !ok {
			if cp.opts.validateMissing {
				if err := report(MissingDependencyError{Service: reg.ServiceType, Dependency: reg.Impl}); err != nil {
					return err
				}
			}
			continue
		}

		stub := probeFactory(factory)
		deps := make([]serviceKey, 0, len(stub.types)+len(stub.keyed))
		for _, dep := range stub.types {
			deps = append(deps, serviceKey{Type: dep})
		}
		deps = append(deps, stub.keyed...)
		cp.probed[reg.Impl] = deps

		for _, dep := range deps {
			p.graph.AddEdge(reg.ServiceType, dep.Type)
			if cp.opts.validateMissing {
				var registered bool
				if dep.Key == nil {
					_, registered = p.nodes[dep.Type]
				} else {
					_, registered = p.keyed[dep]
				}
				if !registered {
					if err := report(MissingDependencyError{Service: reg.ServiceType, Dependency: dep.Type}); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// probeResolver records every dependency request and answers with a
// zero-value sentinel, constructing nothing.
type probeResolver struct {
	types []reflect.Type
	keyed []serviceKey
}

func (p *probeResolver) Resolve(t reflect.Type) (any, error) {
	p.types = append(p.types, t)
	return reflect.Zero(t).Interface(), nil
}

func (p *probeResolver) ResolveKeyed(t reflect.Type, key any) (any, error) {
	p.keyed = append(p.keyed, serviceKey{Type: t, Key: key})
	return reflect.Zero(t).Interface(), nil
}

func (p *probeResolver) ResolveAll(t reflect.Type) ([]any, error) {
	p.types = append(p.types, t)
	return nil, nil
}

// probeFactory runs a factory against the recording stub inside a
// failure-tolerant call: whatever the factory returns, throws, or panics
// with when handed sentinels is ignored.
func probeFactory(f Factory) (stub *probeResolver) {
	stub = &probeResolver{}
	defer func() {
		_ = recover()
	}()
	_, _ = f(stub)
	return stub
}

// scopeVisit de-duplicates captive-dependency walks: one visit per (type,
// enclosing lifetime) pair keeps the walk finite on cyclic graphs.
type scopeVisit struct {
	typ       reflect.Type
	enclosing Lifetime
}

// scopeWalker detects captive dependencies: a Scoped node reached while the
// nearest enclosing lifetime is Singleton would outlive every scope
// boundary and never be disposed by one.
type scopeWalker struct {
	plan    *plan
	probed  map[reflect.Type][]serviceKey
	visited map[scopeVisit]struct{}
}

func (w *scopeWalker) walkAll(report func(error) error) error {
	for _, sites := range w.plan.allNodes {
		for _, site := range sites {
			if err := w.walk(site, 0, false, nil, report); err != nil {
				return err
			}
		}
	}
	for _, site := range w.plan.keyed {
		if err := w.walk(site, 0, false, nil, report); err != nil {
			return err
		}
	}
	return nil
}

func (w *scopeWalker) walk(site callSite, enclosing Lifetime, haveEnclosing bool, dependent reflect.Type, report func(error) error) error {
	switch s := site.(type) {
	case *lifetimeCallSite:
		if haveEnclosing && enclosing == Singleton && s.lifetime == Scoped {
			if err := report(ScopeViolationError{Service: s.typ, Dependent: dependent}); err != nil {
				return err
			}
		}
		return w.walk(s.inner, s.lifetime, true, s.typ, report)

	case *keyedCallSite:
		return w.walk(s.inner, enclosing, haveEnclosing, dependent, report)

	case *decoratorCallSite:
		return w.walk(s.inner, enclosing, haveEnclosing, dependent, report)

	case *constructorCallSite:
		v := scopeVisit{typ: s.impl, enclosing: enclosing}
		if _, seen := w.visited[v]; seen {
			return nil
		}
		w.visited[v] = struct{}{}
		for _, dep := range w.probed[s.impl] {
			var next callSite
			var ok bool
			if dep.Key == nil {
				next, ok = w.plan.nodes[dep.Type]
			} else {
				next, ok = w.plan.keyed[dep]
			}
			if !ok {
				continue
			}
			if err := w.walk(next, enclosing, haveEnclosing, dependent, report); err != nil {
				return err
			}
		}
		return nil

	default:
		// instance, factory, ctx-factory: opaque leaves.
		return nil
	}
}

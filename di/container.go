package di

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// buildOptions configures Build. See the With* functions.
type buildOptions struct {
	validateMissing bool
	validateScopes  bool
	failFast        bool
	logger          *zap.Logger
}

// BuildOption configures the build phase.
type BuildOption func(*buildOptions)

// WithValidation enables the build-time missing-dependency check: every
// constructor factory is probed and requested types without a registration
// fail the build.
func WithValidation() BuildOption {
	return func(o *buildOptions) { o.validateMissing = true }
}

// WithScopeValidation enables the build-time captive-dependency check:
// reaching a scoped service from under a singleton fails the build.
func WithScopeValidation() BuildOption {
	return func(o *buildOptions) { o.validateScopes = true }
}

// WithFailFast makes build validation stop at the first problem instead of
// aggregating everything into one BuildError.
func WithFailFast() BuildOption {
	return func(o *buildOptions) { o.failFast = true }
}

// WithLogger attaches a structured logger for build, scope, and disposal
// events. The default is a nop logger.
func WithLogger(l *zap.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// Container executes the compiled plan: it owns the singleton cache, the
// root disposal tracker, and the frozen site maps shared with every scope.
// A container is safe for concurrent use.
type Container struct {
	plan *plan
	exec *executor
	log  *zap.Logger
	root *Scope
}

// Scope is one bounded resolution context with its own scoped cache and
// disposal tracker. The container root is itself a scope, acting as the
// implicit scope for scoped services resolved without one.
type Scope struct {
	id        string
	container *Container
	cache     *lifetimeCache
	tracker   *disposalTracker
	isRoot    bool
}

// Build compiles the collection into a container. The registrations are
// validated per the options, the cycle check always runs, and on success
// the collection freezes: registering afterward fails with
// InvalidStateError. There is no re-validation or rebuild mechanism.
func (c *Collection) Build(opts ...BuildOption) (*Container, error) {
	if c.built {
		return nil, InvalidStateError{Op: "build", State: "built"}
	}

	o := buildOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cp := &compiler{
		regs:       c.regs,
		decorators: c.decorators,
		lookup:     c.lookup,
		opts:       o,
		log:        o.logger,
	}
	p, err := cp.compile()
	if err != nil {
		return nil, err
	}
	c.built = true

	ctr := &Container{plan: p, log: o.logger}
	ctr.exec = &executor{plan: p}
	ctr.root = &Scope{
		id:        uuid.NewString(),
		container: ctr,
		cache:     newLifetimeCache(),
		tracker:   newDisposalTracker(),
		isRoot:    true,
	}

	o.logger.Info("container built",
		zap.Int("services", len(p.services)),
		zap.String("root_scope", ctr.root.id),
	)
	return ctr, nil
}

// Resolve returns the instance for the last registration of serviceType.
func (c *Container) Resolve(serviceType reflect.Type) (any, error) {
	return c.root.Resolve(serviceType)
}

// ResolveCtx is Resolve on the context-aware path, required for services
// backed by a CtxFactory.
func (c *Container) ResolveCtx(ctx context.Context, serviceType reflect.Type) (any, error) {
	return c.root.ResolveCtx(ctx, serviceType)
}

// ResolveKeyed returns the instance for the (serviceType, key) registration.
func (c *Container) ResolveKeyed(serviceType reflect.Type, key any) (any, error) {
	return c.root.ResolveKeyed(serviceType, key)
}

// ResolveKeyedCtx is ResolveKeyed on the context-aware path.
func (c *Container) ResolveKeyedCtx(ctx context.Context, serviceType reflect.Type, key any) (any, error) {
	return c.root.ResolveKeyedCtx(ctx, serviceType, key)
}

// ResolveAll returns one instance per registration of serviceType, in
// registration order.
func (c *Container) ResolveAll(serviceType reflect.Type) ([]any, error) {
	return c.root.ResolveAll(serviceType)
}

// ResolveAllCtx is ResolveAll on the context-aware path.
func (c *Container) ResolveAllCtx(ctx context.Context, serviceType reflect.Type) ([]any, error) {
	return c.root.ResolveAllCtx(ctx, serviceType)
}

// OpenScope opens a child scope with its own scoped cache and disposal
// tracker. Close the scope to tear down what it created.
func (c *Container) OpenScope() (*Scope, error) {
	if c.root.cache.isDisposed() {
		return nil, InvalidStateError{Op: "open scope", State: "disposed"}
	}
	s := &Scope{
		id:        uuid.NewString(),
		container: c,
		cache:     newLifetimeCache(),
		tracker:   newDisposalTracker(),
	}
	c.log.Debug("scope opened", zap.String("scope", s.id))
	return s, nil
}

// Dispose tears down every root-tracked instance in reverse creation order
// and marks the container disposed. All teardowns are attempted; failures
// are aggregated into one DisposalError. Disposing twice is a no-op.
func (c *Container) Dispose() error {
	return c.disposeWith(func(t *disposalTracker) error { return t.dispose() })
}

// DisposeCtx is Dispose preferring context-aware teardown where instances
// offer it.
func (c *Container) DisposeCtx(ctx context.Context) error {
	return c.disposeWith(func(t *disposalTracker) error { return t.disposeCtx(ctx) })
}

func (c *Container) disposeWith(drain func(*disposalTracker) error) error {
	if c.root.cache.isDisposed() {
		return nil
	}
	n := c.root.tracker.count()
	c.root.cache.dispose()
	err := drain(c.root.tracker)
	c.log.Info("container disposed",
		zap.Int("tracked", n),
		zap.Bool("failed", err != nil),
	)
	return err
}

// ID returns the scope's identifier, stable for its lifetime and visible in
// logs.
func (s *Scope) ID() string {
	return s.id
}

// Resolve returns the instance for the last registration of serviceType,
// using this scope for scoped lifetimes.
func (s *Scope) Resolve(serviceType reflect.Type) (any, error) {
	r, err := s.begin(nil)
	if err != nil {
		return nil, err
	}
	return r.Resolve(serviceType)
}

// ResolveCtx is Resolve on the context-aware path.
func (s *Scope) ResolveCtx(ctx context.Context, serviceType reflect.Type) (any, error) {
	r, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return r.Resolve(serviceType)
}

// ResolveKeyed returns the instance for the (serviceType, key) registration.
func (s *Scope) ResolveKeyed(serviceType reflect.Type, key any) (any, error) {
	r, err := s.begin(nil)
	if err != nil {
		return nil, err
	}
	return r.ResolveKeyed(serviceType, key)
}

// ResolveKeyedCtx is ResolveKeyed on the context-aware path.
func (s *Scope) ResolveKeyedCtx(ctx context.Context, serviceType reflect.Type, key any) (any, error) {
	r, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return r.ResolveKeyed(serviceType, key)
}

// ResolveAll returns one instance per registration of serviceType.
func (s *Scope) ResolveAll(serviceType reflect.Type) ([]any, error) {
	r, err := s.begin(nil)
	if err != nil {
		return nil, err
	}
	return r.ResolveAll(serviceType)
}

// ResolveAllCtx is ResolveAll on the context-aware path.
func (s *Scope) ResolveAllCtx(ctx context.Context, serviceType reflect.Type) ([]any, error) {
	r, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return r.ResolveAll(serviceType)
}

// begin starts one top-level resolve call: a fresh chain over this scope.
// Post-disposal use always fails with InvalidStateError rather than
// returning stale data.
func (s *Scope) begin(ctx context.Context) (*resolution, error) {
	if s.cache.isDisposed() {
		return nil, InvalidStateError{Op: "resolve", State: "disposed"}
	}
	if !s.isRoot && s.container.root.cache.isDisposed() {
		return nil, InvalidStateError{Op: "resolve", State: "disposed"}
	}
	return &resolution{
		exec:  s.container.exec,
		scope: s,
		chain: newResolutionChain(),
		ctx:   ctx,
	}, nil
}

// Close tears down everything this scope created, in reverse creation
// order, and marks the scope unusable. Closing twice is a no-op. Closing
// the root scope is equivalent to disposing the container.
func (s *Scope) Close() error {
	return s.closeWith(func(t *disposalTracker) error { return t.dispose() })
}

// CloseCtx is Close preferring context-aware teardown where instances offer
// it.
func (s *Scope) CloseCtx(ctx context.Context) error {
	return s.closeWith(func(t *disposalTracker) error { return t.disposeCtx(ctx) })
}

func (s *Scope) closeWith(drain func(*disposalTracker) error) error {
	if s.cache.isDisposed() {
		return nil
	}
	s.cache.dispose()
	err := drain(s.tracker)
	s.container.log.Debug("scope closed",
		zap.String("scope", s.id),
		zap.Bool("failed", err != nil),
	)
	return err
}

// Package di provides a compiled dependency injection container.
//
// Registrations (service type, optional key, lifetime, creation strategy)
// accumulate in a Collection and are compiled by Build into an immutable
// resolution plan: a tree of call sites per service encoding how to create
// an instance and where to cache it. The container then executes that plan
// on request, caches per lifetime, and tears everything down in reverse
// creation order.
//
// Design goals:
//   - Build once, resolve many: all structure (cycles, missing dependencies,
//     captive dependencies) is checked at build time where possible; the
//     compiled plan is read-only and shared lock-free by every scope.
//   - Safe defaults: run-time cycle guard, exactly-once creation under
//     concurrency via cache reservations, post-disposal use always fails.
//   - Structured errors you can assert in tests: every failure mode is a
//     typed error; aggregate errors expose the full list, not just the first.
//
// Three lifetimes are supported: Singleton (one per container), Scoped (one
// per open scope; the root acts as an implicit scope), and Transient (new
// per request, still disposed with its owning scope).
//
// Quick start:
//
//	c := di.NewCollection()
//	_ = di.AddSingleton[Logger](c, NewConsoleLogger)
//	_ = di.AddScoped[*Database](c, NewDatabase)
//
//	ctr, err := c.Build(di.WithValidation(), di.WithScopeValidation())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctr.Dispose()
//
//	scope, _ := ctr.OpenScope()
//	defer scope.Close()
//	db, err := di.Resolve[*Database](scope)
//
// Services backed by a context factory (AddCtxFactory) must be resolved
// through the ResolveCtx entry points; concurrent resolutions of the same
// unresolved singleton invoke its factory exactly once and share the result.
package di

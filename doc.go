// Package dependencyinjection hosts a compiled dependency injection
// container for Go: registrations are frozen at build time into an
// executable resolution plan, then instances are created, cached per
// lifetime (singleton / scoped / transient), and disposed in reverse
// creation order.
//
// See subpackages:
//   - di: the container library (collection, build validation, scopes,
//     disposal, diagnostics)
//   - cmd/didump: CLI that builds a sample container and dumps its
//     diagnostic snapshot as YAML
//   - examples/webapp: runnable end-to-end wiring example
package dependencyinjection

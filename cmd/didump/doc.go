// Command didump: compiled-plan inspection for the container
//
// didump assembles the demo service graph, compiles it, and prints the
// resulting plan snapshot: every registration with its lifetime and creation
// strategy, plus the dependency edges observed at build time.
//
// Usage
//
//	didump [-format yaml|json] [-validate] [-scopes] [-verbose]
//
// Flags
//
//   - -format: output encoding, yaml (default) or json
//   - -validate: run the missing-dependency build check before dumping
//   - -scopes: run the captive-dependency build check before dumping
//   - -verbose: attach a development logger so build events are visible
//
// Exit codes
//
//	0  snapshot written to stdout
//	1  build or encoding failure; problems listed on stderr
//	2  bad flags
//
// The dependency graph in the output only carries the edges the build could
// see: structural service-to-implementation edges always, constructor
// parameter edges when a validation flag made the build probe constructors.
package main

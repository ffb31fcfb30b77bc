package di

import "reflect"

// resolutionChain is the live stack of service types being constructed
// within one top-level resolve call. It is the run-time cycle guard: static
// cycles are caught at build time, but factory closures can request
// dependencies the build-time graph never saw.
//
// A fresh chain is created per top-level call and threaded through every
// nested resolution of that call. It is never shared across independent
// calls.
type resolutionChain struct {
	path    []reflect.Type
	members map[reflect.Type]struct{}
}

func newResolutionChain() *resolutionChain {
	return &resolutionChain{members: map[reflect.Type]struct{}{}}
}

// push appends t to the chain, failing with CircularDependencyError when t
// is already being constructed. The error chain is the current path plus the
// repeated type.
func (c *resolutionChain) push(t reflect.Type) error {
	if _, open := c.members[t]; open {
		chain := make([]reflect.Type, 0, len(c.path)+1)
		chain = append(chain, c.path...)
		chain = append(chain, t)
		return CircularDependencyError{Chain: chain}
	}
	c.path = append(c.path, t)
	c.members[t] = struct{}{}
	return nil
}

// pop removes the most recently pushed type.
func (c *resolutionChain) pop() {
	last := c.path[len(c.path)-1]
	c.path = c.path[:len(c.path)-1]
	delete(c.members, last)
}

// guard runs fn with t on the chain, popping on every exit path so sibling
// branches of the same resolution never see a stale guard.
func (c *resolutionChain) guard(t reflect.Type, fn func() (any, error)) (any, error) {
	if err := c.push(t); err != nil {
		return nil, err
	}
	defer c.pop()
	return fn()
}

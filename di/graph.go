package di

import "reflect"

// DependencyGraph records structural depends-on edges between service types
// during compilation. It exists for build-time cycle detection and is kept
// read-only afterward for diagnostics.
type DependencyGraph struct {
	nodes   []reflect.Type
	nodeSet map[reflect.Type]struct{}
	edges   map[reflect.Type][]reflect.Type
	edgeSet map[reflect.Type]map[reflect.Type]struct{}
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodeSet: map[reflect.Type]struct{}{},
		edges:   map[reflect.Type][]reflect.Type{},
		edgeSet: map[reflect.Type]map[reflect.Type]struct{}{},
	}
}

// AddNode registers a node. Adding an existing node is a no-op.
func (g *DependencyGraph) AddNode(t reflect.Type) {
	if _, ok := g.nodeSet[t]; ok {
		return
	}
	g.nodeSet[t] = struct{}{}
	g.nodes = append(g.nodes, t)
}

// AddEdge records that from depends on to. Both endpoints are added as
// nodes. Duplicate edges are collapsed.
func (g *DependencyGraph) AddEdge(from, to reflect.Type) {
	g.AddNode(from)
	g.AddNode(to)
	set, ok := g.edgeSet[from]
	if !ok {
		set = map[reflect.Type]struct{}{}
		g.edgeSet[from] = set
	}
	if _, dup := set[to]; dup {
		return
	}
	set[to] = struct{}{}
	g.edges[from] = append(g.edges[from], to)
}

// Adjacency returns the depends-on edges per node, in insertion order. The
// returned slices are copies.
func (g *DependencyGraph) Adjacency() map[reflect.Type][]reflect.Type {
	out := make(map[reflect.Type][]reflect.Type, len(g.nodes))
	for _, n := range g.nodes {
		out[n] = append([]reflect.Type(nil), g.edges[n]...)
	}
	return out
}

// dfsFrame is one step of the iterative traversal: a node and the index of
// the next neighbor to visit.
type dfsFrame struct {
	node reflect.Type
	next int
}

// DetectCycles walks the whole graph, disconnected components included, and
// returns a CircularDependencyError for the first cycle found. The traversal
// is iterative: registration graphs can be hundreds of nodes deep and a
// recursive walk risks stack exhaustion.
func (g *DependencyGraph) DetectCycles() error {
	visited := make(map[reflect.Type]struct{}, len(g.nodes))
	onStack := make(map[reflect.Type]struct{}, len(g.nodes))
	parent := make(map[reflect.Type]reflect.Type, len(g.nodes))

	for _, root := range g.nodes {
		if _, done := visited[root]; done {
			continue
		}

		stack := []dfsFrame{{node: root}}
		visited[root] = struct{}{}
		onStack[root] = struct{}{}

		for len(stack) > 0 {
			frame := &stack[len(stack)-1]
			neighbors := g.edges[frame.node]

			if frame.next >= len(neighbors) {
				delete(onStack, frame.node)
				stack = stack[:len(stack)-1]
				continue
			}

			next := neighbors[frame.next]
			frame.next++

			if _, open := onStack[next]; open {
				return CircularDependencyError{Chain: g.cyclePath(parent, frame.node, next)}
			}
			if _, done := visited[next]; done {
				continue
			}

			visited[next] = struct{}{}
			onStack[next] = struct{}{}
			parent[next] = frame.node
			stack = append(stack, dfsFrame{node: next})
		}
	}

	return nil
}

// cyclePath rebuilds the cycle by walking parent pointers from the node that
// closed the cycle back to the repeated node. The repeated node appears at
// both ends of the chain.
func (g *DependencyGraph) cyclePath(parent map[reflect.Type]reflect.Type, from, repeated reflect.Type) []reflect.Type {
	var back []reflect.Type
	for n := from; n != repeated; n = parent[n] {
		back = append(back, n)
	}

	chain := make([]reflect.Type, 0, len(back)+2)
	chain = append(chain, repeated)
	for i := len(back) - 1; i >= 0; i-- {
		chain = append(chain, back[i])
	}
	chain = append(chain, repeated)
	return chain
}

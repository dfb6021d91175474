package depgraph

import (
	"errors"
	"slices"
)

// ErrCycle is returned by [Graph.Validate] when the graph contains a directed
// cycle (self loops included).
var ErrCycle = errors.New("graph contains a cycle")

// Graph is a directed graph over opaque comparable node values.
//
// Nodes are kept in insertion order, and every traversal in this package
// follows that order, so results are deterministic for a deterministic
// construction sequence. The zero value is not usable; use [New].
type Graph[T comparable] struct {
	nodes []T
	index map[T]int
	out   [][]int
	edges map[[2]int]struct{}
}

// New creates an empty graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{
		index: make(map[T]int),
		edges: make(map[[2]int]struct{}),
	}
}

func (g *Graph[T]) id(n T) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.index[n] = i
	g.out = append(g.out, nil)
	return i
}

// AddNode registers n without any edges. Adding a known node is a no-op.
func (g *Graph[T]) AddNode(n T) { g.id(n) }

// Connect records the directed edge a→b, registering both nodes if needed.
// Duplicate edges are ignored.
func (g *Graph[T]) Connect(a, b T) {
	from, to := g.id(a), g.id(b)
	key := [2]int{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.out[from] = append(g.out[from], to)
}

// Connections returns the nodes n has edges to, in the order the edges were
// added. Returns nil for unknown nodes.
func (g *Graph[T]) Connections(n T) []T {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	result := make([]T, len(g.out[i]))
	for j, to := range g.out[i] {
		result[j] = g.nodes[to]
	}
	return result
}

// HasConnection reports whether the edge a→b exists.
func (g *Graph[T]) HasConnection(a, b T) bool {
	from, okA := g.index[a]
	to, okB := g.index[b]
	if !okA || !okB {
		return false
	}
	_, ok := g.edges[[2]int{from, to}]
	return ok
}

// Contains reports whether n is a node of the graph.
func (g *Graph[T]) Contains(n T) bool {
	_, ok := g.index[n]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph[T]) Nodes() []T { return slices.Clone(g.nodes) }

// NodeCount returns the number of nodes.
func (g *Graph[T]) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *Graph[T]) EdgeCount() int { return len(g.edges) }

// Reverse returns a new graph with every edge flipped. Node order is kept.
func (g *Graph[T]) Reverse() *Graph[T] {
	r := New[T]()
	for _, n := range g.nodes {
		r.AddNode(n)
	}
	for from, targets := range g.out {
		for _, to := range targets {
			r.Connect(g.nodes[to], g.nodes[from])
		}
	}
	return r
}

// Validate returns ErrCycle if the graph has a directed cycle.
//
// Detection is a depth-first search with white/gray/black coloring and runs
// in O(N+E).
func (g *Graph[T]) Validate() error {
	const (
		white = iota
		gray
		black
	)

	type frame struct{ v, next int }
	color := make([]uint8, len(g.nodes))

	for root := range g.nodes {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{v: root}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(g.out[f.v]) {
				w := g.out[f.v][f.next]
				f.next++
				switch color[w] {
				case white:
					color[w] = gray
					stack = append(stack, frame{v: w})
				case gray:
					return ErrCycle
				}
				continue
			}
			color[f.v] = black
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

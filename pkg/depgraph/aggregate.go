package depgraph

import "slices"

// Aggregate folds values over the reachable part of the graph, bottom-up.
//
// Every node starts with seed(node). Once a node's successor has been fully
// aggregated, combine(acc, node, childAcc) merges it into the node's
// accumulator. Each node is seeded exactly once and every edge is folded
// exactly once, so combine sees a shared descendant once per incoming edge.
//
// Aggregate is meant for acyclic graphs such as the output of
// [MergeStronglyConnectedComponents]. On a cyclic graph it still
// terminates, but edges that close a cycle are skipped.
func Aggregate[T comparable, A any](g *Graph[T], seed func(T) A, combine func(acc A, node T, child A) A) map[T]A {
	const (
		white = iota
		gray
		black
	)

	type frame struct{ v, next int }
	color := make([]uint8, len(g.nodes))
	acc := make([]A, len(g.nodes))

	for root := range g.nodes {
		if color[root] != white {
			continue
		}
		color[root] = gray
		acc[root] = seed(g.nodes[root])
		stack := []frame{{v: root}}

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(g.out[f.v]) {
				w := g.out[f.v][f.next]
				f.next++
				switch color[w] {
				case white:
					color[w] = gray
					acc[w] = seed(g.nodes[w])
					stack = append(stack, frame{v: w})
				case black:
					acc[f.v] = combine(acc[f.v], g.nodes[f.v], acc[w])
				}
				continue
			}

			v := f.v
			color[v] = black
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				p := stack[len(stack)-1].v
				acc[p] = combine(acc[p], g.nodes[p], acc[v])
			}
		}
	}

	result := make(map[T]A, len(g.nodes))
	for i, n := range g.nodes {
		result[n] = acc[i]
	}
	return result
}

// Set is an unordered set of nodes.
type Set[T comparable] map[T]struct{}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Union inserts every element of other.
func (s Set[T]) Union(other Set[T]) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// SortedFunc returns the elements ordered by cmp.
func (s Set[T]) SortedFunc(cmp func(a, b T) int) []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.SortFunc(out, cmp)
	return out
}

// TransitiveClosure returns, for every node, the set holding the node itself
// and every node reachable from it.
func TransitiveClosure[T comparable](g *Graph[T]) map[T]Set[T] {
	return Aggregate(g,
		func(n T) Set[T] { return Set[T]{n: {}} },
		func(acc Set[T], _ T, child Set[T]) Set[T] {
			acc.Union(child)
			return acc
		},
	)
}

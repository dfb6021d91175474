package depgraph

import "slices"

// Component is a node of a condensed graph: either a single original node or
// a merged strongly connected group of two or more original nodes.
//
// Components are compared by pointer identity, which is what makes them
// usable as nodes of a [Graph].
type Component[T comparable] struct {
	single T
	merged []T
}

// IsMerged reports whether the component groups several original nodes.
func (c *Component[T]) IsMerged() bool { return len(c.merged) > 0 }

// Single returns the original node of a non-merged component. For merged
// components it returns the zero value.
func (c *Component[T]) Single() T { return c.single }

// Merged returns the original nodes of a merged component in their original
// insertion order, or nil for single components.
func (c *Component[T]) Merged() []T { return c.merged }

// Members returns the original nodes of the component, whatever its kind.
func (c *Component[T]) Members() []T {
	if c.IsMerged() {
		return c.merged
	}
	return []T{c.single}
}

// Len returns the number of original nodes in the component.
func (c *Component[T]) Len() int {
	if c.IsMerged() {
		return len(c.merged)
	}
	return 1
}

// MergeStronglyConnectedComponents condenses every strongly connected
// component of g into one [Component] and returns the resulting acyclic graph.
//
// It is a function rather than a method: a method on Graph[T] returning
// Graph[*Component[T]] would instantiate Graph at ever deeper types.
//
// Two components are connected iff an edge existed between any of their
// members; edges inside a component, self loops included, disappear. A node
// with only a self loop stays a single component.
//
// Components are emitted in Tarjan order: a component appears after every
// component it can reach. The original graph is not modified.
func MergeStronglyConnectedComponents[T comparable](g *Graph[T]) *Graph[*Component[T]] {
	sccs := g.stronglyConnected()
	owner := make([]int, len(g.nodes))
	comps := make([]*Component[T], len(sccs))
	condensed := New[*Component[T]]()

	for i, scc := range sccs {
		c := &Component[T]{}
		if len(scc) == 1 {
			c.single = g.nodes[scc[0]]
		} else {
			c.merged = make([]T, len(scc))
			for j, v := range scc {
				c.merged[j] = g.nodes[v]
			}
		}
		for _, v := range scc {
			owner[v] = i
		}
		comps[i] = c
		condensed.AddNode(c)
	}

	for from, targets := range g.out {
		for _, to := range targets {
			if owner[from] != owner[to] {
				condensed.Connect(comps[owner[from]], comps[owner[to]])
			}
		}
	}
	return condensed
}

// stronglyConnected runs Tarjan's algorithm without recursion, so deep
// production chains cannot exhaust the goroutine stack. Each returned
// component lists node indices in ascending (insertion) order.
func (g *Graph[T]) stronglyConnected() [][]int {
	n := len(g.nodes)
	index := make([]int, n) // discovery order + 1; 0 means unvisited
	low := make([]int, n)
	onStack := make([]bool, n)
	var stack []int
	var sccs [][]int
	counter := 0

	visit := func(v int) {
		counter++
		index[v] = counter
		low[v] = counter
		stack = append(stack, v)
		onStack[v] = true
	}

	type frame struct{ v, next int }
	for root := range n {
		if index[root] != 0 {
			continue
		}
		visit(root)
		call := []frame{{v: root}}

		for len(call) > 0 {
			f := &call[len(call)-1]
			if f.next < len(g.out[f.v]) {
				w := g.out[f.v][f.next]
				f.next++
				if index[w] == 0 {
					visit(w)
					call = append(call, frame{v: w})
				} else if onStack[w] {
					low[f.v] = min(low[f.v], index[w])
				}
				continue
			}

			v := f.v
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].v
				low[parent] = min(low[parent], low[v])
			}
			if low[v] != index[v] {
				continue
			}

			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}
	return sccs
}

// Package depgraph provides a generic directed graph with strongly connected
// component condensation and transitive aggregation.
//
// # Overview
//
// Production chains are rarely acyclic: two recipes may each consume a
// by-product of the other. Such groups cannot be ordered, so before the chain
// is split into tiers every strongly connected component is merged into one
// node. The result is a DAG over [Component] values, each of which is either
// a single original node or an ordered list of merged nodes.
//
// # Basic Usage
//
//	g := depgraph.New[string]()
//	g.Connect("circuit", "plate")
//	g.Connect("plate", "smelting")
//	g.Connect("smelting", "plate")
//
//	dag := depgraph.MergeStronglyConnectedComponents(g)
//	closure := depgraph.TransitiveClosure(dag)
//
// # Aggregation
//
// [Aggregate] folds values bottom-up over everything reachable from each node.
// [TransitiveClosure] is the common case: for every node, the set made of
// itself plus every node it can reach. Aggregation is meant to run on
// condensed graphs; on a graph that still has cycles it terminates but back
// edges are not folded.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Read-only use from
// several goroutines is fine once construction is done.
package depgraph

package planner

import (
	"slices"

	"github.com/matzehuels/tierplan/pkg/depgraph"
)

// assignTiers orders the nodes of a condensed graph into tiers. A node is
// eligible once everything it connects to sits in an earlier tier. Each
// round takes every eligible single node; if there is none, the first
// eligible merged node forms a tier of its own. When nothing is eligible the
// remaining nodes form one last tier and deadlock is reported.
//
// Nodes are scanned in graph order, which keeps the result deterministic.
func assignTiers[T comparable](g *depgraph.Graph[T], merged func(T) bool) (tiers [][]T, deadlock bool) {
	remaining := g.Nodes()
	placed := make(map[T]bool, len(remaining))

	eligible := func(n T) bool {
		for _, dep := range g.Connections(n) {
			if dep != n && !placed[dep] {
				return false
			}
		}
		return true
	}

	for len(remaining) > 0 {
		var tier []T
		for _, n := range remaining {
			if !merged(n) && eligible(n) {
				tier = append(tier, n)
			}
		}
		if len(tier) == 0 {
			for _, n := range remaining {
				if merged(n) && eligible(n) {
					tier = []T{n}
					break
				}
			}
		}
		if len(tier) == 0 {
			tiers = append(tiers, slices.Clone(remaining))
			return tiers, true
		}

		for _, n := range tier {
			placed[n] = true
		}
		tiers = append(tiers, tier)
		remaining = slices.DeleteFunc(remaining, func(n T) bool { return placed[n] })
	}
	return tiers, false
}

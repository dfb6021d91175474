// Package planner computes tiered production plans.
//
// Given a [catalog.Catalog], a list of [Goal]s (minimum output per good) and a
// set of root goods that are treated as freely available, [Solve] chooses
// which recipes to run, and at what rate, so that every goal is met at
// minimum depth-weighted cost. The chosen recipes are then grouped into
// ordered tiers: a recipe only depends on recipes of earlier tiers, except
// for mutually dependent recipes, which share one tier.
//
// # Pipeline
//
// A solve walks through a fixed sequence of [State]s:
//
//	Init → Expand → Solved → Filtered → GraphBuilt → Condensed → Tiered
//
// Any state may end in Failed. Expansion discovers the reachable recipe
// network breadth first, starting at the goal goods and stopping at roots.
// Each recipe becomes a non-negative LP variable whose cost grows by half the
// base cost per expansion layer, so shallow supply chains win ties. Every
// visited good becomes a balance row (net production ≥ goal, or ≥ 0 for
// intermediates); all roots share a single unbounded row.
//
// After the LP solve, recipes that are basic with a rate above [Epsilon] are
// kept. A dependency graph links each kept recipe to every kept producer of
// its ingredients, strongly connected components are merged, and tiers are
// assigned greedily over the condensed graph.
//
// # Failure
//
// Invalid goals are rejected by [NewGoal] before any solving starts. A model
// without a usable solution yields an error coded NO_SOLUTION whose message is
// "model has no solution: <status>". A tiering deadlock is not an error: the
// remaining recipes land in one final tier and [Plan.Deadlock] is set.
//
// # Concurrency
//
// Each solve owns its model and graph. The LP solve runs on a background
// goroutine; [Solve] waits for it or for ctx. [Start] runs a whole solve as a
// [Task], and [Board] publishes finished plans to concurrent readers.
package planner

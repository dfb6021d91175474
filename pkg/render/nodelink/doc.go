// Package nodelink draws production plans as Graphviz diagrams.
//
// Each tier becomes a cluster; recipes are boxes labelled with their rate,
// and edges run from a producer to every recipe consuming one of its
// products, labelled with the good that flows. Merged (mutually dependent)
// recipes share a cluster and show their back edges.
//
//	dot := nodelink.ToDOT(cat, plan, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Render] dispatches on [Format] for callers that take the format from user
// input.
package nodelink

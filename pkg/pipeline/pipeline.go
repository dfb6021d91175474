// Package pipeline runs solve requests against a catalog with caching.
//
// CLI and HTTP server share one [Runner] so both resolve requests, key the
// cache, and report cache hits the same way. A solve goes request → resolved
// goals → cached plan lookup → [planner.Solve] → cache store; rendering a plan
// is cached separately, keyed by the plan's own content.
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Solve(ctx, cat, req, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	svg, _, err := runner.Render(ctx, cat, res.Plan, pipeline.RenderOptions{Format: nodelink.FormatSVG})
package pipeline

import (
	"time"

	"github.com/matzehuels/tierplan/pkg/cache"
	"github.com/matzehuels/tierplan/pkg/io"
	"github.com/matzehuels/tierplan/pkg/planner"
	"github.com/matzehuels/tierplan/pkg/render/nodelink"
)

const (
	// DefaultTTL is how long solved plans and renders stay cached. Keys
	// include the catalog fingerprint, so entries never go stale in content;
	// the TTL only bounds cache growth.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultDirection is the diagram rankdir.
	DefaultDirection = "LR"
)

// Options controls a single solve.
type Options struct {
	// Refresh skips the cache lookup; the fresh plan is still stored.
	Refresh bool

	// Trace observes solver state transitions. Only called on a cache miss.
	Trace func(planner.State)
}

// RenderOptions controls a single render.
type RenderOptions struct {
	Format    nodelink.Format
	Direction string
	Detailed  bool
}

func (o *RenderOptions) setDefaults() {
	if o.Format == "" {
		o.Format = nodelink.FormatSVG
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
}

// Result is a solved (or cached) plan.
type Result struct {
	Plan     *planner.Plan
	Key      string
	CacheHit bool
	Duration time.Duration
	Request  *io.Request
}

// Summary counts what a plan contains, for log lines and API responses.
type Summary struct {
	Recipes   int     `json:"recipes"`
	Tiers     int     `json:"tiers"`
	Objective float64 `json:"objective"`
	Deadlock  bool    `json:"deadlock,omitzero"`
}

// Summarize reports the shape of p.
func Summarize(p *planner.Plan) Summary {
	if p == nil {
		return Summary{}
	}
	return Summary{
		Recipes:   p.RecipeCount(),
		Tiers:     len(p.Tiers),
		Objective: p.Objective,
		Deadlock:  p.Deadlock,
	}
}

// keyOpts normalizes a request into cache key material. Names are used
// rather than IDs so keys survive catalog re-imports with identical content.
func keyOpts(req *io.Request) cache.PlanKeyOpts {
	opts := cache.PlanKeyOpts{
		Goals:      make([]cache.GoalKey, 0, len(req.Goals)),
		Roots:      req.Roots,
		Milestones: req.Milestones,
	}
	for _, g := range req.Goals {
		opts.Goals = append(opts.Goals, cache.GoalKey{Good: g.Good, Amount: g.Amount})
	}
	return opts
}

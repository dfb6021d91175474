package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierplan/pkg/cache"
	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	"github.com/matzehuels/tierplan/pkg/io"
	"github.com/matzehuels/tierplan/pkg/observability"
	"github.com/matzehuels/tierplan/pkg/planner"
	"github.com/matzehuels/tierplan/pkg/render/nodelink"
)

const (
	keyTypePlan   = "plan"
	keyTypeRender = "render"
)

// Runner solves and renders with caching.
//
// A Runner holds no per-request state; one value can serve concurrent
// requests as long as its Cache is safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default keyer, and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Solve resolves req against cat and returns the optimal plan, from cache
// when an identical request was solved before against identical catalog
// content. Failed solves are never cached.
func (r *Runner) Solve(ctx context.Context, cat *catalog.Catalog, req *io.Request, opts Options) (*Result, error) {
	start := time.Now()
	if req == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "request is required")
	}
	resolved, err := req.Resolve(cat)
	if err != nil {
		return nil, err
	}

	key := r.Keyer.PlanKey(cat.Fingerprint(), keyOpts(req))
	if !opts.Refresh {
		if p, ok := r.cachedPlan(ctx, cat, key); ok {
			r.Logger.Debug("plan cache hit", "key", key)
			return &Result{Plan: p, Key: key, CacheHit: true, Duration: time.Since(start), Request: req}, nil
		}
	}

	p, err := planner.Solve(ctx, cat, resolved.Goals, resolved.Roots, planner.Options{
		Accessible: resolved.Accessible,
		Logger:     r.Logger,
		Trace:      opts.Trace,
	})
	if err != nil {
		return nil, err
	}

	if data, err := io.MarshalPlan(cat, p); err != nil {
		r.Logger.Warn("encode plan for cache", "err", err)
	} else {
		r.store(ctx, keyTypePlan, key, data)
	}

	res := &Result{Plan: p, Key: key, Duration: time.Since(start), Request: req}
	r.Logger.Info("solved plan",
		"recipes", p.RecipeCount(),
		"tiers", len(p.Tiers),
		"objective", p.Objective,
		"duration", res.Duration)
	return res, nil
}

// Start runs Solve as a background task. The task's plan is the solved (or
// cached) plan.
func (r *Runner) Start(ctx context.Context, cat *catalog.Catalog, req *io.Request, opts Options) *planner.Task {
	return planner.Go(ctx, func(ctx context.Context) (*planner.Plan, error) {
		res, err := r.Solve(ctx, cat, req, opts)
		if err != nil {
			return nil, err
		}
		return res.Plan, nil
	})
}

// Render draws p in the requested format. The bool reports a cache hit.
func (r *Runner) Render(ctx context.Context, cat *catalog.Catalog, p *planner.Plan, opts RenderOptions) ([]byte, bool, error) {
	opts.setDefaults()
	if p == nil {
		return nil, false, errs.New(errs.ErrCodeNotFound, "no plan to render")
	}
	if _, err := nodelink.ParseFormat(string(opts.Format)); err != nil {
		return nil, false, err
	}

	planData, err := io.MarshalPlan(cat, p)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeInternal, err, "encode plan")
	}
	key := r.Keyer.RenderKey(cache.Hash(planData), cache.RenderKeyOpts{
		Format:    string(opts.Format),
		Direction: opts.Direction,
		Detailed:  opts.Detailed,
	})

	if data, ok := r.lookup(ctx, keyTypeRender, key); ok {
		return data, true, nil
	}

	start := time.Now()
	out, err := nodelink.Render(ctx, cat, p, opts.Format, nodelink.Options{
		Detailed:  opts.Detailed,
		Direction: opts.Direction,
	})
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, keyTypeRender, key, out)
	r.Logger.Debug("rendered plan", "format", opts.Format, "bytes", len(out), "duration", time.Since(start))
	return out, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cachedPlan(ctx context.Context, cat *catalog.Catalog, key string) (*planner.Plan, bool) {
	data, ok := r.lookup(ctx, keyTypePlan, key)
	if !ok {
		return nil, false
	}
	p, err := io.UnmarshalPlan(data, cat)
	if err != nil {
		r.Logger.Warn("dropping unreadable cached plan", "key", key, "err", err)
		_ = r.Cache.Delete(ctx, key)
		return nil, false
	}
	return p, true
}

// lookup treats cache errors as misses; a broken cache slows requests down
// but never fails them.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, err := cache.Fetch(ctx, r.Cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.Logger.Warn("cache read failed", "type", keyType, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

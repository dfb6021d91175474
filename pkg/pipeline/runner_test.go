package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierplan/pkg/cache"
	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	planio "github.com/matzehuels/tierplan/pkg/io"
	"github.com/matzehuels/tierplan/pkg/observability"
	"github.com/matzehuels/tierplan/pkg/planner"
	"github.com/matzehuels/tierplan/pkg/render/nodelink"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	b := catalog.NewBuilder()
	specs := []catalog.RecipeSpec{
		{
			Name:        "smelting",
			Cost:        2,
			Ingredients: []catalog.Quantity{{Good: "ore", Amount: 1}},
			Products:    []catalog.Quantity{{Good: "plate", Amount: 1}},
		},
		{
			Name:        "gears",
			Cost:        3,
			Ingredients: []catalog.Quantity{{Good: "plate", Amount: 2}},
			Products:    []catalog.Quantity{{Good: "gear", Amount: 1}},
		},
	}
	for _, s := range specs {
		if _, err := b.AddRecipe(s); err != nil {
			t.Fatalf("AddRecipe(%s): %v", s.Name, err)
		}
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func gearRequest() *planio.Request {
	return &planio.Request{
		Goals: []planio.GoalSpec{{Good: "gear", Amount: 5}},
		Roots: []string{"ore"},
	}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatalf("NewMemoryCache: %v", err)
	}
	return NewRunner(c, nil, log.New(io.Discard))
}

type countingHooks struct {
	mu                sync.Mutex
	hits, misses, set map[string]int
}

func newCountingHooks() *countingHooks {
	return &countingHooks{hits: map[string]int{}, misses: map[string]int{}, set: map[string]int{}}
}

func (h *countingHooks) OnCacheHit(_ context.Context, k string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[k]++
}

func (h *countingHooks) OnCacheMiss(_ context.Context, k string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[k]++
}

func (h *countingHooks) OnCacheSet(_ context.Context, k string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set[k]++
}

func TestRunnerSolveCaches(t *testing.T) {
	hooks := newCountingHooks()
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	first, err := r.Solve(ctx, cat, gearRequest(), Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if first.CacheHit {
		t.Error("first solve should miss the cache")
	}
	if got := first.Plan.RecipeCount(); got != 2 {
		t.Errorf("recipes = %d, want 2", got)
	}

	var traced []planner.State
	second, err := r.Solve(ctx, cat, gearRequest(), Options{Trace: func(s planner.State) { traced = append(traced, s) }})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !second.CacheHit {
		t.Error("second solve should hit the cache")
	}
	if second.Key != first.Key {
		t.Errorf("keys differ: %s vs %s", first.Key, second.Key)
	}
	if len(traced) != 0 {
		t.Errorf("cache hit ran the solver: %v", traced)
	}
	if second.Plan.Objective != first.Plan.Objective {
		t.Errorf("objective = %v, want %v", second.Plan.Objective, first.Plan.Objective)
	}
	if len(second.Plan.Tiers) != len(first.Plan.Tiers) {
		t.Errorf("tiers = %d, want %d", len(second.Plan.Tiers), len(first.Plan.Tiers))
	}

	if hooks.misses[keyTypePlan] != 1 || hooks.hits[keyTypePlan] != 1 || hooks.set[keyTypePlan] != 1 {
		t.Errorf("hooks: hits=%v misses=%v set=%v", hooks.hits, hooks.misses, hooks.set)
	}
}

func TestRunnerSolveRefresh(t *testing.T) {
	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	if _, err := r.Solve(ctx, cat, gearRequest(), Options{}); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	res, err := r.Solve(ctx, cat, gearRequest(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.CacheHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestRunnerSolveKeyIgnoresRootOrder(t *testing.T) {
	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	a := &planio.Request{Goals: []planio.GoalSpec{{Good: "gear", Amount: 1}}, Roots: []string{"ore", "plate"}}
	b := &planio.Request{Goals: []planio.GoalSpec{{Good: "gear", Amount: 1}}, Roots: []string{"plate", "ore"}}

	ra, err := r.Solve(ctx, cat, a, Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	rb, err := r.Solve(ctx, cat, b, Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !rb.CacheHit || ra.Key != rb.Key {
		t.Errorf("root order changed the key: %s vs %s", ra.Key, rb.Key)
	}
}

func TestRunnerSolveErrors(t *testing.T) {
	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *planio.Request
		code errs.Code
	}{
		{"nil request", nil, errs.ErrCodeInvalidInput},
		{"unknown good", &planio.Request{Goals: []planio.GoalSpec{{Good: "unobtainium", Amount: 1}}}, errs.ErrCodeInvalidGoal},
		{"negative amount", &planio.Request{Goals: []planio.GoalSpec{{Good: "gear", Amount: -1}}}, errs.ErrCodeInvalidGoal},
		{"unknown root", &planio.Request{Goals: []planio.GoalSpec{{Good: "gear", Amount: 1}}, Roots: []string{"sand"}}, errs.ErrCodeInvalidInput},
		{"no roots", &planio.Request{Goals: []planio.GoalSpec{{Good: "gear", Amount: 1}}}, errs.ErrCodeNoSolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Solve(ctx, cat, tt.req, Options{})
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRunnerSolveNotCachedOnFailure(t *testing.T) {
	cat := testCatalog(t)
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))

	req := &planio.Request{Goals: []planio.GoalSpec{{Good: "gear", Amount: 1}}}
	if _, err := r.Solve(context.Background(), cat, req, Options{}); err == nil {
		t.Fatal("expected an infeasible solve")
	}
	if c.Len() != 0 {
		t.Errorf("cache holds %d entries after a failed solve", c.Len())
	}
}

func TestRunnerRender(t *testing.T) {
	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Solve(ctx, cat, gearRequest(), Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	opts := RenderOptions{Format: nodelink.FormatDOT}
	dot, hit, err := r.Render(ctx, cat, res.Plan, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hit {
		t.Error("first render should miss")
	}
	if !strings.HasPrefix(string(dot), "digraph plan {") {
		t.Errorf("unexpected DOT output:\n%s", dot)
	}

	again, hit, err := r.Render(ctx, cat, res.Plan, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !hit || string(again) != string(dot) {
		t.Error("second render should come from cache")
	}

	detailed, hit, err := r.Render(ctx, cat, res.Plan, RenderOptions{Format: nodelink.FormatDOT, Detailed: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hit || string(detailed) == string(dot) {
		t.Error("detailed render must not share the plain render's entry")
	}
}

func TestRunnerRenderErrors(t *testing.T) {
	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	if _, _, err := r.Render(ctx, cat, nil, RenderOptions{}); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("nil plan: err = %v", err)
	}
	p := &planner.Plan{}
	if _, _, err := r.Render(ctx, cat, p, RenderOptions{Format: "gif"}); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("bad format: err = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	p := &planner.Plan{
		Tiers:     [][]planner.PlanRecipe{{{Recipe: 0}}, {{Recipe: 1, Tier: 1}}},
		Objective: 35,
	}
	want := Summary{Recipes: 2, Tiers: 2, Objective: 35}
	if s := Summarize(p); s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatal("NewRunner left a nil dependency")
	}
	if r.TTL != DefaultTTL {
		t.Errorf("TTL = %v, want %v", r.TTL, DefaultTTL)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestRunnerStart(t *testing.T) {
	cat := testCatalog(t)
	r := newTestRunner(t)
	ctx := context.Background()

	task := r.Start(ctx, cat, gearRequest(), Options{})
	p, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p.RecipeCount() != 2 {
		t.Errorf("recipes = %d, want 2", p.RecipeCount())
	}
	if !task.Finished() {
		t.Error("task should be finished after Wait")
	}

	failed := r.Start(ctx, cat, &planio.Request{Goals: []planio.GoalSpec{{Good: "nope", Amount: 1}}}, Options{})
	if _, err := failed.Wait(ctx); !errs.Is(err, errs.ErrCodeInvalidGoal) {
		t.Errorf("err = %v, want INVALID_GOAL", err)
	}
}

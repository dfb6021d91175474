package planner

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierplan/pkg/catalog"
	"github.com/matzehuels/tierplan/pkg/depgraph"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	"github.com/matzehuels/tierplan/pkg/lp"
	"github.com/matzehuels/tierplan/pkg/mapping"
	"github.com/matzehuels/tierplan/pkg/observability"
)

// Epsilon is the smallest rate a basic recipe needs to be part of a plan.
// Smaller values are solver noise.
const Epsilon = 1e-6

// depthPenalty scales a recipe's cost per expansion layer: a recipe found at
// depth d costs base × (1 + depthPenalty·d).
const depthPenalty = 0.5

// State is a step of the solve pipeline.
type State int

const (
	StateInit State = iota
	StateExpand
	StateSolved
	StateFiltered
	StateGraphBuilt
	StateCondensed
	StateTiered
	StateFailed
)

var stateNames = [...]string{
	StateInit:       "init",
	StateExpand:     "expand",
	StateSolved:     "solved",
	StateFiltered:   "filtered",
	StateGraphBuilt: "graph-built",
	StateCondensed:  "condensed",
	StateTiered:     "tiered",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures a solve. The zero value is usable.
type Options struct {
	// Accessible filters recipes by unlock state. Nil allows every recipe.
	Accessible catalog.Accessibility

	// Logger receives state transitions at debug level and tiering
	// deadlocks as warnings. Nil uses log.Default().
	Logger *log.Logger

	// Trace, when set, is called on entering every state.
	Trace func(State)
}

func (o *Options) setDefaults() {
	if o.Accessible == nil {
		o.Accessible = catalog.Everything
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// constraintKey names an LP row. Goods use their own id; the sentinels are
// negative so they never collide.
type constraintKey int32

const (
	noConstraint   constraintKey = -2
	rootConstraint constraintKey = -1
)

// depthMarker separates expansion layers in the work queue.
const depthMarker catalog.GoodID = -1

type solver struct {
	cat  *catalog.Catalog
	opts Options

	model       *lp.Model[catalog.RecipeID, constraintKey]
	constraints mapping.Mapping[catalog.GoodID, constraintKey]
	processed   mapping.Mapping[catalog.RecipeID, bool]
	order       []catalog.RecipeID
	queue       []catalog.GoodID
	goalTotals  map[catalog.GoodID]float64

	status   lp.Status
	selected []catalog.RecipeID
	rates    mapping.Mapping[catalog.RecipeID, float64]
	isChosen mapping.Mapping[catalog.RecipeID, bool]
	graph    *depgraph.Graph[catalog.RecipeID]

	state State
}

func newSolver(cat *catalog.Catalog, opts Options) *solver {
	opts.setDefaults()
	constraints := mapping.NewFunc(cat.GoodCount(), func(catalog.GoodID) constraintKey {
		return noConstraint
	})
	return &solver{
		cat:         cat,
		opts:        opts,
		model:       lp.New[catalog.RecipeID, constraintKey](),
		constraints: constraints,
		processed:   mapping.New[catalog.RecipeID, bool](cat.RecipeCount()),
		goalTotals:  make(map[catalog.GoodID]float64),
		rates:       mapping.New[catalog.RecipeID, float64](cat.RecipeCount()),
		isChosen:    mapping.New[catalog.RecipeID, bool](cat.RecipeCount()),
	}
}

// Solve computes a tiered production plan for goals, treating roots as free
// inputs. Infeasible or unbounded models return an error coded NO_SOLUTION
// and a nil plan. If ctx ends while the LP solve runs, Solve returns an error
// coded CANCELED; the abandoned solve finishes in the background.
func Solve(ctx context.Context, cat *catalog.Catalog, goals []Goal, roots []catalog.GoodID, opts Options) (*Plan, error) {
	start := time.Now()
	hooks := observability.Solve()
	hooks.OnSolveStart(ctx, len(goals), len(roots))

	s := newSolver(cat, opts)
	plan, err := s.run(ctx, goals, roots)

	result := observability.SolveResult{
		Status:      s.status.String(),
		Variables:   len(s.order),
		Constraints: s.numConstraints(),
		Duration:    time.Since(start),
		Err:         err,
	}
	if plan != nil {
		result.Recipes = plan.RecipeCount()
		result.Tiers = len(plan.Tiers)
		result.Deadlock = plan.Deadlock
	}
	hooks.OnSolveComplete(ctx, result)
	return plan, err
}

func (s *solver) run(ctx context.Context, goals []Goal, roots []catalog.GoodID) (*Plan, error) {
	s.enter(StateInit)
	if err := s.init(goals, roots); err != nil {
		return s.fail(err)
	}

	s.enter(StateExpand)
	built := time.Now()
	s.expand()
	observability.Solve().OnModelBuilt(ctx, len(s.order), s.numConstraints(), time.Since(built))

	status, err := s.solveModel(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.status = status
	s.enter(StateSolved)
	if !status.Solved() {
		return s.fail(errs.New(errs.ErrCodeNoSolution, "model has no solution: %s", status))
	}

	s.enter(StateFiltered)
	s.filter()

	s.enter(StateGraphBuilt)
	s.buildGraph()

	s.enter(StateCondensed)
	condensed := depgraph.MergeStronglyConnectedComponents(s.graph)
	if err := condensed.Validate(); err != nil {
		s.opts.Logger.Debug("condensed graph is not acyclic", "err", err)
	}
	upstream, downstream := dependencySets(condensed)

	s.enter(StateTiered)
	tiers, deadlock := assignTiers(condensed, (*depgraph.Component[catalog.RecipeID]).IsMerged)
	if deadlock {
		s.opts.Logger.Warn("tiering deadlocked, placing remaining recipes in one tier",
			"tier", len(tiers)-1,
			"components", len(tiers[len(tiers)-1]))
	}

	plan := &Plan{
		Tiers:     make([][]PlanRecipe, len(tiers)),
		Objective: s.model.Objective(),
		Deadlock:  deadlock,
	}
	for i, tier := range tiers {
		var entries []PlanRecipe
		for _, c := range tier {
			for _, id := range c.Members() {
				entries = append(entries, PlanRecipe{
					Recipe:     id,
					Tier:       i,
					Rate:       s.rates.Get(id),
					Upstream:   without(upstream[c], id),
					Downstream: without(downstream[c], id),
				})
			}
		}
		slices.SortFunc(entries, func(a, b PlanRecipe) int { return cmp.Compare(a.Recipe, b.Recipe) })
		plan.Tiers[i] = entries
	}

	s.opts.Logger.Debug("plan ready",
		"recipes", len(s.selected),
		"tiers", len(plan.Tiers),
		"objective", plan.Objective)
	return plan, nil
}

func (s *solver) enter(st State) {
	s.state = st
	s.opts.Logger.Debug("planner state", "state", st)
	if s.opts.Trace != nil {
		s.opts.Trace(st)
	}
}

func (s *solver) fail(err error) (*Plan, error) {
	s.enter(StateFailed)
	s.opts.Logger.Debug("solve failed", "err", err)
	return nil, err
}

// numConstraints counts goods with their own row plus the shared root row.
// It does not touch the model, which may still be owned by an abandoned
// background solve.
func (s *solver) numConstraints() int {
	n := 0
	shared := false
	for _, key := range s.constraints.All() {
		switch key {
		case noConstraint:
		case rootConstraint:
			shared = true
		default:
			n++
		}
	}
	if shared {
		n++
	}
	return n
}

// init registers the shared root row and one row per goal good, and seeds
// the work queue with the goal goods.
func (s *solver) init(goals []Goal, roots []catalog.GoodID) error {
	for _, r := range roots {
		if !s.cat.HasGood(r) {
			return errs.New(errs.ErrCodeInvalidInput, "root references unknown good %d", r)
		}
	}
	for _, g := range goals {
		if !s.cat.HasGood(g.Good) {
			return errs.New(errs.ErrCodeInvalidGoal, "goal references unknown good %d", g.Good)
		}
		if err := errs.ValidateAmount(g.Amount); err != nil {
			return err
		}
	}

	if len(roots) > 0 {
		s.model.AddConstraint(rootConstraint, math.Inf(-1), math.Inf(1))
	}
	for _, r := range roots {
		s.constraints.Set(r, rootConstraint)
	}

	for _, g := range goals {
		switch key := s.constraints.Get(g.Good); key {
		case rootConstraint:
			s.opts.Logger.Debug("goal good is a root, skipping", "good", s.cat.Good(g.Good).Name)
		case noConstraint:
			key = constraintKey(g.Good)
			s.constraints.Set(g.Good, key)
			s.goalTotals[g.Good] = g.Amount
			s.model.AddConstraint(key, g.Amount, math.Inf(1))
			s.queue = append(s.queue, g.Good)
		default:
			// Repeated goals for one good add up.
			s.goalTotals[g.Good] += g.Amount
			s.model.AddConstraint(key, s.goalTotals[g.Good], math.Inf(1))
		}
	}
	s.queue = append(s.queue, depthMarker)
	return nil
}

// expand walks the recipe network breadth first from the goal goods,
// turning every accessible producing recipe into a variable and every newly
// seen ingredient into a ≥ 0 row.
func (s *solver) expand() {
	depth := 0
	for head := 0; head < len(s.queue); head++ {
		good := s.queue[head]
		if good == depthMarker {
			if head+1 < len(s.queue) {
				depth++
				s.queue = append(s.queue, depthMarker)
			}
			continue
		}
		if s.constraints.Get(good) == rootConstraint {
			continue
		}

		for _, id := range s.cat.Good(good).Production {
			if s.processed.Get(id) {
				continue
			}
			r := s.cat.Recipe(id)
			if !s.opts.Accessible.Accessible(r) {
				continue
			}
			s.processed.Set(id, true)
			s.order = append(s.order, id)
			s.model.AddVariable(id, 0, math.Inf(1), r.Cost*(1+depthPenalty*float64(depth)))

			for _, p := range r.Products {
				key := s.constraints.Get(p.Good)
				if key == noConstraint {
					continue
				}
				s.model.SetCoefficient(id, key, s.model.Coefficient(id, key)+p.Amount)
			}
			for _, in := range r.Ingredients {
				key := s.constraints.Get(in.Good)
				switch key {
				case rootConstraint:
					continue
				case noConstraint:
					key = constraintKey(in.Good)
					s.constraints.Set(in.Good, key)
					s.model.AddConstraint(key, 0, math.Inf(1))
					s.queue = append(s.queue, in.Good)
				}
				s.model.SetCoefficient(id, key, s.model.Coefficient(id, key)-in.Amount)
			}
		}
	}
	s.opts.Logger.Debug("expanded recipe network",
		"variables", len(s.order),
		"constraints", s.numConstraints(),
		"layers", depth+1)
}

// solveModel hands the LP solve to a background goroutine and waits for it
// or for ctx. On cancellation the model stays with the goroutine.
func (s *solver) solveModel(ctx context.Context) (lp.Status, error) {
	if err := ctx.Err(); err != nil {
		return lp.NotSolved, errs.Wrap(errs.ErrCodeCanceled, err, "solve canceled")
	}

	model := s.model
	done := make(chan lp.Status, 1)
	go func() {
		done <- model.Solve(lp.Minimize)
	}()

	select {
	case status := <-done:
		return status, nil
	case <-ctx.Done():
		return lp.NotSolved, errs.Wrap(errs.ErrCodeCanceled, ctx.Err(), "solve canceled")
	}
}

// filter keeps the recipes that are basic and run above Epsilon, in the
// order they were discovered.
func (s *solver) filter() {
	for _, id := range s.order {
		rate := s.model.Value(id)
		if !s.model.Basic(id) || rate <= Epsilon {
			continue
		}
		s.selected = append(s.selected, id)
		s.rates.Set(id, rate)
		s.isChosen.Set(id, true)
	}
	s.opts.Logger.Debug("selected recipes", "selected", len(s.selected), "variables", len(s.order))
}

// buildGraph links every selected recipe to every selected producer of each
// of its ingredients.
func (s *solver) buildGraph() {
	g := depgraph.New[catalog.RecipeID]()
	for _, id := range s.selected {
		g.AddNode(id)
	}
	for _, id := range s.selected {
		for _, in := range s.cat.Recipe(id).Ingredients {
			for _, producer := range s.cat.Good(in.Good).Production {
				if s.isChosen.Get(producer) {
					g.Connect(id, producer)
				}
			}
		}
	}
	s.graph = g
}

type recipeComponent = *depgraph.Component[catalog.RecipeID]

// dependencySets returns, per component, the recipes its members depend on
// and the recipes depending on them. Both include the component's own
// members.
func dependencySets(g *depgraph.Graph[recipeComponent]) (upstream, downstream map[recipeComponent]depgraph.Set[catalog.RecipeID]) {
	closure := depgraph.TransitiveClosure(g)
	upstream = make(map[recipeComponent]depgraph.Set[catalog.RecipeID], len(closure))
	downstream = make(map[recipeComponent]depgraph.Set[catalog.RecipeID], len(closure))
	for _, c := range g.Nodes() {
		upstream[c] = make(depgraph.Set[catalog.RecipeID])
		downstream[c] = make(depgraph.Set[catalog.RecipeID])
	}
	for c, reach := range closure {
		for d := range reach {
			for _, m := range d.Members() {
				upstream[c].Add(m)
			}
			for _, m := range c.Members() {
				downstream[d].Add(m)
			}
		}
	}
	return upstream, downstream
}

func without(set depgraph.Set[catalog.RecipeID], self catalog.RecipeID) []catalog.RecipeID {
	out := make([]catalog.RecipeID, 0, len(set))
	for id := range set {
		if id != self {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

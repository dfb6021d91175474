package planner

import (
	"github.com/matzehuels/tierplan/pkg/catalog"
)

// PlanRecipe is one selected recipe of a plan.
type PlanRecipe struct {
	Recipe catalog.RecipeID
	Tier   int
	Rate   float64

	// Upstream holds the recipes this one transitively depends on, and
	// Downstream the recipes transitively depending on it. Both are sorted
	// and exclude the recipe itself.
	Upstream   []catalog.RecipeID
	Downstream []catalog.RecipeID
}

// Plan is the outcome of a successful solve. A nil *Plan means "no plan".
type Plan struct {
	// Tiers are ordered; recipes inside a tier are sorted by id.
	Tiers [][]PlanRecipe

	// Objective is the minimized depth-weighted cost.
	Objective float64

	// Deadlock is set when tiering could not order the remaining recipes
	// and placed them in one final tier.
	Deadlock bool
}

// RecipeCount returns the number of selected recipes.
func (p *Plan) RecipeCount() int {
	n := 0
	for _, tier := range p.Tiers {
		n += len(tier)
	}
	return n
}

// Find returns the plan entry for id.
func (p *Plan) Find(id catalog.RecipeID) (PlanRecipe, bool) {
	for _, tier := range p.Tiers {
		for _, pr := range tier {
			if pr.Recipe == id {
				return pr, true
			}
		}
	}
	return PlanRecipe{}, false
}

// Rates returns the rate of every selected recipe.
func (p *Plan) Rates() map[catalog.RecipeID]float64 {
	out := make(map[catalog.RecipeID]float64, p.RecipeCount())
	for _, tier := range p.Tiers {
		for _, pr := range tier {
			out[pr.Recipe] = pr.Rate
		}
	}
	return out
}

// NetProduction returns, for every good touched by the plan, how much the
// selected recipes produce minus how much they consume.
func (p *Plan) NetProduction(cat *catalog.Catalog) map[catalog.GoodID]float64 {
	net := make(map[catalog.GoodID]float64)
	for _, tier := range p.Tiers {
		for _, pr := range tier {
			r := cat.Recipe(pr.Recipe)
			for _, a := range r.Products {
				net[a.Good] += a.Amount * pr.Rate
			}
			for _, a := range r.Ingredients {
				net[a.Good] -= a.Amount * pr.Rate
			}
		}
	}
	return net
}

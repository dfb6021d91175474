package planner_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/tierplan/pkg/catalog"
	"github.com/matzehuels/tierplan/pkg/planner"
)

func ExampleSolve() {
	b := catalog.NewBuilder()
	ore, _ := b.AddGood("ore")
	b.AddRecipe(catalog.RecipeSpec{
		Name:        "smelting",
		Cost:        2,
		Ingredients: []catalog.Quantity{{Good: "ore", Amount: 1}},
		Products:    []catalog.Quantity{{Good: "plate", Amount: 1}},
	})
	b.AddRecipe(catalog.RecipeSpec{
		Name:        "gears",
		Cost:        1,
		Ingredients: []catalog.Quantity{{Good: "plate", Amount: 2}},
		Products:    []catalog.Quantity{{Good: "gear", Amount: 1}},
	})
	cat, _ := b.Build()

	goal, _ := planner.NewGoalByName(cat, "gear", 5)
	plan, err := planner.Solve(context.Background(), cat, []planner.Goal{goal}, []catalog.GoodID{ore}, planner.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	for i, tier := range plan.Tiers {
		for _, pr := range tier {
			fmt.Printf("tier %d: %s x%.0f\n", i, cat.Recipe(pr.Recipe).Name, pr.Rate)
		}
	}
	fmt.Printf("cost %.0f\n", plan.Objective)
	// Output:
	// tier 0: smelting x10
	// tier 1: gears x5
	// cost 35
}

package planner

import (
	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
)

// Goal asks for at least Amount units of Good per unit time.
type Goal struct {
	Good   catalog.GoodID
	Amount float64
}

// NewGoal validates a goal against cat. It fails with INVALID_GOAL when the
// good is not part of the catalog or the amount is negative or not finite.
func NewGoal(cat *catalog.Catalog, good catalog.GoodID, amount float64) (Goal, error) {
	if !cat.HasGood(good) {
		return Goal{}, errs.New(errs.ErrCodeInvalidGoal, "goal references unknown good %d", good)
	}
	if err := errs.ValidateAmount(amount); err != nil {
		return Goal{}, err
	}
	return Goal{Good: good, Amount: amount}, nil
}

// NewGoalByName resolves the good by name and validates the goal.
func NewGoalByName(cat *catalog.Catalog, name string, amount float64) (Goal, error) {
	id, ok := cat.LookupGood(name)
	if !ok {
		return Goal{}, errs.Wrap(errs.ErrCodeInvalidGoal, catalog.ErrUnknownGood, "goal references unknown good %q", name)
	}
	return NewGoal(cat, id, amount)
}

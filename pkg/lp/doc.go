// Package lp is a small linear-programming façade generic over variable and
// constraint key types.
//
// Callers register variables (bounds plus an objective coefficient) and
// constraints (bounds), set coefficients for variable/constraint pairs, then
// call [Model.Solve]. On success every variable's optimal value can be read
// back by key.
//
//	m := lp.New[string, string]()
//	m.AddVariable("smelt", 0, math.Inf(1), 2)
//	m.AddConstraint("plate", 10, math.Inf(1))
//	m.SetCoefficient("smelt", "plate", 1)
//	if m.Solve(lp.Minimize) == lp.Optimal {
//	    fmt.Println(m.Value("smelt")) // 10
//	}
//
// The solve itself is delegated to gonum's dense simplex implementation
// (gonum.org/v1/gonum/optimize/convex/lp). The model is rewritten into
// standard form first: lower bounds are shifted to zero, finite upper bounds
// and constraint sides become rows with slack columns, and rows that bound
// nothing are dropped.
//
// A Model is single-use and not safe for concurrent use. Build one per solve.
package lp

package lp

import (
	"fmt"
	"math"
)

// Direction selects whether the objective is minimized or maximized.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Status is the outcome of [Model.Solve].
type Status int

const (
	// NotSolved is the status of a model before Solve has run.
	NotSolved Status = iota
	Optimal
	// Feasible is reported for solutions that satisfy every constraint but
	// are not proven optimal. The simplex backend always proves optimality,
	// so it is only produced by callers that wrap other solvers.
	Feasible
	Infeasible
	Unbounded
	// Abnormal covers numerical failures of the backend (singular bases,
	// ill-conditioned pivots).
	Abnormal
)

var statusNames = map[Status]string{
	NotSolved:  "NOT_SOLVED",
	Optimal:    "OPTIMAL",
	Feasible:   "FEASIBLE",
	Infeasible: "INFEASIBLE",
	Unbounded:  "UNBOUNDED",
	Abnormal:   "ABNORMAL",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Solved reports whether the status carries a usable solution.
func (s Status) Solved() bool { return s == Optimal || s == Feasible }

// DefaultTolerance is the pivot tolerance handed to the simplex backend and
// the threshold used by [Model.Basic].
const DefaultTolerance = 1e-9

type variable struct {
	min, max, objective float64
}

type constraint struct {
	min, max float64
}

// Model is a linear program over variables keyed by V and constraints keyed
// by C. The zero value is not usable; use [New].
type Model[V comparable, C comparable] struct {
	vars     []V
	varIndex map[V]int
	varSpec  []variable

	cons     []C
	conIndex map[C]int
	conSpec  []constraint

	coeffs map[[2]int]float64

	tolerance float64
	status    Status
	used      bool
	values    []float64
	basic     []bool
	objective float64
}

// New creates an empty model.
func New[V comparable, C comparable]() *Model[V, C] {
	return &Model[V, C]{
		varIndex:  make(map[V]int),
		conIndex:  make(map[C]int),
		coeffs:    make(map[[2]int]float64),
		tolerance: DefaultTolerance,
	}
}

// SetTolerance overrides [DefaultTolerance].
func (m *Model[V, C]) SetTolerance(tol float64) { m.tolerance = tol }

// AddVariable registers key with bounds [min, max] and the given objective
// coefficient. Either bound may be infinite. Registering a key twice
// overwrites its bounds and coefficient.
func (m *Model[V, C]) AddVariable(key V, min, max, objective float64) {
	spec := variable{min: min, max: max, objective: objective}
	if i, ok := m.varIndex[key]; ok {
		m.varSpec[i] = spec
		return
	}
	m.varIndex[key] = len(m.vars)
	m.vars = append(m.vars, key)
	m.varSpec = append(m.varSpec, spec)
}

// AddConstraint registers key with bounds min <= Σ coef·var <= max. Either
// bound may be infinite. Registering a key twice overwrites its bounds.
func (m *Model[V, C]) AddConstraint(key C, min, max float64) {
	spec := constraint{min: min, max: max}
	if i, ok := m.conIndex[key]; ok {
		m.conSpec[i] = spec
		return
	}
	m.conIndex[key] = len(m.cons)
	m.cons = append(m.cons, key)
	m.conSpec = append(m.conSpec, spec)
}

// HasVariable reports whether key was registered as a variable.
func (m *Model[V, C]) HasVariable(key V) bool {
	_, ok := m.varIndex[key]
	return ok
}

// HasConstraint reports whether key was registered as a constraint.
func (m *Model[V, C]) HasConstraint(key C) bool {
	_, ok := m.conIndex[key]
	return ok
}

// SetCoefficient sets the coefficient of variable v in constraint c. The last
// write wins; pairs never set are zero. Both keys must already be registered.
func (m *Model[V, C]) SetCoefficient(v V, c C, value float64) {
	key := [2]int{m.mustVar(v), m.mustCon(c)}
	if value == 0 {
		delete(m.coeffs, key)
		return
	}
	m.coeffs[key] = value
}

// Coefficient returns the coefficient of v in c, or zero if never set.
func (m *Model[V, C]) Coefficient(v V, c C) float64 {
	return m.coeffs[[2]int{m.mustVar(v), m.mustCon(c)}]
}

// NumVariables returns the number of registered variables.
func (m *Model[V, C]) NumVariables() int { return len(m.vars) }

// NumConstraints returns the number of registered constraints.
func (m *Model[V, C]) NumConstraints() int { return len(m.cons) }

// Status returns the outcome of the last Solve, or NotSolved.
func (m *Model[V, C]) Status() Status { return m.status }

// Value returns the solved value of v. It is zero unless the status is
// Optimal or Feasible.
func (m *Model[V, C]) Value(v V) float64 {
	if !m.status.Solved() {
		return 0
	}
	return m.values[m.mustVar(v)]
}

// Basic reports whether v's standard-form value lies above the solver
// tolerance, that is strictly away from the bound it was shifted to. The
// simplex backend does not expose its basis, so this is derived from the
// solution: a degenerate basic variable sitting at its bound reports false.
func (m *Model[V, C]) Basic(v V) bool {
	if !m.status.Solved() {
		return false
	}
	return m.basic[m.mustVar(v)]
}

// Results returns a copy of every variable's solved value, or an empty map
// when the model has no solution.
func (m *Model[V, C]) Results() map[V]float64 {
	out := make(map[V]float64)
	if !m.status.Solved() {
		return out
	}
	for i, v := range m.vars {
		out[v] = m.values[i]
	}
	return out
}

// Objective returns the objective value of the solution, or NaN when the
// model has no solution.
func (m *Model[V, C]) Objective() float64 {
	if !m.status.Solved() {
		return math.NaN()
	}
	return m.objective
}

func (m *Model[V, C]) mustVar(v V) int {
	i, ok := m.varIndex[v]
	if !ok {
		panic(fmt.Sprintf("lp: unknown variable %v", v))
	}
	return i
}

func (m *Model[V, C]) mustCon(c C) int {
	i, ok := m.conIndex[c]
	if !ok {
		panic(fmt.Sprintf("lp: unknown constraint %v", c))
	}
	return i
}

package lp

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// column maps an original variable onto standard-form columns:
// x = offset + sign·y[pos] − y[neg], with every y >= 0.
type column struct {
	offset float64
	sign   float64
	pos    int
	neg    int // -1 unless the variable is free
}

// row is one equality of the standard form: Σ coef·y + slack·s = rhs.
type row struct {
	coef  map[int]float64
	rhs   float64
	slack float64 // 0 for equalities, +1 for <=, -1 for >=
}

// Solve optimizes the model in the given direction and returns the status.
// A model can be solved once; calling Solve again panics.
func (m *Model[V, C]) Solve(dir Direction) Status {
	if m.used {
		panic("lp: model already solved")
	}
	m.used = true
	m.status = m.solve(dir)
	return m.status
}

func (m *Model[V, C]) solve(dir Direction) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			status = Abnormal
		}
	}()

	sense := 1.0
	if dir == Maximize {
		sense = -1
	}

	var cost []float64
	newCol := func(c float64) int {
		cost = append(cost, c)
		return len(cost) - 1
	}

	var rows []row
	cols := make([]column, len(m.vars))
	for j, spec := range m.varSpec {
		lo, hi := spec.min, spec.max
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi || math.IsInf(lo, 1) || math.IsInf(hi, -1) {
			return Infeasible
		}
		obj := sense * spec.objective
		switch {
		case !math.IsInf(lo, -1):
			cols[j] = column{offset: lo, sign: 1, pos: newCol(obj), neg: -1}
			if !math.IsInf(hi, 1) {
				rows = append(rows, row{coef: map[int]float64{cols[j].pos: 1}, rhs: hi - lo, slack: 1})
			}
		case !math.IsInf(hi, 1):
			cols[j] = column{offset: hi, sign: -1, pos: newCol(-obj), neg: -1}
		default:
			cols[j] = column{sign: 1, pos: newCol(obj), neg: newCol(-obj)}
		}
	}

	constRows, ok := m.constraintRows(cols)
	if !ok {
		return Infeasible
	}
	rows = append(rows, constRows...)

	// Columns that appear in no row are either pinned at zero or unbounded.
	used := make([]bool, len(cost))
	for _, r := range rows {
		for c := range r.coef {
			used[c] = true
		}
	}
	active := make([]int, len(cost))
	n := 0
	for c, u := range used {
		if !u {
			if cost[c] < -m.tolerance {
				return Unbounded
			}
			active[c] = -1
			continue
		}
		active[c] = n
		n++
	}
	for _, r := range rows {
		if r.slack != 0 {
			n++
		}
	}

	y := make([]float64, len(cost))
	if len(rows) > 0 {
		if len(rows) > n {
			return Abnormal
		}
		c, a, b := buildStandardForm(rows, cost, active, len(rows), n)
		_, opt, err := gonumlp.Simplex(c, a, b, m.tolerance, nil)
		switch {
		case errors.Is(err, gonumlp.ErrInfeasible):
			return Infeasible
		case errors.Is(err, gonumlp.ErrUnbounded):
			return Unbounded
		case err != nil:
			return Abnormal
		}
		for col, idx := range active {
			if idx >= 0 {
				y[col] = opt[idx]
			}
		}
	}

	m.values = make([]float64, len(m.vars))
	m.basic = make([]bool, len(m.vars))
	m.objective = 0
	for j, col := range cols {
		x := col.offset + col.sign*y[col.pos]
		basic := y[col.pos] > m.tolerance
		if col.neg >= 0 {
			x -= y[col.neg]
			basic = basic || y[col.neg] > m.tolerance
		}
		m.values[j] = x
		m.basic[j] = basic
		m.objective += m.varSpec[j].objective * x
	}
	return Optimal
}

// constraintRows rewrites every constraint in terms of standard-form columns.
// Constraints that reference no column are checked directly and dropped;
// ok is false if one of them is violated.
func (m *Model[V, C]) constraintRows(cols []column) (rows []row, ok bool) {
	keys := make([][2]int, 0, len(m.coeffs))
	for k := range m.coeffs {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [2]int) int {
		if a[1] != b[1] {
			return a[1] - b[1]
		}
		return a[0] - b[0]
	})

	expr := make([]map[int]float64, len(m.cons))
	constant := make([]float64, len(m.cons))
	for _, k := range keys {
		a := m.coeffs[k]
		j, i := k[0], k[1]
		col := cols[j]
		if expr[i] == nil {
			expr[i] = make(map[int]float64)
		}
		constant[i] += a * col.offset
		expr[i][col.pos] += a * col.sign
		if col.neg >= 0 {
			expr[i][col.neg] -= a
		}
	}

	for i, spec := range m.conSpec {
		lo, hi := spec.min, spec.max
		if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
			return nil, false
		}
		for c, v := range expr[i] {
			if v == 0 {
				delete(expr[i], c)
			}
		}
		if len(expr[i]) == 0 {
			if constant[i] < lo-m.tolerance || constant[i] > hi+m.tolerance {
				return nil, false
			}
			continue
		}

		switch {
		case math.IsInf(lo, -1) && math.IsInf(hi, 1):
			continue
		case lo == hi:
			rows = append(rows, row{coef: expr[i], rhs: lo - constant[i]})
		default:
			if !math.IsInf(lo, -1) {
				rows = append(rows, row{coef: expr[i], rhs: lo - constant[i], slack: -1})
			}
			if !math.IsInf(hi, 1) {
				rows = append(rows, row{coef: expr[i], rhs: hi - constant[i], slack: 1})
			}
		}
	}
	return rows, true
}

// buildStandardForm lays rows out as a dense matrix. Slack columns follow
// the active variable columns, one per inequality row. Rows are negated where
// needed so that b >= 0.
func buildStandardForm(rows []row, cost []float64, active []int, m, n int) (c []float64, a *mat.Dense, b []float64) {
	c = make([]float64, n)
	for col, idx := range active {
		if idx >= 0 {
			c[idx] = cost[col]
		}
	}

	a = mat.NewDense(m, n, nil)
	b = make([]float64, m)
	slackCol := n
	for _, r := range rows {
		if r.slack != 0 {
			slackCol--
		}
	}

	for i, r := range rows {
		flip := 1.0
		if r.rhs < 0 {
			flip = -1
		}
		b[i] = flip * r.rhs
		for col, v := range r.coef {
			a.Set(i, active[col], flip*v)
		}
		if r.slack != 0 {
			a.Set(i, slackCol, flip*r.slack)
			slackCol++
		}
	}
	return c, a, b
}

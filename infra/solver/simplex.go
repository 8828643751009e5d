// Package solver provides the gonum simplex backend for the core solver
// interface.
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	coresolver "github.com/DixonScott/battery-optimizer/core/solver"
)

const simplexTol = 1e-7

// Simplex solves problems with gonum's dense simplex implementation.
type Simplex struct{}

// NewSimplex returns a gonum-backed solver.
func NewSimplex() Simplex { return Simplex{} }

// Solve converts the problem to general form, lets gonum reduce it to
// standard form and runs the simplex algorithm. Variable bounds are encoded
// as inequality rows because the standard-form conversion treats every
// variable as free.
func (Simplex) Solve(p *coresolver.Problem) (coresolver.Solution, coresolver.Status, error) {
	n := p.NumVars()
	if n == 0 {
		return coresolver.Solution{}, coresolver.StatusFailed, fmt.Errorf("empty problem")
	}

	c := make([]float64, n)
	for v, coeff := range p.Objective() {
		c[v] = coeff
	}

	var ineq, eq []coresolver.Constraint
	for _, con := range p.Constraints() {
		if con.Equal {
			eq = append(eq, con)
		} else {
			ineq = append(ineq, con)
		}
	}

	// Bound rows: -x <= -lower, x <= upper.
	var boundRows int
	for v := 0; v < n; v++ {
		lower, upper := p.Bounds(v)
		if !math.IsInf(lower, -1) {
			boundRows++
		}
		if !math.IsInf(upper, 1) {
			boundRows++
		}
	}

	g := mat.NewDense(len(ineq)+boundRows, n, nil)
	h := make([]float64, len(ineq)+boundRows)
	for i, con := range ineq {
		for _, t := range con.Terms {
			g.Set(i, t.Var, g.At(i, t.Var)+t.Coeff)
		}
		h[i] = con.RHS
	}
	row := len(ineq)
	for v := 0; v < n; v++ {
		lower, upper := p.Bounds(v)
		if !math.IsInf(lower, -1) {
			g.Set(row, v, -1)
			h[row] = -lower
			row++
		}
		if !math.IsInf(upper, 1) {
			g.Set(row, v, 1)
			h[row] = upper
			row++
		}
	}

	var a mat.Matrix
	var b []float64
	if len(eq) > 0 {
		ad := mat.NewDense(len(eq), n, nil)
		b = make([]float64, len(eq))
		for i, con := range eq {
			for _, t := range con.Terms {
				ad.Set(i, t.Var, ad.At(i, t.Var)+t.Coeff)
			}
			b[i] = con.RHS
		}
		a = ad
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	opt, sol, err := lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return coresolver.Solution{}, coresolver.StatusInfeasible, nil
		}
		return coresolver.Solution{}, coresolver.StatusFailed, fmt.Errorf("simplex: %w", err)
	}

	// Convert splits each free variable x into x = x+ - x-, laid out as
	// [x+ (n), x- (n), slacks].
	values := make([]float64, n)
	for v := 0; v < n; v++ {
		values[v] = sol[v] - sol[n+v]
	}
	return coresolver.Solution{Values: values, Objective: opt}, coresolver.StatusOptimal, nil
}

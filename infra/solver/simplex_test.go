package solver

import (
	"math"
	"testing"

	coresolver "github.com/DixonScott/battery-optimizer/core/solver"
)

const tol = 1e-6

func TestSolveBoundedMinimum(t *testing.T) {
	// min x subject to 1 <= x <= 4.
	p := coresolver.NewProblem()
	x := p.Var(1, 4)
	p.Cost(x, 1)

	sol, status, err := Simplex{}.Solve(p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if status != coresolver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", status)
	}
	if math.Abs(sol.Values[x]-1) > tol {
		t.Fatalf("x = %v, want 1", sol.Values[x])
	}
	if math.Abs(sol.Objective-1) > tol {
		t.Fatalf("objective %v, want 1", sol.Objective)
	}
}

func TestSolveTwoVariableBlend(t *testing.T) {
	// min 2x + 3y subject to x + y = 10, x <= 6, y <= 6, x,y >= 0.
	// The cheap variable fills first: x=6, y=4, objective 24.
	p := coresolver.NewProblem()
	x := p.Var(0, 6)
	y := p.Var(0, 6)
	p.Cost(x, 2)
	p.Cost(y, 3)
	p.Eq([]coresolver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, 10)

	sol, status, err := Simplex{}.Solve(p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if status != coresolver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", status)
	}
	if math.Abs(sol.Values[x]-6) > tol || math.Abs(sol.Values[y]-4) > tol {
		t.Fatalf("got x=%v y=%v, want x=6 y=4", sol.Values[x], sol.Values[y])
	}
	if math.Abs(sol.Objective-24) > tol {
		t.Fatalf("objective %v, want 24", sol.Objective)
	}
}

func TestSolveNegativeOptimum(t *testing.T) {
	// Free variables are split internally; make sure negative solution
	// values are reconstructed. min x subject to -5 <= x <= 5.
	p := coresolver.NewProblem()
	x := p.Var(-5, 5)
	p.Cost(x, 1)

	sol, status, err := Simplex{}.Solve(p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if status != coresolver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", status)
	}
	if math.Abs(sol.Values[x]-(-5)) > tol {
		t.Fatalf("x = %v, want -5", sol.Values[x])
	}
}

func TestSolveInequalityBinds(t *testing.T) {
	// max x + y (as min of the negation) with x + 2y <= 4 and caps on both.
	p := coresolver.NewProblem()
	x := p.Var(0, 3)
	y := p.Var(0, 3)
	p.Cost(x, -1)
	p.Cost(y, -1)
	p.LessEq([]coresolver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 2}}, 4)

	sol, status, err := Simplex{}.Solve(p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if status != coresolver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", status)
	}
	if math.Abs(sol.Values[x]-3) > tol || math.Abs(sol.Values[y]-0.5) > tol {
		t.Fatalf("got x=%v y=%v, want x=3 y=0.5", sol.Values[x], sol.Values[y])
	}
}

func TestSolveInfeasible(t *testing.T) {
	// x <= 1 and x = 5 cannot both hold.
	p := coresolver.NewProblem()
	x := p.Var(0, 1)
	p.Cost(x, 1)
	p.Eq([]coresolver.Term{{Var: x, Coeff: 1}}, 5)

	_, status, err := Simplex{}.Solve(p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if status != coresolver.StatusInfeasible {
		t.Fatalf("status %s, want Infeasible", status)
	}
}

func TestSolveEmptyProblem(t *testing.T) {
	if _, status, err := (Simplex{}).Solve(coresolver.NewProblem()); err == nil {
		t.Fatal("expected an error for an empty problem")
	} else if status != coresolver.StatusFailed {
		t.Fatalf("status %s, want Failed", status)
	}
}

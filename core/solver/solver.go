// Package solver defines a narrow interface to a linear-programming
// capability: declare bounded variables, add linear constraints, set a
// linear objective and solve. Model construction stays independent of the
// concrete backend.
package solver

import "math"

// Status reports the outcome of a solve.
type Status int

const (
	// StatusOptimal means the solver found a global optimum.
	StatusOptimal Status = iota
	// StatusInfeasible means the constraint system admits no solution.
	StatusInfeasible
	// StatusFailed covers numerical failure or an unbounded objective.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	default:
		return "Failed"
	}
}

// Term is a single linear coefficient on a variable.
type Term struct {
	Var   int
	Coeff float64
}

// Constraint is a linear constraint sum(Terms) op RHS.
type Constraint struct {
	Terms []Term
	Equal bool // true for ==, false for <=
	RHS   float64
}

// Problem accumulates a minimization LP.
type Problem struct {
	lower       []float64
	upper       []float64
	objective   map[int]float64
	constraints []Constraint
}

// NewProblem returns an empty minimization problem.
func NewProblem() *Problem {
	return &Problem{objective: make(map[int]float64)}
}

// Var declares a new variable with the given bounds and returns its index.
// Use math.Inf(1) for an unbounded upper limit.
func (p *Problem) Var(lower, upper float64) int {
	p.lower = append(p.lower, lower)
	p.upper = append(p.upper, upper)
	return len(p.lower) - 1
}

// NonNeg declares a variable bounded below by zero.
func (p *Problem) NonNeg() int { return p.Var(0, math.Inf(1)) }

// Cost adds coeff to the objective coefficient of variable v.
func (p *Problem) Cost(v int, coeff float64) {
	p.objective[v] += coeff
}

// LessEq adds the constraint sum(terms) <= rhs.
func (p *Problem) LessEq(terms []Term, rhs float64) {
	p.constraints = append(p.constraints, Constraint{Terms: terms, RHS: rhs})
}

// Eq adds the constraint sum(terms) == rhs.
func (p *Problem) Eq(terms []Term, rhs float64) {
	p.constraints = append(p.constraints, Constraint{Terms: terms, Equal: true, RHS: rhs})
}

// NumVars reports how many variables have been declared.
func (p *Problem) NumVars() int { return len(p.lower) }

// Bounds returns the declared bounds of variable v.
func (p *Problem) Bounds(v int) (lower, upper float64) { return p.lower[v], p.upper[v] }

// Objective returns the objective coefficients keyed by variable index.
func (p *Problem) Objective() map[int]float64 { return p.objective }

// Constraints returns the accumulated constraints.
func (p *Problem) Constraints() []Constraint { return p.constraints }

// Solution holds the optimal variable values of a solved problem.
type Solution struct {
	Values    []float64
	Objective float64
}

// Solver turns a Problem into a Solution. The call blocks until the backend
// finishes; implementations expose no cancellation contract.
type Solver interface {
	Solve(p *Problem) (Solution, Status, error)
}

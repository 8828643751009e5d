// Package optimizer builds the exact linear-programming formulation of the
// battery dispatch problem and extracts the optimal plan and state-of-charge
// trajectory from the solved model.
package optimizer

import (
	"fmt"

	"github.com/DixonScott/battery-optimizer/core/logger"
	"github.com/DixonScott/battery-optimizer/core/model"
	"github.com/DixonScott/battery-optimizer/core/solver"
)

// Mode selects the quantity the optimizer minimizes.
type Mode string

const (
	// ModeCost minimizes electricity cost; exported energy earns the
	// export price.
	ModeCost Mode = "cost"
	// ModeCarbon minimizes grid carbon emissions; exports receive no
	// carbon credit.
	ModeCarbon Mode = "carbon"
)

// Result is the outcome of one optimization run. Plan and Trajectory are
// populated only when Status is Optimal.
type Result struct {
	Status     solver.Status
	Plan       model.DispatchPlan
	Trajectory model.Trajectory
	Objective  float64
}

// Optimizer computes globally optimal dispatch plans through an LP backend.
type Optimizer struct {
	solver solver.Solver
	log    logger.Logger
}

// New returns an Optimizer solving with the given backend.
func New(s solver.Solver, log logger.Logger) *Optimizer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Optimizer{solver: s, log: log}
}

// Optimize minimizes total cost or carbon over the horizon subject to the
// battery's power and energy limits. Round-trip efficiency derates the
// charging leg only; all SoC bounds refer to usable, post-loss energy.
func (o *Optimizer) Optimize(rows []model.ForecastRow, battery model.BatteryConfig, mode Mode) (Result, error) {
	if err := battery.Validate(); err != nil {
		return Result{}, err
	}
	if mode != ModeCost && mode != ModeCarbon {
		return Result{}, fmt.Errorf("%w: unknown optimization mode %q", model.ErrInvalidConfig, mode)
	}
	dt, err := model.StepHours(rows)
	if err != nil {
		return Result{}, err
	}
	n := len(rows)

	p := solver.NewProblem()
	charge := make([]int, n)
	dischargeHome := make([]int, n)
	dischargeGrid := make([]int, n)
	gridHome := make([]int, n)
	soc := make([]int, n+1)
	for t := 0; t < n; t++ {
		charge[t] = p.Var(0, battery.MaxChargeKW)
		dischargeHome[t] = p.NonNeg()
		dischargeGrid[t] = p.NonNeg()
		gridHome[t] = p.NonNeg()
	}
	for t := 0; t <= n; t++ {
		soc[t] = p.Var(battery.MinSoCKWh, battery.MaxSoCKWh)
	}

	p.Eq([]solver.Term{{Var: soc[0], Coeff: 1}}, battery.InitialSoCKWh)
	if battery.MinFinalSoCKWh != nil {
		// soc[n] >= min final, expressed as -soc[n] <= -min.
		p.LessEq([]solver.Term{{Var: soc[n], Coeff: -1}}, -*battery.MinFinalSoCKWh)
	}
	if battery.MaxFinalSoCKWh != nil {
		p.LessEq([]solver.Term{{Var: soc[n], Coeff: 1}}, *battery.MaxFinalSoCKWh)
	}

	for t := 0; t < n; t++ {
		// Energy balance between consecutive states.
		p.Eq([]solver.Term{
			{Var: soc[t+1], Coeff: 1},
			{Var: soc[t], Coeff: -1},
			{Var: charge[t], Coeff: -dt * battery.Efficiency},
			{Var: dischargeHome[t], Coeff: dt},
			{Var: dischargeGrid[t], Coeff: dt},
		}, 0)
		// Home demand must be met exactly.
		p.Eq([]solver.Term{
			{Var: dischargeHome[t], Coeff: 1},
			{Var: gridHome[t], Coeff: 1},
		}, rows[t].DemandKW)
		// Total discharge is limited by the inverter rating.
		p.LessEq([]solver.Term{
			{Var: dischargeHome[t], Coeff: 1},
			{Var: dischargeGrid[t], Coeff: 1},
		}, battery.MaxDischargeKW)
	}

	for t := 0; t < n; t++ {
		switch mode {
		case ModeCost:
			p.Cost(charge[t], dt*rows[t].ImportPrice)
			p.Cost(gridHome[t], dt*rows[t].ImportPrice)
			p.Cost(dischargeGrid[t], -dt*rows[t].ExportPrice)
		case ModeCarbon:
			p.Cost(charge[t], dt*rows[t].CarbonIntensity)
			p.Cost(gridHome[t], dt*rows[t].CarbonIntensity)
		}
	}

	sol, status, err := o.solver.Solve(p)
	if err != nil {
		return Result{}, fmt.Errorf("solve dispatch LP: %w", err)
	}
	if status != solver.StatusOptimal {
		o.log.Warnf("dispatch LP not optimal: %s", status)
		return Result{Status: status}, nil
	}

	res := Result{
		Status:     status,
		Plan:       make(model.DispatchPlan, n),
		Trajectory: make(model.Trajectory, n+1),
		Objective:  sol.Objective,
	}
	for t := 0; t < n; t++ {
		res.Plan[t] = model.PlanStep{
			ChargeKW:        clampNonNeg(sol.Values[charge[t]]),
			DischargeHomeKW: clampNonNeg(sol.Values[dischargeHome[t]]),
			DischargeGridKW: clampNonNeg(sol.Values[dischargeGrid[t]]),
			GridHomeKW:      clampNonNeg(sol.Values[gridHome[t]]),
		}
	}
	for t := 0; t <= n; t++ {
		res.Trajectory[t] = sol.Values[soc[t]]
	}
	o.log.Debugw("dispatch LP solved", map[string]any{
		"mode":      string(mode),
		"steps":     n,
		"objective": sol.Objective,
	})
	return res, nil
}

// clampNonNeg zeroes the slight negative noise the simplex backend can leave
// on active bounds.
func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

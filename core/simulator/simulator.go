// Package simulator replays a signed power schedule into realized power and
// state of charge. It is the single authority for what actually happens
// given any schedule, including ones produced outside the greedy scheduler,
// because it clips every request to the nearest physically consistent value.
package simulator

import (
	"fmt"

	"github.com/DixonScott/battery-optimizer/core/model"
)

// Params configures a simulation run. MaxSoCKWh defaults to CapacityKWh
// when not positive.
type Params struct {
	CapacityKWh    float64
	InitialSoCKWh  float64
	MinSoCKWh      float64
	MaxSoCKWh      float64
	MaxChargeKW    float64
	MaxDischargeKW float64
	Efficiency     float64
}

func (p Params) validate() (Params, error) {
	if p.MaxSoCKWh <= 0 {
		p.MaxSoCKWh = p.CapacityKWh
	}
	if p.Efficiency <= 0 || p.Efficiency > 1 {
		return p, fmt.Errorf("%w: efficiency must be in (0,1], got %v", model.ErrInvalidConfig, p.Efficiency)
	}
	if p.MaxChargeKW < 0 || p.MaxDischargeKW < 0 {
		return p, fmt.Errorf("%w: power limits must be non-negative", model.ErrInvalidConfig)
	}
	if p.MinSoCKWh > p.MaxSoCKWh {
		return p, fmt.Errorf("%w: min_soc_kwh %v exceeds max_soc_kwh %v", model.ErrInvalidConfig, p.MinSoCKWh, p.MaxSoCKWh)
	}
	if p.InitialSoCKWh < p.MinSoCKWh || p.InitialSoCKWh > p.MaxSoCKWh {
		return p, fmt.Errorf("%w: initial_soc_kwh %v outside [%v,%v]", model.ErrInvalidConfig, p.InitialSoCKWh, p.MinSoCKWh, p.MaxSoCKWh)
	}
	return p, nil
}

// Row is a forecast row augmented with the realized outcome of one step.
// SoCKWh is the state of charge entering the step; ActualKW differs from
// RequestedKW whenever a power or energy limit clipped the request.
type Row struct {
	model.ForecastRow
	RequestedKW float64 `json:"requested_kw"`
	ActualKW    float64 `json:"actual_kw"`
	SoCKWh      float64 `json:"soc_kwh"`
}

// Run deterministically replays schedule over rows. A nil schedule means an
// idle battery. Charging derates the stored energy by the round-trip
// efficiency; when a step would cross an SoC bound the energy delta is
// recomputed to land exactly on the bound and the power back-solved from it,
// dividing by efficiency only on the charging branch.
func Run(rows []model.ForecastRow, schedule model.Schedule, p Params) ([]Row, error) {
	dt, err := model.StepHours(rows)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		schedule = make(model.Schedule, len(rows))
	}
	if len(schedule) != len(rows) {
		return nil, fmt.Errorf("%w: schedule length %d does not match horizon %d", model.ErrInvalidConfig, len(schedule), len(rows))
	}
	p, err = p.validate()
	if err != nil {
		return nil, err
	}

	out := make([]Row, len(rows))
	soc := p.InitialSoCKWh
	for t, requested := range schedule {
		power := requested
		var socChange float64
		if power > 0 {
			power = min(power, p.MaxChargeKW)
			socChange = power * dt * p.Efficiency
		} else {
			power = max(power, -p.MaxDischargeKW)
			socChange = power * dt
		}

		newSoC := soc + socChange
		if newSoC > p.MaxSoCKWh {
			socChange = p.MaxSoCKWh - soc
			power = backSolve(socChange, dt, p.Efficiency, power > 0)
			newSoC = p.MaxSoCKWh
		} else if newSoC < p.MinSoCKWh {
			socChange = p.MinSoCKWh - soc
			power = backSolve(socChange, dt, p.Efficiency, power > 0)
			newSoC = p.MinSoCKWh
		}

		out[t] = Row{
			ForecastRow: rows[t],
			RequestedKW: requested,
			ActualKW:    power,
			SoCKWh:      soc,
		}
		soc = newSoC
	}
	return out, nil
}

// backSolve recovers the power matching an exact energy delta. Only the
// charging branch pays the conversion loss.
func backSolve(socChange, dt, efficiency float64, charging bool) float64 {
	power := socChange / dt
	if charging {
		power /= efficiency
	}
	return power
}

// Trajectory reconstructs the n+1 SoC path of simulated rows, applying the
// efficiency derating to the final charging step the same way Run did.
func Trajectory(rows []Row, p Params) (model.Trajectory, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no simulated rows", model.ErrInvalidConfig)
	}
	p, err := p.validate()
	if err != nil {
		return nil, err
	}
	forecast := make([]model.ForecastRow, len(rows))
	for i, r := range rows {
		forecast[i] = r.ForecastRow
	}
	dt, err := model.StepHours(forecast)
	if err != nil {
		return nil, err
	}
	out := make(model.Trajectory, len(rows)+1)
	for i, r := range rows {
		out[i] = r.SoCKWh
	}
	last := rows[len(rows)-1]
	delta := last.ActualKW * dt
	if last.ActualKW > 0 {
		delta *= p.Efficiency
	}
	out[len(rows)] = last.SoCKWh + delta
	return out, nil
}

// Plan converts realized rows to dispatch-plan form, with discharge serving
// the home before the grid.
func Plan(rows []Row) (model.DispatchPlan, error) {
	schedule := make(model.Schedule, len(rows))
	demand := make([]float64, len(rows))
	for i, r := range rows {
		schedule[i] = r.ActualKW
		demand[i] = r.DemandKW
	}
	return schedule.Plan(demand)
}

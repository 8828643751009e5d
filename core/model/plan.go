package model

import "fmt"

// PlanStep is the dispatch decision for one timestep. All values are powers
// in kW and non-negative.
type PlanStep struct {
	ChargeKW        float64 `json:"charge_kw"`
	DischargeHomeKW float64 `json:"discharge_home_kw"`
	DischargeGridKW float64 `json:"discharge_grid_kw"`
	GridHomeKW      float64 `json:"grid_home_kw"`
}

// DispatchPlan assigns battery and grid flows to every timestep of the
// horizon.
type DispatchPlan []PlanStep

// Trajectory holds n+1 state-of-charge values in kWh; element 0 is the
// initial state and element t the state entering timestep t.
type Trajectory []float64

// Schedule is one signed net battery power per timestep in kW: positive
// means charging, negative discharging.
type Schedule []float64

// Signed collapses a dispatch plan into the heuristic's signed form.
func (p DispatchPlan) Signed() Schedule {
	out := make(Schedule, len(p))
	for i, s := range p {
		out[i] = s.ChargeKW - s.DischargeHomeKW - s.DischargeGridKW
	}
	return out
}

// Plan expands a signed schedule into dispatch-plan form against the given
// demand series. Discharge serves the home first; any excess is exported.
func (s Schedule) Plan(demandKW []float64) (DispatchPlan, error) {
	if len(s) != len(demandKW) {
		return nil, fmt.Errorf("%w: schedule length %d does not match demand length %d", ErrInvalidConfig, len(s), len(demandKW))
	}
	plan := make(DispatchPlan, len(s))
	for i, p := range s {
		step := PlanStep{}
		if p >= 0 {
			step.ChargeKW = p
			step.GridHomeKW = demandKW[i]
		} else {
			discharge := -p
			step.DischargeHomeKW = min(discharge, demandKW[i])
			step.DischargeGridKW = discharge - step.DischargeHomeKW
			step.GridHomeKW = demandKW[i] - step.DischargeHomeKW
		}
		plan[i] = step
	}
	return plan, nil
}

// Package analysis compares a realized dispatch plan against a no-battery
// baseline where demand is served entirely by direct import.
package analysis

import (
	"fmt"

	"github.com/DixonScott/battery-optimizer/core/model"
)

// Savings holds the deltas of a realized schedule versus the baseline.
// Negative values mean the schedule underperformed the baseline; they are
// reported as-is.
type Savings struct {
	CarbonKg float64 `json:"carbon_saved_kg"`
	// Money is in the minor currency unit (pence).
	Money float64 `json:"money_saved"`
}

// Compute evaluates carbon and cost savings of a dispatch plan against the
// forecast it was scheduled for. The baseline flow at each timestep is
// discharge-to-home plus grid-to-home, i.e. the demand actually served.
func Compute(rows []model.ForecastRow, plan model.DispatchPlan) (Savings, error) {
	dt, err := model.StepHours(rows)
	if err != nil {
		return Savings{}, err
	}
	if len(plan) != len(rows) {
		return Savings{}, fmt.Errorf("%w: plan length %d does not match horizon %d", model.ErrInvalidConfig, len(plan), len(rows))
	}

	var baseCarbonG, carbonG float64
	var baseMoney, money float64
	for t, step := range plan {
		served := step.DischargeHomeKW + step.GridHomeKW
		imported := step.ChargeKW + step.GridHomeKW

		baseCarbonG += served * rows[t].CarbonIntensity * dt
		carbonG += imported * rows[t].CarbonIntensity * dt

		baseMoney += served * rows[t].ImportPrice * dt
		money += (imported*rows[t].ImportPrice - step.DischargeGridKW*rows[t].ExportPrice) * dt
	}

	return Savings{
		CarbonKg: (baseCarbonG - carbonG) / 1000,
		Money:    baseMoney - money,
	}, nil
}

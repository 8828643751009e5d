package model

import "fmt"

// BatteryConfig describes the battery serving the premise. All SoC values
// refer to usable, post-loss energy in kWh.
type BatteryConfig struct {
	MaxChargeKW    float64  `json:"max_charge_kw"`
	MaxDischargeKW float64  `json:"max_discharge_kw"`
	MinSoCKWh      float64  `json:"min_soc_kwh"`
	MaxSoCKWh      float64  `json:"max_soc_kwh"`
	InitialSoCKWh  float64  `json:"initial_soc_kwh"`
	MinFinalSoCKWh *float64 `json:"min_final_soc_kwh,omitempty"`
	MaxFinalSoCKWh *float64 `json:"max_final_soc_kwh,omitempty"`
	// Efficiency is the round-trip efficiency in (0,1], applied on the
	// charging leg only.
	Efficiency float64 `json:"efficiency"`
}

// Validate checks the configured bounds before any computation runs.
func (c BatteryConfig) Validate() error {
	if c.MaxChargeKW < 0 {
		return fmt.Errorf("%w: max_charge_kw must be non-negative, got %v", ErrInvalidConfig, c.MaxChargeKW)
	}
	if c.MaxDischargeKW < 0 {
		return fmt.Errorf("%w: max_discharge_kw must be non-negative, got %v", ErrInvalidConfig, c.MaxDischargeKW)
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("%w: efficiency must be in (0,1], got %v", ErrInvalidConfig, c.Efficiency)
	}
	if c.MinSoCKWh > c.MaxSoCKWh {
		return fmt.Errorf("%w: min_soc_kwh %v exceeds max_soc_kwh %v", ErrInvalidConfig, c.MinSoCKWh, c.MaxSoCKWh)
	}
	if c.InitialSoCKWh < c.MinSoCKWh || c.InitialSoCKWh > c.MaxSoCKWh {
		return fmt.Errorf("%w: initial_soc_kwh %v outside [%v,%v]", ErrInvalidConfig, c.InitialSoCKWh, c.MinSoCKWh, c.MaxSoCKWh)
	}
	if c.MinFinalSoCKWh != nil && (*c.MinFinalSoCKWh < c.MinSoCKWh || *c.MinFinalSoCKWh > c.MaxSoCKWh) {
		return fmt.Errorf("%w: min_final_soc_kwh %v outside [%v,%v]", ErrInvalidConfig, *c.MinFinalSoCKWh, c.MinSoCKWh, c.MaxSoCKWh)
	}
	if c.MaxFinalSoCKWh != nil && (*c.MaxFinalSoCKWh < c.MinSoCKWh || *c.MaxFinalSoCKWh > c.MaxSoCKWh) {
		return fmt.Errorf("%w: max_final_soc_kwh %v outside [%v,%v]", ErrInvalidConfig, *c.MaxFinalSoCKWh, c.MinSoCKWh, c.MaxSoCKWh)
	}
	if c.MinFinalSoCKWh != nil && c.MaxFinalSoCKWh != nil && *c.MinFinalSoCKWh > *c.MaxFinalSoCKWh {
		return fmt.Errorf("%w: min_final_soc_kwh %v exceeds max_final_soc_kwh %v", ErrInvalidConfig, *c.MinFinalSoCKWh, *c.MaxFinalSoCKWh)
	}
	return nil
}

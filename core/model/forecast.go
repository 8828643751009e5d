package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is returned when inputs fail validation before any
// computation starts. Callers can match it with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// ForecastRow holds the forecast data for a single timestep. Prices are in
// pence per kWh, carbon intensity in g CO2 per kWh and demand in kW.
type ForecastRow struct {
	Timestamp       time.Time `json:"timestamp"`
	ImportPrice     float64   `json:"import_price_p_per_kwh"`
	ExportPrice     float64   `json:"export_price_p_per_kwh"`
	CarbonIntensity float64   `json:"carbon_intensity_g_per_kwh"`
	DemandKW        float64   `json:"demand_kw"`
}

// StepHours derives the timestep duration in hours from the spacing of the
// first two rows. All gaps across the horizon must be equal.
func StepHours(rows []ForecastRow) (float64, error) {
	if len(rows) < 2 {
		return 0, fmt.Errorf("%w: need at least two forecast rows, got %d", ErrInvalidConfig, len(rows))
	}
	dt := rows[1].Timestamp.Sub(rows[0].Timestamp).Hours()
	if dt <= 0 {
		return 0, fmt.Errorf("%w: timestep duration must be positive, got %vh", ErrInvalidConfig, dt)
	}
	for i := 2; i < len(rows); i++ {
		gap := rows[i].Timestamp.Sub(rows[i-1].Timestamp).Hours()
		if math.Abs(gap-dt) > 1e-9 {
			return 0, fmt.Errorf("%w: non-uniform timestep at row %d: %vh != %vh", ErrInvalidConfig, i, gap, dt)
		}
	}
	return dt, nil
}

// Demand extracts the household demand series in kW.
func Demand(rows []ForecastRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.DemandKW
	}
	return out
}

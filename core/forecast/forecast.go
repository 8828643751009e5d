// Package forecast assembles the aligned per-timestep series the engine
// consumes: tariff prices, carbon intensity and household demand. The engine
// itself only requires matching-length numeric series; this package is a
// collaborator, not part of the core.
package forecast

import (
	"fmt"
	"time"

	"github.com/DixonScott/battery-optimizer/core/model"
)

// HalfHour is the settlement period used by the default horizon.
const HalfHour = 30 * time.Minute

// Horizon returns half-hourly timestamps covering the given number of hours,
// starting from start rounded down to the nearest half hour.
func Horizon(start time.Time, hours int) []time.Time {
	start = start.Truncate(HalfHour)
	n := hours * 2
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * HalfHour)
	}
	return out
}

// Flat returns a constant series of length n.
func Flat(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// TOUBand is one time-of-use tariff band covering [StartHour, EndHour) of
// every day.
type TOUBand struct {
	StartHour int     `json:"start_hour"`
	EndHour   int     `json:"end_hour"`
	Price     float64 `json:"price_p_per_kwh"`
}

// TimeOfUse maps time-of-use bands onto the horizon. Every timestamp must
// fall inside exactly one band.
func TimeOfUse(times []time.Time, bands []TOUBand) ([]float64, error) {
	out := make([]float64, len(times))
	for i, ts := range times {
		hour := ts.Hour()
		matched := false
		for _, b := range bands {
			if b.StartHour <= hour && hour < b.EndHour {
				out[i] = b.Price
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: no time-of-use band covers hour %d", model.ErrInvalidConfig, hour)
		}
	}
	return out, nil
}

// Assemble zips aligned series into forecast rows, rejecting length
// mismatches before any computation runs.
func Assemble(times []time.Time, importPrice, exportPrice, carbonIntensity, demandKW []float64) ([]model.ForecastRow, error) {
	n := len(times)
	for name, s := range map[string][]float64{
		"import price":     importPrice,
		"export price":     exportPrice,
		"carbon intensity": carbonIntensity,
		"demand":           demandKW,
	} {
		if len(s) != n {
			return nil, fmt.Errorf("%w: %s series length %d does not match horizon %d", model.ErrInvalidConfig, name, len(s), n)
		}
	}
	rows := make([]model.ForecastRow, n)
	for i := range rows {
		rows[i] = model.ForecastRow{
			Timestamp:       times[i],
			ImportPrice:     importPrice[i],
			ExportPrice:     exportPrice[i],
			CarbonIntensity: carbonIntensity[i],
			DemandKW:        demandKW[i],
		}
	}
	return rows, nil
}

// Package export writes scheduling results in CSV or JSON form.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/DixonScott/battery-optimizer/core/model"
	"github.com/DixonScott/battery-optimizer/core/simulator"
)

// WriteRowsJSON writes simulated rows to w in JSON format.
func WriteRowsJSON(w io.Writer, rows []simulator.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteRowsCSV writes simulated rows to w as CSV with headers.
func WriteRowsCSV(w io.Writer, rows []simulator.Row) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "import_price_p_per_kwh", "export_price_p_per_kwh",
		"carbon_intensity_g_per_kwh", "demand_kw",
		"requested_kw", "actual_kw", "soc_kwh",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Timestamp.Format(time.RFC3339),
			formatFloat(r.ImportPrice),
			formatFloat(r.ExportPrice),
			formatFloat(r.CarbonIntensity),
			formatFloat(r.DemandKW),
			formatFloat(r.RequestedKW),
			formatFloat(r.ActualKW),
			formatFloat(r.SoCKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePlanJSON writes a dispatch plan to w in JSON format.
func WritePlanJSON(w io.Writer, plan model.DispatchPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WritePlanCSV writes a dispatch plan to w as CSV with headers, one row per
// timestep of the forecast it was built against.
func WritePlanCSV(w io.Writer, rows []model.ForecastRow, plan model.DispatchPlan) error {
	cw := csv.NewWriter(w)
	header := []string{"timestamp", "charge_kw", "discharge_home_kw", "discharge_grid_kw", "grid_home_kw"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, step := range plan {
		ts := ""
		if i < len(rows) {
			ts = rows[i].Timestamp.Format(time.RFC3339)
		}
		rec := []string{
			ts,
			formatFloat(step.ChargeKW),
			formatFloat(step.DischargeHomeKW),
			formatFloat(step.DischargeGridKW),
			formatFloat(step.GridHomeKW),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

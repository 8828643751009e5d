package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DixonScott/battery-optimizer/core/model"
)

const tol = 1e-9

func makeRows(importPrice, exportPrice, carbon, demand []float64) []model.ForecastRow {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.ForecastRow, len(demand))
	for i := range rows {
		rows[i] = model.ForecastRow{
			Timestamp:       start.Add(time.Duration(i) * 30 * time.Minute),
			ImportPrice:     importPrice[i],
			ExportPrice:     exportPrice[i],
			CarbonIntensity: carbon[i],
			DemandKW:        demand[i],
		}
	}
	return rows
}

func TestComputeBaselinePlanSavesNothing(t *testing.T) {
	// A plan that serves all demand from the grid and never touches the
	// battery is exactly the baseline.
	rows := makeRows(
		[]float64{30, 30, 30},
		[]float64{5, 5, 5},
		[]float64{200, 200, 200},
		[]float64{2, 1, 3},
	)
	plan := model.DispatchPlan{
		{GridHomeKW: 2},
		{GridHomeKW: 1},
		{GridHomeKW: 3},
	}
	s, err := Compute(rows, plan)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(s.CarbonKg) > tol || math.Abs(s.Money) > tol {
		t.Fatalf("expected zero savings, got %+v", s)
	}
}

func TestComputeShiftedDemand(t *testing.T) {
	// 1 kWh of demand moves from a dirty, expensive step onto energy
	// charged in a clean, cheap one.
	rows := makeRows(
		[]float64{10, 40},
		[]float64{0, 0},
		[]float64{100, 400},
		[]float64{0, 2},
	)
	plan := model.DispatchPlan{
		{ChargeKW: 2},
		{DischargeHomeKW: 2},
	}
	s, err := Compute(rows, plan)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// Baseline: 1 kWh at 400 g and 40 p. Schedule: 1 kWh at 100 g and 10 p.
	if math.Abs(s.CarbonKg-0.3) > tol {
		t.Fatalf("carbon saved %v kg, want 0.3", s.CarbonKg)
	}
	if math.Abs(s.Money-30) > tol {
		t.Fatalf("money saved %v p, want 30", s.Money)
	}
}

func TestComputeExportEarnsMoneyNotCarbon(t *testing.T) {
	rows := makeRows(
		[]float64{10, 10},
		[]float64{15, 15},
		[]float64{200, 200},
		[]float64{0, 0},
	)
	plan := model.DispatchPlan{
		{DischargeGridKW: 2},
		{},
	}
	s, err := Compute(rows, plan)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(s.Money-15) > tol {
		t.Fatalf("money saved %v p, want 15", s.Money)
	}
	if math.Abs(s.CarbonKg) > tol {
		t.Fatalf("carbon saved %v kg, want 0", s.CarbonKg)
	}
}

func TestComputeNegativeSavingsPassThrough(t *testing.T) {
	// Charging in an expensive step with nothing to show for it costs money
	// and carbon relative to the baseline.
	rows := makeRows(
		[]float64{50, 50},
		[]float64{0, 0},
		[]float64{300, 300},
		[]float64{0, 0},
	)
	plan := model.DispatchPlan{
		{ChargeKW: 2},
		{},
	}
	s, err := Compute(rows, plan)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(s.Money-(-50)) > tol {
		t.Fatalf("money saved %v p, want -50", s.Money)
	}
	if math.Abs(s.CarbonKg-(-0.3)) > tol {
		t.Fatalf("carbon saved %v kg, want -0.3", s.CarbonKg)
	}
}

func TestComputeLengthMismatch(t *testing.T) {
	rows := makeRows([]float64{1, 1}, []float64{1, 1}, []float64{1, 1}, []float64{1, 1})
	if _, err := Compute(rows, model.DispatchPlan{{}}); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

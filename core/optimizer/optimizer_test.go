package optimizer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/DixonScott/battery-optimizer/core/model"
	"github.com/DixonScott/battery-optimizer/core/solver"
	infrasolver "github.com/DixonScott/battery-optimizer/infra/solver"
)

const tol = 1e-6

func newOptimizer() *Optimizer {
	return New(infrasolver.NewSimplex(), nil)
}

func horizonRows(n int, importPrice, exportPrice, carbon, demand []float64) []model.ForecastRow {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.ForecastRow, n)
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

// TestOptimizeRandomized checks solved plans on random feasible instances:
// SoC bounds, demand equality and the energy-balance identity between
// consecutive states.
func TestOptimizeRandomized(t *testing.T) {
	for seed := int64(0); seed < 25; seed++ {
		seed := seed
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			n := 12 + rng.Intn(13)
			dt := 0.5

			battery := model.BatteryConfig{
				MaxChargeKW:    1 + 4*rng.Float64(),
				MaxDischargeKW: 1 + 4*rng.Float64(),
				MaxSoCKWh:      5 + 15*rng.Float64(),
				Efficiency:     0.6 + 0.399*rng.Float64(),
			}
			battery.InitialSoCKWh = battery.MaxSoCKWh * rng.Float64()

			importPrice := make([]float64, n)
			exportPrice := make([]float64, n)
			carbon := make([]float64, n)
			demand := make([]float64, n)
			for i := 0; i < n; i++ {
				importPrice[i] = 5 + 25*rng.Float64()
				exportPrice[i] = 20 * rng.Float64()
				carbon[i] = 100 + 300*rng.Float64()
				demand[i] = battery.MaxDischargeKW * 0.8 * rng.Float64()
			}
			mode := ModeCost
			if rng.Intn(2) == 1 {
				mode = ModeCarbon
			}

			rows := horizonRows(n, importPrice, exportPrice, carbon, demand)
			res, err := newOptimizer().Optimize(rows, battery, mode)
			if err != nil {
				t.Fatalf("optimize: %v", err)
			}
			if res.Status != solver.StatusOptimal {
				t.Fatalf("status %s, want Optimal", res.Status)
			}

			if math.Abs(res.Trajectory[0]-battery.InitialSoCKWh) > tol {
				t.Fatalf("soc[0] = %v, want %v", res.Trajectory[0], battery.InitialSoCKWh)
			}
			for i, soc := range res.Trajectory {
				if soc < battery.MinSoCKWh-tol || soc > battery.MaxSoCKWh+tol {
					t.Fatalf("soc[%d] = %v outside [%v,%v]", i, soc, battery.MinSoCKWh, battery.MaxSoCKWh)
				}
			}
			for i, step := range res.Plan {
				if step.DischargeHomeKW+step.GridHomeKW-demand[i] > tol ||
					demand[i]-step.DischargeHomeKW-step.GridHomeKW > tol {
					t.Fatalf("demand not met at %d: %v + %v != %v", i, step.DischargeHomeKW, step.GridHomeKW, demand[i])
				}
				if step.DischargeHomeKW+step.DischargeGridKW > battery.MaxDischargeKW+tol {
					t.Fatalf("discharge cap exceeded at %d", i)
				}
				if step.ChargeKW > battery.MaxChargeKW+tol {
					t.Fatalf("charge cap exceeded at %d", i)
				}
				want := res.Trajectory[i] + dt*(battery.Efficiency*step.ChargeKW-step.DischargeHomeKW-step.DischargeGridKW)
				if math.Abs(res.Trajectory[i+1]-want) > tol {
					t.Fatalf("energy balance broken at %d: soc %v, want %v", i, res.Trajectory[i+1], want)
				}
			}
		})
	}
}

func TestOptimizeCostArbitrage(t *testing.T) {
	// Cheap import now, rich export later: the optimum buys a full charge
	// and sells it all.
	battery := model.BatteryConfig{
		MaxChargeKW:    2,
		MaxDischargeKW: 2,
		MaxSoCKWh:      1,
		Efficiency:     1,
	}
	rows := horizonRows(2,
		[]float64{10, 50},
		[]float64{0, 40},
		[]float64{100, 100},
		[]float64{0, 0},
	)
	res, err := newOptimizer().Optimize(rows, battery, ModeCost)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != solver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", res.Status)
	}
	// 1 kWh bought at 10p, sold at 40p.
	if math.Abs(res.Objective-(-30)) > tol {
		t.Fatalf("objective %v, want -30", res.Objective)
	}
	if math.Abs(res.Plan[0].ChargeKW-2) > tol {
		t.Fatalf("expected full-rate charge in the cheap step, got %v", res.Plan[0].ChargeKW)
	}
	if math.Abs(res.Plan[1].DischargeGridKW-2) > tol {
		t.Fatalf("expected full-rate export in the rich step, got %v", res.Plan[1].DischargeGridKW)
	}
}

func TestOptimizeCarbonIgnoresExportCredit(t *testing.T) {
	// With no demand there is nothing to shift, and exports earn no carbon
	// credit, so the best carbon plan leaves the battery alone.
	battery := model.BatteryConfig{
		MaxChargeKW:    2,
		MaxDischargeKW: 2,
		MaxSoCKWh:      5,
		InitialSoCKWh:  2,
		Efficiency:     0.9,
	}
	rows := horizonRows(4,
		[]float64{10, 10, 10, 10},
		[]float64{40, 40, 40, 40},
		[]float64{100, 200, 300, 400},
		[]float64{0, 0, 0, 0},
	)
	res, err := newOptimizer().Optimize(rows, battery, ModeCarbon)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != solver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", res.Status)
	}
	if math.Abs(res.Objective) > tol {
		t.Fatalf("objective %v, want 0", res.Objective)
	}
	for i, step := range res.Plan {
		if step.ChargeKW > tol {
			t.Fatalf("unexpected charge %v at %d", step.ChargeKW, i)
		}
	}
}

func TestOptimizeRespectsFinalSoCBounds(t *testing.T) {
	final := 4.0
	battery := model.BatteryConfig{
		MaxChargeKW:    5,
		MaxDischargeKW: 5,
		MaxSoCKWh:      10,
		InitialSoCKWh:  1,
		MinFinalSoCKWh: &final,
		Efficiency:     0.9,
	}
	rows := horizonRows(8,
		[]float64{10, 12, 14, 16, 18, 20, 22, 24},
		[]float64{5, 5, 5, 5, 5, 5, 5, 5},
		[]float64{100, 100, 100, 100, 100, 100, 100, 100},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1},
	)
	res, err := newOptimizer().Optimize(rows, battery, ModeCost)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != solver.StatusOptimal {
		t.Fatalf("status %s, want Optimal", res.Status)
	}
	if res.Trajectory[len(res.Trajectory)-1] < final-tol {
		t.Fatalf("final soc %v below required %v", res.Trajectory[len(res.Trajectory)-1], final)
	}
}

func TestOptimizeInfeasibleReportsStatus(t *testing.T) {
	// The battery cannot charge, so a required final SoC above the initial
	// state is unsatisfiable.
	final := 5.0
	battery := model.BatteryConfig{
		MaxChargeKW:    0,
		MaxDischargeKW: 2,
		MaxSoCKWh:      10,
		InitialSoCKWh:  1,
		MinFinalSoCKWh: &final,
		Efficiency:     0.9,
	}
	rows := horizonRows(4,
		[]float64{10, 10, 10, 10},
		[]float64{5, 5, 5, 5},
		[]float64{100, 100, 100, 100},
		[]float64{0, 0, 0, 0},
	)
	res, err := newOptimizer().Optimize(rows, battery, ModeCost)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.Status != solver.StatusInfeasible {
		t.Fatalf("status %s, want Infeasible", res.Status)
	}
	if res.Plan != nil || res.Trajectory != nil {
		t.Fatal("infeasible result must carry no partial plan")
	}
}

func TestOptimizeRejectsBadInputs(t *testing.T) {
	battery := model.BatteryConfig{MaxChargeKW: 1, MaxDischargeKW: 1, MaxSoCKWh: 5, Efficiency: 0.9}
	rows := horizonRows(2, []float64{1, 1}, []float64{1, 1}, []float64{1, 1}, []float64{0, 0})

	if _, err := newOptimizer().Optimize(rows, battery, "clean"); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unknown mode, got %v", err)
	}
	bad := battery
	bad.Efficiency = 0
	if _, err := newOptimizer().Optimize(rows, bad, ModeCost); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad battery, got %v", err)
	}
	if _, err := newOptimizer().Optimize(rows[:1], battery, ModeCost); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for short horizon, got %v", err)
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	battery := model.BatteryConfig{
		MaxChargeKW:    3,
		MaxDischargeKW: 3,
		MaxSoCKWh:      8,
		InitialSoCKWh:  4,
		Efficiency:     0.85,
	}
	rows := horizonRows(6,
		[]float64{10, 30, 20, 40, 15, 25},
		[]float64{5, 5, 5, 5, 5, 5},
		[]float64{100, 150, 200, 250, 300, 350},
		[]float64{1, 2, 1, 2, 1, 2},
	)
	first, err := newOptimizer().Optimize(rows, battery, ModeCost)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	second, err := newOptimizer().Optimize(rows, battery, ModeCost)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if math.Abs(first.Objective-second.Objective) > tol {
		t.Fatalf("objectives differ: %v != %v", first.Objective, second.Objective)
	}
	for i := range first.Plan {
		if first.Plan[i] != second.Plan[i] {
			t.Fatalf("plans differ at %d: %+v != %+v", i, first.Plan[i], second.Plan[i])
		}
	}
}

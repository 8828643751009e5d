package scheduler

import (
	"fmt"
	"sort"

	"github.com/DixonScott/battery-optimizer/core/model"
)

// Mode selects the ranking score used for both the buy and sell ordering.
type Mode string

const (
	// ModeCost ranks timesteps by import price.
	ModeCost Mode = "cost"
	// ModeCarbon ranks timesteps by carbon intensity.
	ModeCarbon Mode = "carbon"
	// ModeWeighted blends min-max normalized price and carbon intensity
	// with weight Alpha on price.
	ModeWeighted Mode = "weighted"
)

// Params configures a greedy scheduling run. MaxSoCKWh defaults to
// CapacityKWh when not positive, matching the battery's usable capacity.
type Params struct {
	CapacityKWh    float64
	InitialSoCKWh  float64
	MinSoCKWh      float64
	MaxSoCKWh      float64
	MaxChargeKW    float64
	MaxDischargeKW float64
	Mode           Mode
	Alpha          float64
	// RequiredDischargeKWh is the energy the battery should deliver at
	// each timestep if physically possible. Nil means no requirement.
	RequiredDischargeKWh []float64
}

// Result carries the committed schedule and the residual of the required
// discharge profile. A non-zero residual is a soft outcome, not an error.
type Result struct {
	Schedule model.Schedule
	// ResidualKWh is the requirement left unmet at each timestep.
	ResidualKWh []float64
}

// UnmetKWh sums the residual requirement over the horizon.
func (r Result) UnmetKWh() float64 {
	var total float64
	for _, v := range r.ResidualKWh {
		total += v
	}
	return total
}

// Schedule builds a signed charge/discharge schedule without solving a
// linear system. Charging is committed at the lowest-scored timesteps and
// required discharge at the highest-scored ones, each commit validated by
// replaying the whole schedule against the SoC bounds. Conversion losses
// are ignored here; the trajectory simulator is the authority on realized
// flows.
func Schedule(rows []model.ForecastRow, p Params) (Result, error) {
	dt, err := model.StepHours(rows)
	if err != nil {
		return Result{}, err
	}
	n := len(rows)
	if p.MaxSoCKWh <= 0 {
		p.MaxSoCKWh = p.CapacityKWh
	}
	if p.MaxChargeKW < 0 || p.MaxDischargeKW < 0 {
		return Result{}, fmt.Errorf("%w: power limits must be non-negative", model.ErrInvalidConfig)
	}
	if p.MinSoCKWh > p.MaxSoCKWh {
		return Result{}, fmt.Errorf("%w: min_soc_kwh %v exceeds max_soc_kwh %v", model.ErrInvalidConfig, p.MinSoCKWh, p.MaxSoCKWh)
	}
	if p.InitialSoCKWh < p.MinSoCKWh || p.InitialSoCKWh > p.MaxSoCKWh {
		return Result{}, fmt.Errorf("%w: initial_soc_kwh %v outside [%v,%v]", model.ErrInvalidConfig, p.InitialSoCKWh, p.MinSoCKWh, p.MaxSoCKWh)
	}
	if p.RequiredDischargeKWh != nil && len(p.RequiredDischargeKWh) != n {
		return Result{}, fmt.Errorf("%w: required discharge length %d does not match horizon %d", model.ErrInvalidConfig, len(p.RequiredDischargeKWh), n)
	}

	score, err := scores(rows, p.Mode, p.Alpha)
	if err != nil {
		return Result{}, err
	}
	buyOrder := rankAscending(score)
	sellOrder := rankDescending(score)

	schedule := make(model.Schedule, n)
	residual := make([]float64, n)
	copy(residual, p.RequiredDischargeKWh)

	for changed := true; changed; {
		changed = false

		// Charge pass: fill the cheapest free slots first.
		for _, t := range buyOrder {
			if schedule[t] != 0 {
				continue
			}
			headroom := min(p.MaxChargeKW*dt, p.MaxSoCKWh-socAt(schedule, t, p.InitialSoCKWh, dt))
			if headroom <= 0 {
				continue
			}
			if wouldBreakSoC(schedule, t, headroom/dt, p.InitialSoCKWh, p.MinSoCKWh, p.MaxSoCKWh, dt) {
				continue
			}
			schedule[t] += headroom / dt
			changed = true
		}

		// Discharge pass: serve the requirement at the priciest slots first.
		for _, t := range sellOrder {
			if schedule[t] != 0 {
				continue
			}
			avail := min(p.MaxDischargeKW*dt, socAt(schedule, t, p.InitialSoCKWh, dt)-p.MinSoCKWh, residual[t])
			if avail <= 0 {
				continue
			}
			if wouldBreakSoC(schedule, t, -avail/dt, p.InitialSoCKWh, p.MinSoCKWh, p.MaxSoCKWh, dt) {
				continue
			}
			schedule[t] -= avail / dt
			residual[t] -= avail
			changed = true
		}

		if socAt(schedule, n, p.InitialSoCKWh, dt) >= p.MaxSoCKWh && sum(residual) <= 0 {
			break
		}
	}

	return Result{Schedule: schedule, ResidualKWh: residual}, nil
}

// scores builds the ranking series shared by the buy and sell passes.
func scores(rows []model.ForecastRow, mode Mode, alpha float64) ([]float64, error) {
	out := make([]float64, len(rows))
	switch mode {
	case ModeCost:
		for i, r := range rows {
			out[i] = r.ImportPrice
		}
	case ModeCarbon:
		for i, r := range rows {
			out[i] = r.CarbonIntensity
		}
	case ModeWeighted:
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("%w: alpha must be in [0,1], got %v", model.ErrInvalidConfig, alpha)
		}
		price := make([]float64, len(rows))
		carbon := make([]float64, len(rows))
		for i, r := range rows {
			price[i] = r.ImportPrice
			carbon[i] = r.CarbonIntensity
		}
		normalize(price)
		normalize(carbon)
		for i := range out {
			out[i] = alpha*price[i] + (1-alpha)*carbon[i]
		}
	default:
		return nil, fmt.Errorf("%w: unknown scheduling mode %q", model.ErrInvalidConfig, mode)
	}
	return out, nil
}

// normalize rescales a series to [0,1] in place. A constant series maps to
// all zeros.
func normalize(v []float64) {
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	span := hi - lo
	for i := range v {
		if span == 0 {
			v[i] = 0
		} else {
			v[i] = (v[i] - lo) / span
		}
	}
}

// rankAscending returns timestep indexes ordered by score, earliest first on
// ties so runs are deterministic.
func rankAscending(score []float64) []int {
	idx := make([]int, len(score))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return score[idx[a]] < score[idx[b]] })
	return idx
}

func rankDescending(score []float64) []int {
	idx := make([]int, len(score))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return score[idx[a]] > score[idx[b]] })
	return idx
}

// socAt replays the schedule up to (not including) timestep t.
func socAt(schedule model.Schedule, t int, initial, dt float64) float64 {
	soc := initial
	for i := 0; i < t; i++ {
		soc += schedule[i] * dt
	}
	return soc
}

// wouldBreakSoC reports whether adding deltaKW at timestep t pushes the SoC
// outside its bounds at any prefix of the whole schedule.
func wouldBreakSoC(schedule model.Schedule, t int, deltaKW, initial, minSoC, maxSoC, dt float64) bool {
	soc := initial
	for i, p := range schedule {
		if i == t {
			p += deltaKW
		}
		soc += p * dt
		if soc < minSoC || soc > maxSoC {
			return true
		}
	}
	return false
}

func sum(v []float64) float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

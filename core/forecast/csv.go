package forecast

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DixonScott/battery-optimizer/core/model"
)

// PriceCurve is a daily price profile keyed by time of day. Horizon
// timestamps are matched to the nearest profile point, so a half-hourly
// curve can serve any uniform spacing.
type PriceCurve struct {
	minutes []int
	prices  []float64
}

// ReadPriceCSV parses a price curve from CSV with a "time,price" header.
// Times are "HH:MM" clock times, prices in pence per kWh.
func ReadPriceCSV(r io.Reader) (PriceCurve, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return PriceCurve{}, fmt.Errorf("read price csv: %w", err)
	}
	if len(records) < 2 {
		return PriceCurve{}, fmt.Errorf("%w: price csv has no data rows", model.ErrInvalidConfig)
	}

	curve := PriceCurve{}
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return PriceCurve{}, fmt.Errorf("%w: price csv row %d has %d columns, want 2", model.ErrInvalidConfig, i+2, len(rec))
		}
		clock, err := time.Parse("15:04", strings.TrimSpace(rec[0]))
		if err != nil {
			return PriceCurve{}, fmt.Errorf("price csv row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return PriceCurve{}, fmt.Errorf("price csv row %d: %w", i+2, err)
		}
		curve.minutes = append(curve.minutes, clock.Hour()*60+clock.Minute())
		curve.prices = append(curve.prices, price)
	}
	sort.Sort(&curve)
	return curve, nil
}

func (c *PriceCurve) Len() int           { return len(c.minutes) }
func (c *PriceCurve) Less(i, j int) bool { return c.minutes[i] < c.minutes[j] }
func (c *PriceCurve) Swap(i, j int) {
	c.minutes[i], c.minutes[j] = c.minutes[j], c.minutes[i]
	c.prices[i], c.prices[j] = c.prices[j], c.prices[i]
}

// Apply maps the curve onto horizon timestamps by nearest time of day.
func (c PriceCurve) Apply(times []time.Time) []float64 {
	out := make([]float64, len(times))
	for i, ts := range times {
		out[i] = c.at(ts.Hour()*60 + ts.Minute())
	}
	return out
}

func (c PriceCurve) at(minute int) float64 {
	best := 0
	bestDist := dayDistance(c.minutes[0], minute)
	for i := 1; i < len(c.minutes); i++ {
		if d := dayDistance(c.minutes[i], minute); d < bestDist {
			best, bestDist = i, d
		}
	}
	return c.prices[best]
}

// dayDistance is the wrap-around distance in minutes between two times of
// day.
func dayDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if wrapped := 24*60 - d; wrapped < d {
		d = wrapped
	}
	return d
}

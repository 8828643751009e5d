package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/DixonScott/battery-optimizer/core/metrics"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs    *prometheus.CounterVec
	savings *prometheus.GaugeVec
	unmet   prometheus.Gauge
}

// NewPromSink registers run metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Total number of scheduling runs",
	}, []string{"engine", "mode", "status"})
	savings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_savings",
		Help: "Savings of the last run versus the no-battery baseline",
	}, []string{"engine", "mode", "unit"})
	unmet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_unmet_discharge_kwh",
		Help: "Required discharge left unmet by the last greedy run",
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(savings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			savings = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(unmet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			unmet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, savings: savings, unmet: unmet}, nil
}

// RecordRun implements the core metrics sink.
func (s *PromSink) RecordRun(r coremetrics.RunResult) error {
	s.runs.WithLabelValues(r.Engine, r.Mode, r.Status).Inc()
	s.savings.WithLabelValues(r.Engine, r.Mode, "pence").Set(r.MoneySaved)
	s.savings.WithLabelValues(r.Engine, r.Mode, "kg_co2").Set(r.CarbonSavedKg)
	if r.Engine == "greedy" {
		s.unmet.Set(r.UnmetKWh)
	}
	return nil
}

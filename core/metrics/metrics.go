// Package metrics defines the observability events emitted by scheduling
// runs and the sink interface infra adapters implement.
package metrics

import "time"

// RunResult describes one completed scheduling run.
type RunResult struct {
	RunID   string
	Engine  string // "lp" or "greedy"
	Mode    string
	Status  string
	Steps   int
	Horizon time.Duration
	// Objective is the LP objective value; zero for greedy runs.
	Objective     float64
	CarbonSavedKg float64
	MoneySaved    float64
	UnmetKWh      float64
	Duration      time.Duration
	Time          time.Time
}

// Sink records run results for observability purposes.
type Sink interface {
	RecordRun(r RunResult) error
}

// NopSink discards every event.
type NopSink struct{}

// RecordRun implements Sink.
func (NopSink) RecordRun(RunResult) error { return nil }

// Config selects and configures the enabled sinks. PrometheusPort is the
// listen address of the /metrics exposition server started while Prometheus
// is enabled.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies the conventional exposition address.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":2112"
	}
}

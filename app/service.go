// Package app wires the forecast collaborators, the scheduling engines and
// the observability sinks into one batch pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DixonScott/battery-optimizer/config"
	"github.com/DixonScott/battery-optimizer/core/analysis"
	"github.com/DixonScott/battery-optimizer/core/forecast"
	coremetrics "github.com/DixonScott/battery-optimizer/core/metrics"
	"github.com/DixonScott/battery-optimizer/core/model"
	"github.com/DixonScott/battery-optimizer/core/optimizer"
	"github.com/DixonScott/battery-optimizer/core/scheduler"
	"github.com/DixonScott/battery-optimizer/core/simulator"
	"github.com/DixonScott/battery-optimizer/core/solver"
	"github.com/DixonScott/battery-optimizer/infra/carbonapi"
	"github.com/DixonScott/battery-optimizer/infra/logger"
	inframetrics "github.com/DixonScott/battery-optimizer/infra/metrics"
	"github.com/DixonScott/battery-optimizer/infra/mqtt"
	infrasolver "github.com/DixonScott/battery-optimizer/infra/solver"
)

// Engine selects which scheduler computes the plan.
type Engine string

const (
	// EngineLP runs the exact linear-programming optimizer.
	EngineLP Engine = "lp"
	// EngineGreedy runs the greedy heuristic followed by the simulator.
	EngineGreedy Engine = "greedy"
)

// RunOptions parameterize a single scheduling run.
type RunOptions struct {
	Engine Engine
	Mode   string
	Alpha  float64
	// RequiredDischargeKWh feeds the greedy scheduler's discharge profile.
	RequiredDischargeKWh []float64
	// Rows overrides the forecast built from configuration when non-nil,
	// letting callers feed their own aligned series.
	Rows []model.ForecastRow
}

// RunOutput is everything one run produced.
type RunOutput struct {
	RunID string
	// Status is the solver's verdict for the LP engine. The greedy engine
	// always reports StatusOptimal; there it means the run completed, with
	// no optimality claim attached.
	Status solver.Status
	Forecast   []model.ForecastRow
	Rows       []simulator.Row
	Plan       model.DispatchPlan
	Trajectory model.Trajectory
	Schedule   model.Schedule
	Objective  float64
	Savings    analysis.Savings
	UnmetKWh   float64
}

// CarbonSource supplies carbon intensity forecasts for a horizon.
type CarbonSource interface {
	Forecast(ctx context.Context, times []time.Time) ([]float64, error)
}

// Service runs scheduling pipelines against one configuration. Each Run is
// one-shot and shares no mutable state with other runs.
type Service struct {
	cfg      *config.Config
	sink     coremetrics.Sink
	pub      mqtt.Publisher
	carbon   CarbonSource
	log      logger.Logger
	now      func() time.Time
	stopProm context.CancelFunc
}

// New builds a Service from the configuration, connecting the configured
// metrics sinks and the MQTT publisher.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	sink, err := inframetrics.FromConfig(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	var pub mqtt.Publisher
	if cfg.MQTT.Enabled {
		pub, err = mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}
	svc := &Service{
		cfg:    cfg,
		sink:   sink,
		pub:    pub,
		carbon: carbonapi.New(cfg.Forecast.CarbonAPIURL, logger.New("carbon-api")),
		log:    logg,
		now:    time.Now,
	}
	if cfg.Metrics.PrometheusEnabled {
		ctx, cancel := context.WithCancel(context.Background())
		svc.stopProm = cancel
		go func() {
			if err := inframetrics.StartPromServer(ctx, cfg.Metrics.PrometheusPort); err != nil {
				logg.Errorf("prometheus server: %v", err)
			}
		}()
	}
	return svc, nil
}

// NewWithDeps builds a Service with injected collaborators; used by tests
// and callers who already hold a forecast source.
func NewWithDeps(cfg *config.Config, sink coremetrics.Sink, pub mqtt.Publisher, carbon CarbonSource) *Service {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Service{
		cfg:    cfg,
		sink:   sink,
		pub:    pub,
		carbon: carbon,
		log:    logger.New("service"),
		now:    time.Now,
	}
}

// Run executes one scheduling run to completion and records the outcome.
func (s *Service) Run(ctx context.Context, opts RunOptions) (RunOutput, error) {
	started := s.now()
	rows := opts.Rows
	if rows == nil {
		var err error
		rows, err = s.Forecast(ctx)
		if err != nil {
			return RunOutput{}, err
		}
	}
	dt, err := model.StepHours(rows)
	if err != nil {
		return RunOutput{}, err
	}

	out := RunOutput{RunID: uuid.NewString(), Forecast: rows}
	switch opts.Engine {
	case EngineLP:
		err = s.runLP(rows, opts, &out)
	case EngineGreedy:
		err = s.runGreedy(rows, opts, &out)
	default:
		err = fmt.Errorf("%w: unknown engine %q", model.ErrInvalidConfig, opts.Engine)
	}
	if err != nil {
		return RunOutput{}, err
	}

	s.record(rows, opts, out, s.now().Sub(started))
	if s.pub != nil && out.Status == solver.StatusOptimal {
		msg := mqtt.ScheduleMessage{
			RunID:       out.RunID,
			GeneratedAt: s.now(),
			Engine:      string(opts.Engine),
			Mode:        opts.Mode,
			StepHours:   dt,
			Start:       rows[0].Timestamp,
			ScheduleKW:  out.Schedule,
			SoCKWh:      out.Trajectory,
		}
		if err := s.pub.PublishSchedule(msg); err != nil {
			s.log.Errorf("publish schedule: %v", err)
		}
	}
	return out, nil
}

func (s *Service) runLP(rows []model.ForecastRow, opts RunOptions, out *RunOutput) error {
	opt := optimizer.New(infrasolver.NewSimplex(), logger.New("optimizer"))
	res, err := opt.Optimize(rows, s.cfg.Battery, optimizer.Mode(opts.Mode))
	if err != nil {
		return err
	}
	out.Status = res.Status
	if res.Status != solver.StatusOptimal {
		return nil
	}
	out.Plan = res.Plan
	out.Trajectory = res.Trajectory
	out.Schedule = res.Plan.Signed()
	out.Objective = res.Objective
	out.Savings, err = analysis.Compute(rows, res.Plan)
	return err
}

func (s *Service) runGreedy(rows []model.ForecastRow, opts RunOptions, out *RunOutput) error {
	battery := s.cfg.Battery
	params := scheduler.Params{
		CapacityKWh:          battery.MaxSoCKWh,
		InitialSoCKWh:        battery.InitialSoCKWh,
		MinSoCKWh:            battery.MinSoCKWh,
		MaxSoCKWh:            battery.MaxSoCKWh,
		MaxChargeKW:          battery.MaxChargeKW,
		MaxDischargeKW:       battery.MaxDischargeKW,
		Mode:                 scheduler.Mode(opts.Mode),
		Alpha:                opts.Alpha,
		RequiredDischargeKWh: opts.RequiredDischargeKWh,
	}
	res, err := scheduler.Schedule(rows, params)
	if err != nil {
		return err
	}

	simParams := simulator.Params{
		CapacityKWh:    battery.MaxSoCKWh,
		InitialSoCKWh:  battery.InitialSoCKWh,
		MinSoCKWh:      battery.MinSoCKWh,
		MaxSoCKWh:      battery.MaxSoCKWh,
		MaxChargeKW:    battery.MaxChargeKW,
		MaxDischargeKW: battery.MaxDischargeKW,
		Efficiency:     battery.Efficiency,
	}
	simRows, err := simulator.Run(rows, res.Schedule, simParams)
	if err != nil {
		return err
	}
	plan, err := simulator.Plan(simRows)
	if err != nil {
		return err
	}
	trajectory, err := simulator.Trajectory(simRows, simParams)
	if err != nil {
		return err
	}

	// Completed, not an optimality claim; see RunOutput.Status.
	out.Status = solver.StatusOptimal
	out.Rows = simRows
	out.Plan = plan
	out.Trajectory = trajectory
	out.Schedule = res.Schedule
	out.UnmetKWh = res.UnmetKWh()
	out.Savings, err = analysis.Compute(rows, plan)
	return err
}

// Forecast builds the aligned forecast rows from the configured tariff,
// demand and carbon sources.
func (s *Service) Forecast(ctx context.Context) ([]model.ForecastRow, error) {
	fc := s.cfg.Forecast
	times := forecast.Horizon(s.now(), fc.Hours)
	n := len(times)

	importPrice, err := s.importPrices(times)
	if err != nil {
		return nil, err
	}
	exportPrice := forecast.Flat(n, s.cfg.Tariff.FlatExportPrice)

	var carbon []float64
	if fc.FlatCarbonIntensity > 0 {
		carbon = forecast.Flat(n, fc.FlatCarbonIntensity)
	} else {
		carbon, err = s.carbon.Forecast(ctx, times)
		if err != nil {
			return nil, fmt.Errorf("carbon forecast: %w", err)
		}
	}

	return forecast.Assemble(times, importPrice, exportPrice, carbon, forecast.Flat(n, fc.DemandKW))
}

func (s *Service) importPrices(times []time.Time) ([]float64, error) {
	tariff := s.cfg.Tariff
	switch tariff.Type {
	case "flat":
		return forecast.Flat(len(times), tariff.FlatImportPrice), nil
	case "tou":
		return forecast.TimeOfUse(times, tariff.TOUBands)
	case "csv":
		curve, err := readPriceCurve(tariff.CSVPath)
		if err != nil {
			return nil, err
		}
		return curve.Apply(times), nil
	default:
		return nil, fmt.Errorf("%w: unknown tariff type %q", model.ErrInvalidConfig, tariff.Type)
	}
}

func (s *Service) record(rows []model.ForecastRow, opts RunOptions, out RunOutput, took time.Duration) {
	dt, _ := model.StepHours(rows)
	res := coremetrics.RunResult{
		RunID:         out.RunID,
		Engine:        string(opts.Engine),
		Mode:          opts.Mode,
		Status:        out.Status.String(),
		Steps:         len(rows),
		Horizon:       time.Duration(float64(len(rows)) * dt * float64(time.Hour)),
		Objective:     out.Objective,
		CarbonSavedKg: out.Savings.CarbonKg,
		MoneySaved:    out.Savings.Money,
		UnmetKWh:      out.UnmetKWh,
		Duration:      took,
		Time:          s.now(),
	}
	if err := s.sink.RecordRun(res); err != nil {
		s.log.Errorf("record run: %v", err)
	}
}

// Close releases the MQTT connection and stops the metrics exposition
// server if they were opened.
func (s *Service) Close() {
	if s.pub != nil {
		s.pub.Close()
	}
	if s.stopProm != nil {
		s.stopProm()
	}
}

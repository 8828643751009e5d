package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DixonScott/battery-optimizer/app"
	"github.com/DixonScott/battery-optimizer/config"
	"github.com/DixonScott/battery-optimizer/core/analysis"
	"github.com/DixonScott/battery-optimizer/core/simulator"
	"github.com/DixonScott/battery-optimizer/infra/logger"
	"github.com/DixonScott/battery-optimizer/pkg/export"
)

var schedulePath string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a signed power schedule against the configured battery",
	Long: `simulate projects an externally supplied schedule onto a physically
valid state-of-charge path, clipping requests that exceed power or energy
limits, and reports the savings of the realized flows.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&schedulePath, "schedule", "s", "", "JSON file with signed power per timestep (kW)")
	_ = simulateCmd.MarkFlagRequired("schedule")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	schedule, err := readFloatSeries(schedulePath)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	rows, err := svc.Forecast(ctx)
	if err != nil {
		return err
	}
	battery := cfg.Battery
	simRows, err := simulator.Run(rows, schedule, simulator.Params{
		CapacityKWh:    battery.MaxSoCKWh,
		InitialSoCKWh:  battery.InitialSoCKWh,
		MinSoCKWh:      battery.MinSoCKWh,
		MaxSoCKWh:      battery.MaxSoCKWh,
		MaxChargeKW:    battery.MaxChargeKW,
		MaxDischargeKW: battery.MaxDischargeKW,
		Efficiency:     battery.Efficiency,
	})
	if err != nil {
		return err
	}

	plan, err := simulator.Plan(simRows)
	if err != nil {
		return err
	}
	savings, err := analysis.Compute(rows, plan)
	if err != nil {
		return err
	}
	logger.New("simulate").Infof("realized schedule saves %.1fp and %.2fkg CO2 vs no battery",
		savings.Money, savings.CarbonKg)

	w, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	if format == "json" {
		return export.WriteRowsJSON(w, simRows)
	}
	return export.WriteRowsCSV(w, simRows)
}

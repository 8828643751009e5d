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
	"github.com/DixonScott/battery-optimizer/core/solver"
	"github.com/DixonScott/battery-optimizer/infra/logger"
	"github.com/DixonScott/battery-optimizer/pkg/export"
)

var planMode string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the optimal dispatch plan with the exact optimizer",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planMode, "mode", "m", "cost", "objective: cost or carbon")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	logg := logger.New("plan")
	out, err := svc.Run(ctx, app.RunOptions{Engine: app.EngineLP, Mode: planMode})
	if err != nil {
		return err
	}
	if out.Status != solver.StatusOptimal {
		return fmt.Errorf("optimization finished with status %s", out.Status)
	}
	logg.Infof("run %s: objective %.2f, saved %.1fp and %.2fkg CO2 vs no battery",
		out.RunID, out.Objective, out.Savings.Money, out.Savings.CarbonKg)

	w, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	if format == "json" {
		return export.WritePlanJSON(w, out.Plan)
	}
	return export.WritePlanCSV(w, out.Forecast, out.Plan)
}

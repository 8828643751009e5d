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
	"github.com/DixonScott/battery-optimizer/infra/logger"
	"github.com/DixonScott/battery-optimizer/pkg/export"
)

var (
	greedyMode    string
	greedyAlpha   float64
	greedyProfile string
)

var greedyCmd = &cobra.Command{
	Use:   "greedy",
	Short: "Compute an approximate schedule with the greedy heuristic",
	Long: `greedy ranks timesteps by price or carbon intensity and iteratively
commits charge and discharge decisions without solving a linear system,
then replays the result through the trajectory simulator.`,
	RunE: runGreedy,
}

func init() {
	greedyCmd.Flags().StringVarP(&greedyMode, "mode", "m", "cost", "ranking: cost, carbon or weighted")
	greedyCmd.Flags().Float64Var(&greedyAlpha, "alpha", 0.5, "price weight in weighted mode")
	greedyCmd.Flags().StringVar(&greedyProfile, "profile", "", "JSON file with required discharge per timestep (kWh)")
	rootCmd.AddCommand(greedyCmd)
}

func runGreedy(cmd *cobra.Command, args []string) error {
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

	opts := app.RunOptions{Engine: app.EngineGreedy, Mode: greedyMode, Alpha: greedyAlpha}
	if greedyProfile != "" {
		opts.RequiredDischargeKWh, err = readFloatSeries(greedyProfile)
		if err != nil {
			return fmt.Errorf("load discharge profile: %w", err)
		}
	}

	logg := logger.New("greedy")
	out, err := svc.Run(ctx, opts)
	if err != nil {
		return err
	}
	logg.Infof("run %s: saved %.1fp and %.2fkg CO2 vs no battery, %.3fkWh required discharge unmet",
		out.RunID, out.Savings.Money, out.Savings.CarbonKg, out.UnmetKWh)

	w, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	if format == "json" {
		return export.WriteRowsJSON(w, out.Rows)
	}
	return export.WriteRowsCSV(w, out.Rows)
}

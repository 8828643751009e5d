// Package cmd holds the CLI entry points.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	output  string
	format  string
)

var rootCmd = &cobra.Command{
	Use:   "battery-optimizer",
	Short: "Schedule a home battery against forecast prices and carbon intensity",
	Long: `battery-optimizer computes charge/discharge schedules for a stationary
battery serving one premise, minimizing cost or carbon emissions over a
finite horizon of forecast prices, carbon intensity and demand.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// openOutput resolves the --output flag. The caller must close the returned
// writer when it is a file.
func openOutput() (io.Writer, func() error, error) {
	if output == "" || output == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

// readFloatSeries loads a JSON array of numbers from path.
func readFloatSeries(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []float64
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

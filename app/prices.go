package app

import (
	"fmt"
	"os"

	"github.com/DixonScott/battery-optimizer/core/forecast"
)

func readPriceCurve(path string) (forecast.PriceCurve, error) {
	f, err := os.Open(path)
	if err != nil {
		return forecast.PriceCurve{}, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()
	return forecast.ReadPriceCSV(f)
}

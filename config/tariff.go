package config

import (
	"fmt"

	"github.com/DixonScott/battery-optimizer/core/forecast"
)

// TariffConfig describes how import and export prices are built.
type TariffConfig struct {
	// Type selects the import tariff model: "flat", "tou" or "csv".
	Type            string             `json:"type"`
	FlatImportPrice float64            `json:"flat_import_price_p_per_kwh"`
	FlatExportPrice float64            `json:"flat_export_price_p_per_kwh"`
	TOUBands        []forecast.TOUBand `json:"tou_bands"`
	CSVPath         string             `json:"csv_path"`
}

// SetDefaults applies the flat default tariff.
func (c *TariffConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "flat"
	}
	if c.FlatImportPrice == 0 {
		c.FlatImportPrice = 30.0
	}
	if c.FlatExportPrice == 0 {
		c.FlatExportPrice = 5.0
	}
}

// Validate checks the tariff selection.
func (c TariffConfig) Validate() error {
	switch c.Type {
	case "flat":
	case "tou":
		if len(c.TOUBands) == 0 {
			return fmt.Errorf("tou tariff requires at least one band")
		}
	case "csv":
		if c.CSVPath == "" {
			return fmt.Errorf("csv tariff requires csv_path")
		}
	default:
		return fmt.Errorf("unknown tariff type %q", c.Type)
	}
	return nil
}

// ForecastConfig controls horizon construction and data sources.
type ForecastConfig struct {
	Hours        int     `json:"hours"`
	DemandKW     float64 `json:"demand_kw"`
	CarbonAPIURL string  `json:"carbon_api_url"`
	// FlatCarbonIntensity is used instead of the carbon API when positive.
	FlatCarbonIntensity float64 `json:"flat_carbon_intensity_g_per_kwh"`
}

// SetDefaults applies a 48 hour horizon.
func (c *ForecastConfig) SetDefaults() {
	if c.Hours == 0 {
		c.Hours = 48
	}
}

// Validate checks horizon parameters.
func (c ForecastConfig) Validate() error {
	if c.Hours <= 0 {
		return fmt.Errorf("forecast hours must be positive, got %d", c.Hours)
	}
	if c.DemandKW < 0 {
		return fmt.Errorf("demand_kw must be non-negative, got %v", c.DemandKW)
	}
	return nil
}

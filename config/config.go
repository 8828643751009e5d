// Package config loads the runtime configuration from YAML or JSON with
// optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/DixonScott/battery-optimizer/core/metrics"
	"github.com/DixonScott/battery-optimizer/core/model"
	"github.com/DixonScott/battery-optimizer/infra/mqtt"
)

// Config is the full runtime configuration.
type Config struct {
	Battery  model.BatteryConfig `json:"battery"`
	Tariff   TariffConfig        `json:"tariff"`
	Forecast ForecastConfig      `json:"forecast"`
	Metrics  metrics.Config      `json:"metrics"`
	MQTT     mqtt.Config         `json:"mqtt"`
}

// Load reads the file at path, applies BO_-prefixed environment overrides
// (BO_BATTERY__MAX_CHARGE_KW=3.5 overrides battery.max_charge_kw) and
// validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("BO_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "bo_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Tariff.SetDefaults()
	cfg.Forecast.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Battery.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Tariff.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Forecast.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

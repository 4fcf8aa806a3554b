package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/pvihk/core/metrics"
	"github.com/kilianp07/pvihk/core/planner"
	"github.com/kilianp07/pvihk/core/report"
	"github.com/kilianp07/pvihk/infra/importer"
	"github.com/kilianp07/pvihk/infra/mqtt"
)

// EnvPrefix prefixes environment overrides; "__" separates nested keys,
// e.g. PVIHK_PLANNER__SOLVER__TIME_LIMIT_SECONDS=20.
const EnvPrefix = "PVIHK_"

type Config struct {
	Planner  planner.Config  `json:"planner"`
	Report   report.Config   `json:"report"`
	Importer importer.Config `json:"importer"`
	HTTP     HTTPConfig      `json:"http"`
	Metrics  MetricsConfig   `json:"metrics"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Logging  LoggingConfig   `json:"logging"`
}

// MetricsConfig lists the sinks and where Prometheus is served.
type MetricsConfig struct {
	Sinks []metrics.SinkConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when set.
	PrometheusAddr string `json:"prometheus_addr"`
}

// Load reads path and applies environment overrides. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), parser)
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Report.SetDefaults()
	c.Importer.SetDefaults()
	c.HTTP.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

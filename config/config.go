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

	"github.com/kilianp07/powertask/core/factory"
	"github.com/kilianp07/powertask/core/metrics"
	"github.com/kilianp07/powertask/core/scheduler"
	"github.com/kilianp07/powertask/infra/mqtt"
)

type Config struct {
	MQTT      mqtt.Config          `json:"mqtt"`
	Scheduler scheduler.Config     `json:"scheduler"`
	Battery   factory.ModuleConfig `json:"battery"`
	Metrics   metrics.Config       `json:"metrics"`
	Sentry    SentryConfig         `json:"sentry"`
}

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
	// Optional environment overrides
	if err := k.Load(env.Provider("PT_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pt_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills in sub-sections that have no dedicated defaulting hook.
func (c *Config) SetDefaults() {
	if c.Battery.Type == "" {
		c.Battery.Type = "static"
	}
}

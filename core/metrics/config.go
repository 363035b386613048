package metrics

import "github.com/kilianp07/powertask/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address of the metrics HTTP server,
	// e.g. ":9090". Empty disables the server.
	PrometheusPort string `json:"prometheus_port"`
}

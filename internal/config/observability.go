package config

// ObservabilityConfig configures internal/observability's tracing and
// metrics wiring.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TracingConfig configures the OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Exporter       string  `yaml:"exporter"` // otlp | stdout | none
	Endpoint       string  `yaml:"endpoint"`
	SamplingRate   float64 `yaml:"sampling_rate"`
	ServiceName    string  `yaml:"service_name"`
	ServiceVersion string  `yaml:"service_version"`
	Insecure       bool    `yaml:"insecure"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func (c *ObservabilityConfig) SetDefaults() {
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "nobellm-query"
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = "dev"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

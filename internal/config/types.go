package config

// Config is the top-level configuration parsed from stagetrack.yaml or stagetrack.toml.
type Config struct {
	Server    Server     `yaml:"server" toml:"server"`
	Log       Log        `yaml:"log" toml:"log"`
	Metrics   Metrics    `yaml:"metrics" toml:"metrics"`
	Pipelines []Pipeline `yaml:"pipelines" toml:"pipelines"`
}

// Server configures the HTTP API started by `stagetrack serve`.
type Server struct {
	Addr            string `yaml:"addr" toml:"addr"`
	ReadTimeout     string `yaml:"read_timeout" toml:"read_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Log selects the slog level and handler.
type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "text", "json" or "auto"
}

// Metrics configures Prometheus instrumentation.
type Metrics struct {
	Enabled   *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// Pipeline seeds one tracker into the registry at startup.
type Pipeline struct {
	ID     string  `yaml:"id" toml:"id"`
	Stages []Stage `yaml:"stages" toml:"stages"`
}

// Stage seeds one stage. Status defaults to "pending".
type Stage struct {
	Name   string `yaml:"name" toml:"name"`
	Status string `yaml:"status" toml:"status"`
}

// MetricsEnabled reports whether metrics are on. Unset means enabled.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

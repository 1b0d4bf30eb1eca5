package config

import (
	"fmt"
	"time"

	"github.com/lucasnoah/stagetrack/internal/pipeline"
	"github.com/lucasnoah/stagetrack/internal/registry"
)

// Seed builds a registry holding one tracker per configured pipeline, in file
// order. Each seeded stage gets a fresh ID.
func Seed(cfg *Config) (*registry.Registry, error) {
	reg := registry.New()
	for i, p := range cfg.Pipelines {
		t := pipeline.NewTracker(p.ID)
		for j, s := range p.Stages {
			status, err := pipeline.ParseStageStatus(s.Status)
			if err != nil {
				return nil, fmt.Errorf("pipelines[%d].stages[%d]: %w", i, j, err)
			}
			t.AddStage(pipeline.NewStage(s.Name, status))
		}
		reg.AddTracker(t)
	}
	return reg, nil
}

// ReadTimeout returns the parsed server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout, DefaultReadTimeout)
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
}

func mustDuration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

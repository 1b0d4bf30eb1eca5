package config

import (
	"fmt"
	"time"

	"github.com/lucasnoah/stagetrack/internal/pipeline"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var recognizedLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var recognizedFormats = map[string]bool{
	"text": true,
	"json": true,
	"auto": true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
// Repeated pipeline IDs and stage names are allowed.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	for _, d := range []struct {
		field string
		value string
	}{
		{"server.read_timeout", cfg.Server.ReadTimeout},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration %q", d.value),
			})
		}
	}

	if !recognizedLevels[cfg.Log.Level] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unrecognized level %q", cfg.Log.Level),
		})
	}
	if !recognizedFormats[cfg.Log.Format] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unrecognized format %q", cfg.Log.Format),
		})
	}

	for i, p := range cfg.Pipelines {
		prefix := fmt.Sprintf("pipelines[%d]", i)
		if p.ID == "" {
			errs = append(errs, ValidationError{Field: prefix + ".id", Message: "is required"})
		}
		for j, s := range p.Stages {
			stagePrefix := fmt.Sprintf("%s.stages[%d]", prefix, j)
			if s.Name == "" {
				errs = append(errs, ValidationError{Field: stagePrefix + ".name", Message: "is required"})
			}
			if _, err := pipeline.ParseStageStatus(s.Status); err != nil {
				errs = append(errs, ValidationError{
					Field:   stagePrefix + ".status",
					Message: fmt.Sprintf("unrecognized status %q", s.Status),
				})
			}
		}
	}

	return errs
}

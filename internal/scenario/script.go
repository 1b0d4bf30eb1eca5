package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Operation names accepted in a script step.
const (
	OpCreateTracker = "create_tracker"
	OpAddStage      = "add_stage"
	OpUpdateStage   = "update_stage"
	OpCurrentStage  = "current_stage"
	OpRegister      = "register"
	OpUpdateTracker = "update_tracker"
)

// ExpectNone is the expect value asserting that no stage is in progress.
const ExpectNone = "-"

// Script is an ordered list of steps replayed against a fresh registry.
type Script struct {
	Steps []Step `yaml:"steps" toml:"steps"`
}

// Step is one operation. Which fields matter depends on Op.
type Step struct {
	Op      string `yaml:"op" toml:"op"`
	Tracker string `yaml:"tracker" toml:"tracker"`
	Ref     string `yaml:"ref,omitempty" toml:"ref,omitempty"`
	Name    string `yaml:"name,omitempty" toml:"name,omitempty"`
	Status  string `yaml:"status,omitempty" toml:"status,omitempty"`

	// Expect is only read by current_stage. nil skips the check, ExpectNone
	// asserts no stage is in progress, anything else is a stage ref.
	Expect *string `yaml:"expect,omitempty" toml:"expect,omitempty"`
}

// LoadScript reads a script file. Files ending in .toml are parsed as TOML,
// everything else as YAML.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data, strings.EqualFold(filepath.Ext(path), ".toml"))
}

// ParseScript decodes a script from raw bytes.
func ParseScript(data []byte, asTOML bool) (*Script, error) {
	var s Script
	if asTOML {
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing script TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing script YAML: %w", err)
		}
	}
	return &s, nil
}

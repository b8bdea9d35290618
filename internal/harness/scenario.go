// Package harness runs YAML-scripted store scenarios: a list of table
// definitions, a sequence of operations with expected outcomes, and a
// deterministic trace of what happened. Traces serialize to canonical
// JSON so they can be compared against golden files.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mirrordb/mirrordb/internal/schema"
)

// Scenario is one scripted store exercise.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// file when golden comparison is used.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Tables are registered, in order, before the steps run.
	Tables []TableDef `yaml:"tables"`

	// Mirrors is the number of mirror instances attached to the
	// primary before the steps run. Each mirror is a fresh store.
	Mirrors int `yaml:"mirrors,omitempty"`

	// Steps run in order against the primary instance.
	Steps []Step `yaml:"steps"`
}

// TableDef declares one table for a scenario.
type TableDef struct {
	Name    string          `yaml:"name"`
	Columns []schema.Column `yaml:"columns"`
}

// Step is a single store operation with an optional expectation.
type Step struct {
	// Op is one of: add, get, all, has, delete, deleteAll,
	// startsWith, increment.
	Op string `yaml:"op"`

	Table  string         `yaml:"table"`
	ID     string         `yaml:"id,omitempty"`
	Record map[string]any `yaml:"record,omitempty"`
	Prefix string         `yaml:"prefix,omitempty"`
	Column string         `yaml:"column,omitempty"`
	Delta  float64        `yaml:"delta,omitempty"`

	// OnMirror routes the step to the given attached mirror (1-based)
	// instead of the primary. Zero means the primary.
	OnMirror int `yaml:"on_mirror,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the outcome a step must produce. All set fields are
// checked; record comparison is a subset match.
type Expect struct {
	// ErrorKind is the expected error kind (MISSING_VALUE,
	// PARSE_EXCEPTION, INVALID_TYPE). Empty means the step must
	// succeed.
	ErrorKind string `yaml:"error,omitempty"`

	// Record is a subset of fields the fetched record must carry
	// (get). Use with Found=false to assert absence instead.
	Record map[string]any `yaml:"record,omitempty"`

	// Count is the expected row count (all, startsWith, delete,
	// deleteAll).
	Count *int64 `yaml:"count,omitempty"`

	// Value is the expected numeric result (increment).
	Value *float64 `yaml:"value,omitempty"`

	// Found is the expected presence (has, get).
	Found *bool `yaml:"found,omitempty"`
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks structural requirements before a scenario runs.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario needs a name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario needs at least one step")
	}
	if s.Mirrors < 0 {
		return fmt.Errorf("mirrors must be >= 0")
	}
	for i, step := range s.Steps {
		if !validOps[step.Op] {
			return fmt.Errorf("step %d: unknown op %q", i+1, step.Op)
		}
		if step.Table == "" {
			return fmt.Errorf("step %d: missing table", i+1)
		}
		if step.OnMirror < 0 || step.OnMirror > s.Mirrors {
			return fmt.Errorf("step %d: on_mirror %d out of range", i+1, step.OnMirror)
		}
	}
	return nil
}

var validOps = map[string]bool{
	"add":        true,
	"get":        true,
	"all":        true,
	"has":        true,
	"delete":     true,
	"deleteAll":  true,
	"startsWith": true,
	"increment":  true,
}

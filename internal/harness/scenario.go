package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Operations a flow step can perform.
const (
	OpMaterialize = "materialize"
	OpExtract     = "extract"
	OpScalar      = "scalar"
	OpExists      = "exists"
	OpSeek        = "seek"
)

// Scenario defines a conformance test scenario: a model, the rows stored
// under it and the reads to perform.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path of the CUE model (file or directory).
	// Relative paths are resolved against the scenario file location.
	Model string `yaml:"model"`

	// Options selects the null-handling policies. Defaults to emit/emit.
	Options *OptionsSpec `yaml:"options,omitempty"`

	// Rows are inserted before the flow runs.
	Rows []RowSpec `yaml:"rows,omitempty"`

	// Flow is the ordered list of reads.
	Flow []FlowStep `yaml:"flow"`
}

// OptionsSpec is the YAML form of instance.Options.
type OptionsSpec struct {
	NullArrays  string `yaml:"null_arrays,omitempty"`
	NullStructs string `yaml:"null_structs,omitempty"`
}

// RowSpec is one stored instance.
type RowSpec struct {
	// Class is a class name ("ts.P", "TestSchema.P") or a numeric id.
	Class string `yaml:"class"`

	// ID is the instance id, decimal or 0x hex. Rows without one are
	// numbered after the largest explicit id.
	ID string `yaml:"id,omitempty"`

	// Values are keyed by property name.
	Values map[string]any `yaml:"values"`
}

// FlowStep is one read.
type FlowStep struct {
	Op       string `yaml:"op"`
	Class    string `yaml:"class"`
	ID       string `yaml:"id,omitempty"`
	Property string `yaml:"property,omitempty"`

	// Expect is validated against the step's output. If nil, only the
	// golden file constrains the step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// JSON is the exact rendered output.
	JSON *string `yaml:"json,omitempty"`

	// Paths are JSONPath checks against the rendered output.
	Paths []PathExpect `yaml:"paths,omitempty"`

	// Exists is the expected result of an exists step.
	Exists *bool `yaml:"exists,omitempty"`

	// Found is the expected result of a seek step.
	Found *bool `yaml:"found,omitempty"`

	// Error is the expected error code (e.g. INSTANCE_NOT_FOUND).
	Error string `yaml:"error,omitempty"`
}

// PathExpect asserts that a JSONPath selects exactly one value equal to
// Equals.
type PathExpect struct {
	Path   string `yaml:"path"`
	Equals any    `yaml:"equals"`
}

// LoadScenario loads and validates a scenario from a YAML file.
// The model path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos)
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model not found: %s", s.Model)
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if s.Options != nil {
		if err := validatePolicy("null_arrays", s.Options.NullArrays); err != nil {
			return err
		}
		if err := validatePolicy("null_structs", s.Options.NullStructs); err != nil {
			return err
		}
	}

	for i, row := range s.Rows {
		if row.Class == "" {
			return fmt.Errorf("rows[%d]: class is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	return nil
}

func validatePolicy(field, v string) error {
	switch v {
	case "", "emit", "omit":
		return nil
	default:
		return fmt.Errorf("options.%s: want emit or omit, got %q", field, v)
	}
}

// validateStep validates a single flow step based on its op.
func validateStep(index int, s *FlowStep) error {
	if s.Class == "" {
		return fmt.Errorf("flow[%d]: class is required", index)
	}

	switch s.Op {
	case OpMaterialize, OpSeek:
		if s.ID == "" {
			return fmt.Errorf("flow[%d]: id is required for %s", index, s.Op)
		}
	case OpExtract, OpScalar:
		if s.ID == "" || s.Property == "" {
			return fmt.Errorf("flow[%d]: id and property are required for %s", index, s.Op)
		}
	case OpExists:
		if s.Property == "" {
			return fmt.Errorf("flow[%d]: property is required for exists", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, s.Op)
	}

	if e := s.Expect; e != nil {
		if e.Exists != nil && s.Op != OpExists {
			return fmt.Errorf("flow[%d]: expect.exists only applies to exists", index)
		}
		if e.Found != nil && s.Op != OpSeek {
			return fmt.Errorf("flow[%d]: expect.found only applies to seek", index)
		}
		for j, p := range e.Paths {
			if p.Path == "" {
				return fmt.Errorf("flow[%d].expect.paths[%d]: path is required", index, j)
			}
		}
	}
	return nil
}

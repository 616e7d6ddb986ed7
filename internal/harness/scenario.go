package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario creates records of declared models, runs accessor operations
// against them and asserts on the resulting trace and stored attributes.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is a directory of CUE model declarations.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema,omitempty"`

	// SchemaSource is inline CUE used instead of Schema.
	SchemaSource string `yaml:"schema_source,omitempty"`

	// Setup creates the records the steps operate on.
	Setup []RecordStep `yaml:"setup"`

	// Steps are accessor operations run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and stored attributes.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RecordStep creates one record. The record name doubles as its ID so
// traces are deterministic.
type RecordStep struct {
	Record string `yaml:"record"`
	Model  string `yaml:"model"`
}

// Step runs one accessor operation on a record.
//
// Operation names ending in "=" are setters and take Value. All other
// operations are getters and may check Expect or Absent.
type Step struct {
	Record string `yaml:"record"`
	Op     string `yaml:"op"`

	// Value is the setter input, passed through as text.
	Value *string `yaml:"value,omitempty"`

	// Expect is the getter result formatted as text.
	Expect *string `yaml:"expect,omitempty"`

	// Absent asserts the getter found no stored attribute.
	Absent bool `yaml:"absent,omitempty"`

	// Error is the expected error code (e.g. "INVALID_VALUE").
	Error string `yaml:"error,omitempty"`
}

// IsSetter reports whether the step writes.
func (s Step) IsSetter() bool {
	return strings.HasSuffix(s.Op, "=")
}

// Assertion validates trace or final stored state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check an operation appears in the trace
	// - "trace_order": Check operations appear in order
	// - "trace_count": Check an operation appears exactly N times
	// - "final_raw": Check the stored raw value of a record field
	Type string `yaml:"type"`

	// Op is the operation name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Record narrows trace_contains and names the record for final_raw.
	Record string `yaml:"record,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Field is the stored field name (final_raw).
	Field string `yaml:"field,omitempty"`

	// Raw is the expected stored integer (final_raw). Nil expects no value.
	Raw *int64 `yaml:"raw,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalRaw      = "final_raw"
)

// LoadScenario reads and parses a scenario YAML file. A relative schema
// directory is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the schema directory relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) && basePath != "" {
		scenario.Schema = filepath.Join(basePath, scenario.Schema)
	}

	if scenario.Schema != "" {
		if _, err := os.Stat(scenario.Schema); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: schema directory not found: %s", scenario.Schema)
		}
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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

	switch {
	case s.Schema == "" && s.SchemaSource == "":
		return fmt.Errorf("one of schema or schema_source is required")
	case s.Schema != "" && s.SchemaSource != "":
		return fmt.Errorf("schema and schema_source are mutually exclusive")
	}

	if len(s.Setup) == 0 {
		return fmt.Errorf("setup list is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	records := make(map[string]bool, len(s.Setup))
	for i, r := range s.Setup {
		if r.Record == "" {
			return fmt.Errorf("setup[%d]: record is required", i)
		}
		if r.Model == "" {
			return fmt.Errorf("setup[%d]: model is required", i)
		}
		if records[r.Record] {
			return fmt.Errorf("setup[%d]: record %q is created twice", i, r.Record)
		}
		records[r.Record] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, records); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, records); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step, records map[string]bool) error {
	if step.Record == "" {
		return fmt.Errorf("steps[%d]: record is required", index)
	}
	if !records[step.Record] {
		return fmt.Errorf("steps[%d]: record %q is not created in setup", index, step.Record)
	}
	if step.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}

	if step.IsSetter() {
		if step.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for setter %s", index, step.Op)
		}
		if step.Expect != nil || step.Absent {
			return fmt.Errorf("steps[%d]: expect and absent apply to getters only", index)
		}
		return nil
	}

	if step.Value != nil {
		return fmt.Errorf("steps[%d]: value applies to setters only (did you mean %s=?)", index, step.Op)
	}
	if step.Expect != nil && step.Absent {
		return fmt.Errorf("steps[%d]: expect and absent are mutually exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, records map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalRaw:
		if a.Record == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: record and field are required for final_raw", index)
		}
		if !records[a.Record] {
			return fmt.Errorf("assertions[%d]: record %q is not created in setup", index, a.Record)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

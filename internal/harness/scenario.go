package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario drives one table through a list of grid and CRUD steps and
// asserts on the journaled events and the final rows.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the CUE file or directory declaring the table. Relative paths
	// are resolved against the base path given to LoadScenarioWithBasePath.
	Spec string `yaml:"spec"`

	// Table names the table under "table" in the CUE declarations.
	Table string `yaml:"table"`

	// Session is the journal session ID. Default: the scenario name.
	Session string `yaml:"session,omitempty"`

	// Limit, when positive, caps the number of stored rows.
	Limit int `yaml:"limit,omitempty"`

	// Rows are stored before the first step.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation on the grid or the CRUD controller.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Key identifies the target row (grid steps, select, delete, openEdit).
	Key string `yaml:"key,omitempty"`

	// Field and Value are used by set.
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Row holds the initial fields for add, or the values written into the
	// dialog copy by closeDialog.
	Row map[string]any `yaml:"row,omitempty"`

	// Save makes closeDialog persist the dialog copy instead of discarding it.
	Save bool `yaml:"save,omitempty"`

	// Confirm answers the delete confirmation. Default: yes.
	Confirm *bool `yaml:"confirm,omitempty"`

	// ExpectError names the error kind the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpInit        = "init"
	OpSet         = "set"
	OpSave        = "save"
	OpCancel      = "cancel"
	OpAdd         = "add"
	OpExpand      = "expand"
	OpValidateAll = "validateAll"
	OpCommit      = "commit"
	OpSelect      = "select"
	OpDeselect    = "deselect"
	OpDelete      = "delete"
	OpOpenEdit    = "openEdit"
	OpCloseDialog = "closeDialog"
)

var validOps = []string{
	OpInit, OpSet, OpSave, OpCancel, OpAdd, OpExpand, OpValidateAll, OpCommit,
	OpSelect, OpDeselect, OpDelete, OpOpenEdit, OpCloseDialog,
}

// keyedOps need a row key.
var keyedOps = []string{OpInit, OpSet, OpSave, OpCancel, OpExpand, OpSelect, OpDelete}

// Assertion validates the journal or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is the event type (event_count, event_contains).
	Event string `yaml:"event,omitempty"`

	// Events is the expected relative order (event_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of events or rows.
	Count int `yaml:"count,omitempty"`

	// Match is a subset of the event object (event_contains).
	Match map[string]any `yaml:"match,omitempty"`

	// Key identifies the row (row_state, options, field_error).
	Key string `yaml:"key,omitempty"`

	// Field names the column (options, field_error).
	Field string `yaml:"field,omitempty"`

	// Expect is a subset of the row's fields (row_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Stored checks persisted rows instead of the grid (row_state, row_count).
	Stored bool `yaml:"stored,omitempty"`

	// Options are the expected option keys in order (options).
	Options []any `yaml:"options,omitempty"`

	// Message is the expected error; empty means no error (field_error).
	Message string `yaml:"message,omitempty"`

	// Items are the expected menu item IDs in order (menu).
	Items []string `yaml:"items,omitempty"`

	// Disabled lists the menu items expected to be disabled (menu).
	Disabled []string `yaml:"disabled,omitempty"`
}

// Assertion types.
const (
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertEventContains = "event_contains"
	AssertRowState      = "row_state"
	AssertRowCount      = "row_count"
	AssertOptions       = "options"
	AssertFieldError    = "field_error"
	AssertMenu          = "menu"
)

// LoadScenario reads and parses a scenario YAML file. Relative spec paths
// are resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative spec path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) && basePath != "" {
		scenario.Spec = filepath.Join(basePath, scenario.Spec)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}
	if s.Table == "" {
		return fmt.Errorf("table is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if _, err := os.Stat(s.Spec); os.IsNotExist(err) {
		return fmt.Errorf("spec not found: %s", s.Spec)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	if !slices.Contains(validOps, step.Op) {
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}
	if slices.Contains(keyedOps, step.Op) && step.Key == "" {
		return fmt.Errorf("steps[%d]: key is required for %s", i, step.Op)
	}
	if step.Op == OpSet && step.Field == "" {
		return fmt.Errorf("steps[%d]: field is required for set", i)
	}
	if step.ExpectError != "" {
		if _, ok := errorKinds[step.ExpectError]; !ok {
			return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
		}
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", i)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", i)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", i)
		}
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_contains", i)
		}
	case AssertRowState:
		if a.Key == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: key and expect are required for row_state", i)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", i)
		}
	case AssertOptions, AssertFieldError:
		if a.Key == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: key and field are required for %s", i, a.Type)
		}
	case AssertMenu:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

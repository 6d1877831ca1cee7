package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/prereq/internal/engine"
	"github.com/roach88/prereq/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Records is the input, in presentation order. May be empty.
	Records []ir.Record `yaml:"records"`

	// Expect is the required outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions are additional checks on the emitted order.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation specifies the outcome of a scenario.
// Exactly one of Order and Error must be set.
type Expectation struct {
	// Order is the exact emitted order of a successful run.
	Order []string `yaml:"order,omitempty"`

	// Error is the expected error code of a failed run.
	Error string `yaml:"error,omitempty"`

	// Emitted is the exact partial order delivered before the failure.
	// Checked only when set.
	Emitted []string `yaml:"emitted,omitempty"`

	// Unresolved is the set of items left pending (order-insensitive).
	Unresolved []string `yaml:"unresolved,omitempty"`

	// Cycles lists each expected cycle's members (order-insensitive).
	Cycles [][]string `yaml:"cycles,omitempty"`

	// Missing is the set of undefined prerequisites (order-insensitive).
	Missing []string `yaml:"missing,omitempty"`
}

// Assertion checks a property of the emitted order.
type Assertion struct {
	// Type specifies the assertion type:
	// - "precedes": Before is emitted earlier than After
	// - "emitted": every item in Items was emitted
	// - "not_emitted": no item in Items was emitted
	// - "count": exactly Count items were emitted
	Type string `yaml:"type"`

	// Before and After name the items compared by precedes.
	Before string `yaml:"before,omitempty"`
	After  string `yaml:"after,omitempty"`

	// Items lists identifiers (used by emitted, not_emitted).
	Items []string `yaml:"items,omitempty"`

	// Count is the expected number of emitted items (used by count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertPrecedes   = "precedes"
	AssertEmitted    = "emitted"
	AssertNotEmitted = "not_emitted"
	AssertCount      = "count"
)

// expectedErrors are the error codes a scenario may expect.
var expectedErrors = []engine.ErrorCode{
	engine.ErrCodeUnresolved,
	engine.ErrCodeDuplicateItem,
	engine.ErrCodeEmptyItem,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expected:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.Records = ir.NormalizeRecords(scenario.Records)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML scenario files under dir, sorted by path.
// A non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if err := validateExpectation(&s.Expect); err != nil {
		return err
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateExpectation(e *Expectation) error {
	switch {
	case e.Order == nil && e.Error == "":
		return fmt.Errorf("expect: order or error is required")
	case e.Order != nil && e.Error != "":
		return fmt.Errorf("expect: order and error are mutually exclusive")
	}

	if e.Error != "" {
		if !slices.Contains(expectedErrors, engine.ErrorCode(e.Error)) {
			return fmt.Errorf("expect: unknown error code %q", e.Error)
		}
		return nil
	}

	if e.Emitted != nil || e.Unresolved != nil || e.Cycles != nil || e.Missing != nil {
		return fmt.Errorf("expect: emitted, unresolved, cycles and missing require error")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPrecedes:
		if a.Before == "" || a.After == "" {
			return fmt.Errorf("assertions[%d]: before and after are required for precedes", index)
		}
	case AssertEmitted, AssertNotEmitted:
		if len(a.Items) == 0 {
			return fmt.Errorf("assertions[%d]: items list is required for %s", index, a.Type)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/fieldwise/fieldwise/internal/record"
)

// Scenario is one scripted editing dialogue: a record fixture, the
// operator's inputs in order, optional injected store failures, and
// assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies the scenario; the golden file shares it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Operator identifies the editing operator. Defaults to "op-1".
	Operator string `yaml:"operator,omitempty"`

	// Catalog is an optional CUE catalog path, relative to the scenario
	// file. Empty means the built-in customer catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Record is the fixture seeded into the store before the dialogue.
	Record RecordFixture `yaml:"record"`

	// Failures schedules store-side failures before the dialogue runs.
	Failures *FailureClause `yaml:"failures,omitempty"`

	// Inputs is the operator's replies, consumed one per prompt turn.
	Inputs []string `yaml:"inputs"`

	// Assertions validate the stored record and store traffic after the
	// dialogue ends.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is the scenario file's directory, for resolving Catalog.
	dir string
}

// RecordFixture is the record under edit. Field values are given in
// native YAML types and converted through the catalog schema.
type RecordFixture struct {
	ID     string         `yaml:"id"`
	Fields map[string]any `yaml:"fields"`
}

// FailureClause schedules update failures on the wrapped store.
type FailureClause struct {
	// Updates is how many Update calls fail before succeeding.
	Updates int `yaml:"updates"`

	// Kind is the failure classification: TRANSIENT, REJECTED, or
	// NOT_FOUND. Defaults to TRANSIENT.
	Kind string `yaml:"kind,omitempty"`
}

// Assertion validates one facet of the outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Field names the record field (stored_field, stored_unset).
	Field string `yaml:"field,omitempty"`

	// Value is the expected display value (stored_field).
	Value string `yaml:"value,omitempty"`

	// Count is the expected number of Update calls (update_calls).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	// AssertStoredField checks a stored field's display value.
	AssertStoredField = "stored_field"

	// AssertStoredUnset checks that a stored field is unset.
	AssertStoredUnset = "stored_unset"

	// AssertUpdateCalls checks the total Update attempts, failures
	// included.
	AssertUpdateCalls = "update_calls"

	// AssertSessionCleared checks that no session survived the dialogue.
	AssertSessionCleared = "session_cleared"
)

// LoadScenario reads and parses one scenario file. Unknown YAML fields
// are rejected so a typo fails the load instead of silently skipping an
// assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, sorted by file
// name for stable test ordering.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Record.ID == "" {
		return fmt.Errorf("record.id is required")
	}
	if len(s.Inputs) == 0 {
		return fmt.Errorf("inputs list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertStoredField:
			if a.Field == "" {
				return fmt.Errorf("assertion[%d]: stored_field needs a field", i)
			}
		case AssertStoredUnset:
			if a.Field == "" {
				return fmt.Errorf("assertion[%d]: stored_unset needs a field", i)
			}
		case AssertUpdateCalls, AssertSessionCleared:
		default:
			return fmt.Errorf("assertion[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}

// buildRecord converts the fixture into a record through the schema.
// YAML scalars map onto field kinds: strings for text, enum, and date
// values, integers for int fields, booleans for bool fields.
func buildRecord(schema *record.Schema, fx RecordFixture) (record.Record, error) {
	rec := record.New(fx.ID)
	for name, raw := range fx.Fields {
		def, ok := schema.Field(name)
		if !ok {
			return record.Record{}, fmt.Errorf("fixture field %q not in schema %s", name, schema.Name())
		}
		v, err := fixtureValue(def, raw)
		if err != nil {
			return record.Record{}, fmt.Errorf("fixture field %q: %w", name, err)
		}
		rec.Set(name, v)
	}
	return rec, nil
}

func fixtureValue(def record.FieldDef, raw any) (record.Value, error) {
	switch def.Kind {
	case record.KindText, record.KindLongText, record.KindEnum, record.KindDate:
		s, ok := raw.(string)
		if !ok {
			return record.Value{}, fmt.Errorf("want string for %s field, got %T", def.Kind, raw)
		}
		switch def.Kind {
		case record.KindLongText:
			return record.LongText(s), nil
		case record.KindEnum:
			return record.Enum(s), nil
		case record.KindDate:
			return record.Date(s), nil
		default:
			return record.Text(s), nil
		}
	case record.KindInt:
		n, ok := raw.(int)
		if !ok {
			return record.Value{}, fmt.Errorf("want integer for int field, got %T", raw)
		}
		return record.Int(int64(n)), nil
	case record.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return record.Value{}, fmt.Errorf("want boolean for bool field, got %T", raw)
		}
		return record.Bool(b), nil
	default:
		return record.Value{}, fmt.Errorf("unsupported field kind %q", def.Kind)
	}
}

package record

import "fmt"

// FieldDef declares one editable field: its kind, display label, and the
// constraints its validator enforces.
type FieldDef struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     Kind     `json:"kind"`
	Optional bool     `json:"optional,omitempty"`
	MaxLen   int      `json:"max_len,omitempty"` // text/longtext; 0 = unbounded
	Min      int64    `json:"min,omitempty"`     // int, inclusive
	Max      int64    `json:"max,omitempty"`     // int, inclusive
	Tokens   []string `json:"tokens,omitempty"`  // enum, declaration order
}

// Schema is an ordered field catalog. Field order is declaration order and
// NEVER changes after construction; diffs and previews iterate this order
// so output is deterministic.
type Schema struct {
	name   string
	fields []FieldDef
	index  map[string]int
}

// NewSchema builds a schema from field definitions in declaration order.
// Returns an error on duplicate or empty field names, or on an enum field
// with no tokens.
func NewSchema(name string, fields []FieldDef) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make([]FieldDef, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)
	for i, f := range s.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %q: field %d has empty name", name, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %q: duplicate field %q", name, f.Name)
		}
		if f.Kind == KindEnum && len(f.Tokens) == 0 {
			return nil, fmt.Errorf("schema %q: enum field %q has no tokens", name, f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Fields returns the field definitions in declaration order. The returned
// slice is a copy.
func (s *Schema) Fields() []FieldDef {
	out := make([]FieldDef, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a definition by name.
func (s *Schema) Field(name string) (FieldDef, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDef{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema defines the named field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

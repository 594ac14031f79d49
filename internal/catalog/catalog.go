// Package catalog compiles field catalogs — the record schema plus its
// gating rules — from CUE definitions, and ships the built-in customer
// catalog used when no catalog file is given.
//
// A catalog file looks like:
//
//	catalog: {
//		name: "customer"
//		fields: [
//			{name: "name", label: "Name", kind: "text", max_len: 80},
//			{name: "tier", label: "Tier", kind: "enum", tokens: ["standard", "premium"]},
//			{name: "account_manager", label: "Account manager", kind: "text", optional: true},
//		]
//		rules: [
//			{name: "premium-needs-manager", field: "tier", to: "premium", requires: "account_manager"},
//			{name: "standard-clears-manager", field: "tier", to: "standard", clears: "account_manager"},
//		]
//	}
//
// Fields and rules are lists, so declaration order — which fixes diff
// order and rule evaluation order — survives compilation.
package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/rules"
)

// Bundle is a compiled catalog: the schema and its rule triggers.
type Bundle struct {
	Schema   *record.Schema
	Triggers []rules.Trigger
}

// RuleEngine builds the rule engine for this bundle.
func (b *Bundle) RuleEngine() (*rules.Engine, error) {
	return rules.NewEngine(b.Schema, b.Triggers)
}

// CompileError reports a catalog that failed to compile, with source
// position when CUE provides one.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileFile loads and compiles a catalog from a .cue file.
func CompileFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return CompileString(string(data), path)
}

// CompileString compiles catalog CUE source. filename is used in error
// positions only.
func CompileString(src, filename string) (*Bundle, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	root := v.LookupPath(cue.ParsePath("catalog"))
	if !root.Exists() {
		return nil, &CompileError{Field: "catalog", Message: "catalog struct is required", Pos: v.Pos()}
	}
	return compile(root)
}

func compile(v cue.Value) (*Bundle, error) {
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Field: "name", Message: "name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	defs, err := parseFields(v)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: v.Pos()}
	}
	schema, err := record.NewSchema(name, defs)
	if err != nil {
		return nil, &CompileError{Field: "fields", Message: err.Error(), Pos: v.Pos()}
	}

	triggers, err := parseRules(v)
	if err != nil {
		return nil, err
	}
	// Trigger well-formedness (known fields, one effect) is enforced by
	// the rule engine constructor.
	if _, err := rules.NewEngine(schema, triggers); err != nil {
		return nil, &CompileError{Field: "rules", Message: err.Error(), Pos: v.Pos()}
	}

	return &Bundle{Schema: schema, Triggers: triggers}, nil
}

func parseFields(v cue.Value) ([]record.FieldDef, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields list is required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []record.FieldDef
	for iter.Next() {
		def, err := parseField(iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseField(v cue.Value) (record.FieldDef, error) {
	var def record.FieldDef

	name, err := requiredString(v, "name")
	if err != nil {
		return def, err
	}
	def.Name = name

	kind, err := requiredString(v, "kind")
	if err != nil {
		return def, err
	}
	switch record.Kind(kind) {
	case record.KindText, record.KindLongText, record.KindEnum, record.KindInt, record.KindDate, record.KindBool:
		def.Kind = record.Kind(kind)
	default:
		return def, &CompileError{
			Field:   "fields." + name + ".kind",
			Message: fmt.Sprintf("unknown kind %q", kind),
			Pos:     v.Pos(),
		}
	}

	def.Label = name
	if labelVal := v.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
		if def.Label, err = labelVal.String(); err != nil {
			return def, formatCUEError(err)
		}
	}
	if optVal := v.LookupPath(cue.ParsePath("optional")); optVal.Exists() {
		if def.Optional, err = optVal.Bool(); err != nil {
			return def, formatCUEError(err)
		}
	}
	if maxVal := v.LookupPath(cue.ParsePath("max_len")); maxVal.Exists() {
		n, err := maxVal.Int64()
		if err != nil {
			return def, formatCUEError(err)
		}
		def.MaxLen = int(n)
	}
	if minVal := v.LookupPath(cue.ParsePath("min")); minVal.Exists() {
		if def.Min, err = minVal.Int64(); err != nil {
			return def, formatCUEError(err)
		}
	}
	if maxVal := v.LookupPath(cue.ParsePath("max")); maxVal.Exists() {
		if def.Max, err = maxVal.Int64(); err != nil {
			return def, formatCUEError(err)
		}
	}
	if tokensVal := v.LookupPath(cue.ParsePath("tokens")); tokensVal.Exists() {
		iter, err := tokensVal.List()
		if err != nil {
			return def, formatCUEError(err)
		}
		for iter.Next() {
			tok, err := iter.Value().String()
			if err != nil {
				return def, formatCUEError(err)
			}
			def.Tokens = append(def.Tokens, tok)
		}
	}
	return def, nil
}

func parseRules(v cue.Value) ([]rules.Trigger, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil
	}
	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var triggers []rules.Trigger
	for iter.Next() {
		tr, err := parseRule(iter.Value())
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, tr)
	}
	return triggers, nil
}

func parseRule(v cue.Value) (rules.Trigger, error) {
	var tr rules.Trigger
	var err error

	if tr.Name, err = requiredString(v, "name"); err != nil {
		return tr, err
	}
	if tr.Field, err = requiredString(v, "field"); err != nil {
		return tr, err
	}
	if tr.To, err = requiredString(v, "to"); err != nil {
		return tr, err
	}
	if clearsVal := v.LookupPath(cue.ParsePath("clears")); clearsVal.Exists() {
		if tr.Clears, err = clearsVal.String(); err != nil {
			return tr, formatCUEError(err)
		}
	}
	if reqVal := v.LookupPath(cue.ParsePath("requires")); reqVal.Exists() {
		if tr.Requires, err = reqVal.String(); err != nil {
			return tr, formatCUEError(err)
		}
	}
	return tr, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

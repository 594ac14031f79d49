// Package rules implements the cross-field business rule engine.
//
// Rules fire on field-value transitions. Each trigger recognizes a
// (field, toToken) transition on a gating enum field and maps it to a side
// effect: auto-clear a dependent field, or require a dependent field to be
// set before save. Evaluation is deterministic and side-effect-free; the
// dialogue layer applies whatever an Outcome describes.
//
// Triggers are evaluated in declaration order. Trigger order NEVER changes
// after construction, so notices and additional edits appear in a stable
// order across runs.
package rules

import (
	"fmt"

	"github.com/fieldwise/fieldwise/internal/record"
)

// Trigger declares one transition rule on a gating field. Exactly one of
// Clears or Requires is set.
type Trigger struct {
	// Name identifies the trigger in catalogs and logs.
	Name string

	// Field is the gating field the trigger watches.
	Field string

	// To is the gating field token that arms the trigger. The trigger
	// fires only on a real transition (old value != new value).
	To string

	// Clears names a dependent field to auto-clear when the trigger
	// fires. The clear overrides the original snapshot value even when
	// the dependent field was never edited this session.
	Clears string

	// Requires names a dependent field that must hold a value (pending
	// or snapshot) before a save is allowed while the gating field is at
	// To. Checked immediately on the transition and again at save time.
	Requires string
}

// Edit is an additional pending edit demanded by a rule.
type Edit struct {
	Field string
	Clear bool
	Value record.Value
}

// Outcome is the result of evaluating one field transition.
type Outcome struct {
	// AdditionalEdits are staged on top of the operator's edit.
	AdditionalEdits []Edit

	// Require, when non-empty, names a field the dialogue must prompt
	// for before the session can be saved.
	Require string

	// Notice is an operator-visible explanation of any automatic action.
	Notice string
}

// Empty reports whether the outcome carries no effect.
func (o Outcome) Empty() bool {
	return len(o.AdditionalEdits) == 0 && o.Require == "" && o.Notice == ""
}

// Violation is an unmet blocking requirement detected at save time.
// It blocks SAVING and never reaches the record store.
type Violation struct {
	Field   string // the unmet dependent field
	Gating  string // the gating field that demands it
	Token   string // the gating value in force
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("BUSINESS_RULE_VIOLATION: %s (gating %s=%s)", v.Message, v.Gating, v.Token)
}

// View reports effective field values: the original snapshot overlaid
// with pending edits. Implemented by session.Session.
type View interface {
	Effective(field string) record.Value
}

// Engine evaluates triggers against field transitions.
type Engine struct {
	schema   *record.Schema
	triggers []Trigger
}

// NewEngine builds a rule engine. Trigger declaration order is preserved.
// Returns an error if a trigger references a field the schema does not
// define, or sets both (or neither) of Clears and Requires.
func NewEngine(schema *record.Schema, triggers []Trigger) (*Engine, error) {
	for _, tr := range triggers {
		if !schema.Has(tr.Field) {
			return nil, fmt.Errorf("trigger %q: unknown gating field %q", tr.Name, tr.Field)
		}
		if (tr.Clears == "") == (tr.Requires == "") {
			return nil, fmt.Errorf("trigger %q: exactly one of clears/requires must be set", tr.Name)
		}
		dep := tr.Clears
		if dep == "" {
			dep = tr.Requires
		}
		if !schema.Has(dep) {
			return nil, fmt.Errorf("trigger %q: unknown dependent field %q", tr.Name, dep)
		}
	}
	ts := make([]Trigger, len(triggers))
	copy(ts, triggers)
	return &Engine{schema: schema, triggers: ts}, nil
}

// Evaluate runs every trigger against one transition of the named field.
// old is the effective value before the edit, new the accepted value after
// it. view exposes the session's effective state including the new edit.
func (e *Engine) Evaluate(field string, oldVal, newVal record.Value, view View) Outcome {
	if oldVal.Equal(newVal) {
		return Outcome{}
	}

	var out Outcome
	for _, tr := range e.triggers {
		if tr.Field != field || newVal.Str() != tr.To || !newVal.IsSet() {
			continue
		}
		switch {
		case tr.Clears != "":
			out.AdditionalEdits = append(out.AdditionalEdits, Edit{Field: tr.Clears, Clear: true})
			out.Notice = appendNotice(out.Notice, e.clearNotice(tr))
		case tr.Requires != "":
			if !view.Effective(tr.Requires).IsSet() {
				out.Require = tr.Requires
				out.Notice = appendNotice(out.Notice, e.requireNotice(tr))
			}
		}
	}
	return out
}

// Unmet re-checks every Requires trigger against the effective state.
// Used as the final guard before persistence, independent of how the
// operator navigated after the transition fired.
func (e *Engine) Unmet(view View) []*Violation {
	var out []*Violation
	for _, tr := range e.triggers {
		if tr.Requires == "" {
			continue
		}
		gating := view.Effective(tr.Field)
		if !gating.IsSet() || gating.Str() != tr.To {
			continue
		}
		if view.Effective(tr.Requires).IsSet() {
			continue
		}
		out = append(out, &Violation{
			Field:   tr.Requires,
			Gating:  tr.Field,
			Token:   tr.To,
			Message: fmt.Sprintf("%s must be set while %s is %s", e.label(tr.Requires), e.label(tr.Field), tr.To),
		})
	}
	return out
}

func (e *Engine) clearNotice(tr Trigger) string {
	return fmt.Sprintf("%s was cleared automatically because %s changed to %s.",
		e.label(tr.Clears), e.label(tr.Field), tr.To)
}

func (e *Engine) requireNotice(tr Trigger) string {
	return fmt.Sprintf("%s is required while %s is %s.",
		e.label(tr.Requires), e.label(tr.Field), tr.To)
}

func (e *Engine) label(field string) string {
	if def, ok := e.schema.Field(field); ok && def.Label != "" {
		return def.Label
	}
	return field
}

func appendNotice(existing, add string) string {
	if existing == "" {
		return add
	}
	return existing + " " + add
}

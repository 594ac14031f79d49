package engine

import (
	"fmt"
	"strings"

	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/session"
)

// Operator-facing message construction. Every prompt the engine emits is
// built here so transcripts stay stable and testable; no other file
// formats dialogue text.

const (
	msgNothingToSave  = "Nothing to save yet. Edit a field first."
	msgConfirmOptions = "Confirm with save, keep editing with back, or cancel."
	msgConfirmRetry   = "Save failed due to a temporary problem. Your edits are preserved — type save to retry, back to keep editing, or cancel."
	msgCancelled      = "Edit cancelled. No changes were saved."
	msgExpired        = "Your session expired due to inactivity and your edits were discarded."
	msgBadConfirm     = "Please answer save, back, or cancel."
	emptyValue        = "(empty)"
)

func fieldSelectionPrompt(rec record.Record, schema *record.Schema) (string, []string) {
	msg := fmt.Sprintf("Editing %s. Choose a field to edit, or save / cancel.", rec.ID)
	names := make([]string, 0, schema.Len())
	for _, def := range schema.Fields() {
		names = append(names, def.Name)
	}
	return msg, names
}

func fieldPrompt(def record.FieldDef) (string, []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Enter a value for %s.", def.Label)
	var options []string
	switch def.Kind {
	case record.KindEnum:
		options = def.Tokens
	case record.KindDate:
		b.WriteString(" Format: YYYY-MM-DD.")
	case record.KindInt:
		fmt.Fprintf(&b, " Whole number between %d and %d.", def.Min, def.Max)
	case record.KindBool:
		options = []string{"yes", "no"}
	}
	if def.Optional {
		b.WriteString(" Leave blank to clear.")
	}
	return b.String(), options
}

func validationMessage(msg, expected string) string {
	if expected != "" {
		return fmt.Sprintf("%s. Expected: %s.", msg, expected)
	}
	return msg + "."
}

func stagedMessage(label, before, after string) string {
	return fmt.Sprintf("Staged %s: %s → %s.", label, orEmpty(before), orEmpty(after))
}

func unknownFieldMessage(input string, schema *record.Schema) string {
	names := make([]string, 0, schema.Len())
	for _, def := range schema.Fields() {
		names = append(names, def.Name)
	}
	return fmt.Sprintf("Unknown field %q. Choose one of: %s.", input, strings.Join(names, ", "))
}

func diffMessage(recID string, diff []session.DiffEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "About to save %d change(s) to %s:", len(diff), recID)
	for _, entry := range diff {
		fmt.Fprintf(&b, "\n  %s: %s → %s", entry.Label, orEmpty(entry.Before), orEmpty(entry.After))
	}
	b.WriteString("\n" + msgConfirmOptions)
	return b.String()
}

func savedMessage(recID string, fields int) string {
	return fmt.Sprintf("Saved %s. %d field(s) updated.", recID, fields)
}

func ruleViolationMessage(detail string) string {
	return fmt.Sprintf("Cannot save yet: %s.", detail)
}

func rejectedMessage() string {
	return "The record store rejected the save. Your edits are preserved; review them with back or discard with cancel."
}

func notFoundMessage(recID string) string {
	return fmt.Sprintf("Record %s no longer exists in the store. Your edits are preserved; cancel to discard them.", recID)
}

func orEmpty(s string) string {
	if s == "" {
		return emptyValue
	}
	return s
}

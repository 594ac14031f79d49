// Package validate implements the per-field validation and normalization
// layer. Validators are selected by looking up the field's declared kind
// in a fixed table — no type inspection, no inheritance. Every function
// here is pure: messaging, prompting, and session mutation all happen one
// layer up in internal/engine.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/fieldwise/fieldwise/internal/record"
)

// Error is a user-correctable validation failure. The dialogue layer
// returns the operator to AWAITING_INPUT with Message; Expected, when
// non-empty, names the pattern the input must match.
type Error struct {
	Field    string
	Message  string
	Expected string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("%s: %s (expected %s)", e.Field, e.Message, e.Expected)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result is a successful validation outcome: either a normalized value or
// an explicit clear request (blank input on an optional field).
type Result struct {
	Value record.Value
	Clear bool
}

// checker validates normalized input against one field definition.
type checker func(def record.FieldDef, input string) (Result, *Error)

// checkers is the kind → validator strategy table.
var checkers = map[record.Kind]checker{
	record.KindText:     checkText,
	record.KindLongText: checkLongText,
	record.KindEnum:     checkEnum,
	record.KindInt:      checkInt,
	record.KindDate:     checkDate,
	record.KindBool:     checkBool,
}

// Registry resolves fields against a schema and dispatches to the kind's
// validator.
type Registry struct {
	schema *record.Schema
}

// NewRegistry creates a registry over the given schema.
func NewRegistry(schema *record.Schema) *Registry {
	return &Registry{schema: schema}
}

// Check validates raw operator input for the named field. Input is NFC
// normalized first. Blank input clears optional fields and is rejected for
// required ones.
func (r *Registry) Check(field, raw string) (Result, error) {
	def, ok := r.schema.Field(field)
	if !ok {
		return Result{}, &Error{Field: field, Message: "unknown field"}
	}

	input := record.NormalizeInput(raw)

	if record.IsBlank(input) {
		if def.Optional {
			return Result{Clear: true}, nil
		}
		return Result{}, &Error{Field: field, Message: fmt.Sprintf("%s is required and cannot be empty", def.Label)}
	}

	check, ok := checkers[def.Kind]
	if !ok {
		return Result{}, &Error{Field: field, Message: fmt.Sprintf("no validator for kind %q", def.Kind)}
	}
	res, verr := check(def, input)
	if verr != nil {
		return Result{}, verr
	}
	return res, nil
}

func checkText(def record.FieldDef, input string) (Result, *Error) {
	s := strings.TrimSpace(input)
	if strings.ContainsAny(s, "\n\r") {
		return Result{}, &Error{Field: def.Name, Message: fmt.Sprintf("%s must be a single line", def.Label)}
	}
	if def.MaxLen > 0 && len([]rune(s)) > def.MaxLen {
		return Result{}, &Error{
			Field:   def.Name,
			Message: fmt.Sprintf("%s must be at most %d characters", def.Label, def.MaxLen),
		}
	}
	return Result{Value: record.Text(s)}, nil
}

func checkLongText(def record.FieldDef, input string) (Result, *Error) {
	// Internal line breaks are preserved verbatim; only outer whitespace
	// is dropped so a trailing newline from the transport doesn't count.
	s := strings.Trim(input, " \t\r\n")
	if def.MaxLen > 0 && len([]rune(s)) > def.MaxLen {
		return Result{}, &Error{
			Field:   def.Name,
			Message: fmt.Sprintf("%s must be at most %d characters", def.Label, def.MaxLen),
		}
	}
	return Result{Value: record.LongText(s)}, nil
}

// foldEqual compares two tokens under Unicode case folding, so enum
// matching tolerates case and locale variants ("Premium", "PREMIUM",
// "premıum" with a dotless i all match "premium").
func foldEqual(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func checkEnum(def record.FieldDef, input string) (Result, *Error) {
	s := strings.TrimSpace(input)
	for _, token := range def.Tokens {
		if foldEqual(s, token) {
			return Result{Value: record.Enum(token)}, nil
		}
	}
	return Result{}, &Error{
		Field:    def.Name,
		Message:  fmt.Sprintf("%q is not a valid %s", s, def.Label),
		Expected: "one of: " + strings.Join(def.Tokens, ", "),
	}
}

func checkInt(def record.FieldDef, input string) (Result, *Error) {
	s := strings.TrimSpace(input)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Result{}, &Error{
			Field:    def.Name,
			Message:  fmt.Sprintf("%q is not a whole number", s),
			Expected: "digits only",
		}
	}
	if n < def.Min || n > def.Max {
		return Result{}, &Error{
			Field:   def.Name,
			Message: fmt.Sprintf("%s must be between %d and %d", def.Label, def.Min, def.Max),
		}
	}
	return Result{Value: record.Int(n)}, nil
}

func checkDate(def record.FieldDef, input string) (Result, *Error) {
	s := strings.TrimSpace(input)
	t, err := time.Parse(record.DateLayout, s)
	if err != nil {
		return Result{}, &Error{
			Field:    def.Name,
			Message:  fmt.Sprintf("%q is not a valid date", s),
			Expected: "YYYY-MM-DD",
		}
	}
	// Round-trip through the layout so the stored form is canonical even
	// if time.Parse accepted it leniently.
	return Result{Value: record.Date(t.Format(record.DateLayout))}, nil
}

// boolTokens maps accepted boolean spellings to their value.
var boolTokens = map[string]bool{
	"yes": true, "y": true, "true": true, "on": true, "1": true,
	"no": false, "n": false, "false": false, "off": false, "0": false,
}

func checkBool(def record.FieldDef, input string) (Result, *Error) {
	s := strings.ToLower(strings.TrimSpace(input))
	b, ok := boolTokens[s]
	if !ok {
		return Result{}, &Error{
			Field:    def.Name,
			Message:  fmt.Sprintf("%q is not a yes/no value", strings.TrimSpace(input)),
			Expected: "yes or no",
		}
	}
	return Result{Value: record.Bool(b)}, nil
}

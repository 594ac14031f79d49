package record

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies the semantic type of a field.
type Kind string

const (
	// KindText is a short single-line string.
	KindText Kind = "text"

	// KindLongText is a multiline string. Internal line breaks are
	// preserved verbatim.
	KindLongText Kind = "longtext"

	// KindEnum is a closed set of accepted tokens.
	KindEnum Kind = "enum"

	// KindInt is an integer with an inclusive range.
	KindInt Kind = "int"

	// KindDate is a calendar date, canonical form YYYY-MM-DD.
	KindDate Kind = "date"

	// KindBool is a yes/no flag.
	KindBool Kind = "bool"
)

// DateLayout is the canonical external date format.
const DateLayout = "2006-01-02"

// Value is a tagged field value. The zero Value is "unset", which is how
// cleared and never-populated fields are represented uniformly.
type Value struct {
	kind  Kind
	str   string
	num   int64
	truth bool
	set   bool
}

// Unset returns the unset value.
func Unset() Value {
	return Value{}
}

// Text returns a set short-text value.
func Text(s string) Value {
	return Value{kind: KindText, str: s, set: true}
}

// LongText returns a set multiline-text value.
func LongText(s string) Value {
	return Value{kind: KindLongText, str: s, set: true}
}

// Enum returns a set enum value carrying a canonical token.
func Enum(token string) Value {
	return Value{kind: KindEnum, str: token, set: true}
}

// Int returns a set integer value.
func Int(n int64) Value {
	return Value{kind: KindInt, num: n, set: true}
}

// Date returns a set date value. The argument must already be in
// canonical YYYY-MM-DD form; internal/validate is the only producer of
// date values from raw input.
func Date(canonical string) Value {
	return Value{kind: KindDate, str: canonical, set: true}
}

// Bool returns a set boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, truth: b, set: true}
}

// IsSet reports whether the value carries data. Cleared fields are unset.
func (v Value) IsSet() bool {
	return v.set
}

// Kind returns the value's kind, or "" for the unset value.
func (v Value) Kind() Kind {
	if !v.set {
		return ""
	}
	return v.kind
}

// Str returns the string payload for text, longtext, enum, and date
// values. It returns "" for other kinds and for unset values.
func (v Value) Str() string {
	return v.str
}

// Num returns the integer payload, or 0 if the value is not a set int.
func (v Value) Num() int64 {
	return v.num
}

// Truth returns the boolean payload, or false if not a set bool.
func (v Value) Truth() bool {
	return v.truth
}

// Equal reports whether two values are identical, treating all unset
// values as equal regardless of kind.
func (v Value) Equal(o Value) bool {
	if !v.set && !o.set {
		return true
	}
	return v == o
}

// Display renders the value in its canonical external form: dates as
// YYYY-MM-DD, booleans as yes/no, unset as the empty string.
func (v Value) Display() string {
	if !v.set {
		return ""
	}
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.num)
	case KindBool:
		if v.truth {
			return "yes"
		}
		return "no"
	default:
		return v.str
	}
}

// Native returns the value as a plain Go type suitable for JSON encoding:
// string, int64, bool, or nil for unset.
func (v Value) Native() any {
	if !v.set {
		return nil
	}
	switch v.kind {
	case KindInt:
		return v.num
	case KindBool:
		return v.truth
	default:
		return v.str
	}
}

// NormalizeInput applies NFC normalization to raw operator input.
// Validators receive normalized input only, so equal-looking inputs
// produce byte-identical stored values.
func NormalizeInput(raw string) string {
	return norm.NFC.String(raw)
}

// IsBlank reports whether input is empty or whitespace-only. Blank input
// on an optional field is an explicit clear request.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

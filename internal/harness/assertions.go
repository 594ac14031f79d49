package harness

import "fmt"

// EvaluateAssertions checks every assertion against the run result and
// returns one message per failure. An empty slice means the scenario
// passed.
func EvaluateAssertions(res *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(res, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion[%d] %s: %v", i, a.Type, err))
		}
	}
	return failures
}

func evaluate(res *Result, a Assertion) error {
	switch a.Type {
	case AssertStoredField:
		got := res.Stored.Get(a.Field)
		if !got.IsSet() {
			return fmt.Errorf("field %q is unset, want %q", a.Field, a.Value)
		}
		if got.Display() != a.Value {
			return fmt.Errorf("field %q = %q, want %q", a.Field, got.Display(), a.Value)
		}
	case AssertStoredUnset:
		if got := res.Stored.Get(a.Field); got.IsSet() {
			return fmt.Errorf("field %q = %q, want unset", a.Field, got.Display())
		}
	case AssertUpdateCalls:
		if res.UpdateCalls != a.Count {
			return fmt.Errorf("%d update calls, want %d", res.UpdateCalls, a.Count)
		}
	case AssertSessionCleared:
		if res.SessionsLeft != 0 {
			return fmt.Errorf("%d sessions still live, want 0", res.SessionsLeft)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

package engine

import (
	"errors"
	"fmt"
)

// DialogueError represents a misuse of the dialogue protocol, as opposed
// to the recoverable operator-facing errors (validation, rules,
// persistence) which are rendered as prompts and keep the session alive.
type DialogueError struct {
	// Code identifies the error category.
	Code DialogueErrorCode

	// Operator identifies the affected operator.
	Operator string

	// Message is a human-readable description.
	Message string
}

// DialogueErrorCode categorizes dialogue errors.
type DialogueErrorCode string

const (
	// ErrCodeNoSession indicates input arrived for an operator with no
	// live session.
	ErrCodeNoSession DialogueErrorCode = "NO_SESSION"

	// ErrCodeBadState indicates input arrived in a state that cannot
	// accept it (a Handle call during SAVING).
	ErrCodeBadState DialogueErrorCode = "BAD_STATE"
)

// Error implements the error interface.
func (e *DialogueError) Error() string {
	return fmt.Sprintf("%s: %s (operator=%s)", e.Code, e.Message, e.Operator)
}

// IsNoSession reports whether err is a missing-session error.
// Uses errors.As to handle wrapped errors.
func IsNoSession(err error) bool {
	var de *DialogueError
	if errors.As(err, &de) {
		return de.Code == ErrCodeNoSession
	}
	return false
}

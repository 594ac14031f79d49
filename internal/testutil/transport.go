package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedTransport implements the engine's Transport interface with a
// predetermined input script and a recorded transcript of every prompt.
// Golden tests compare the transcript; behavioral tests assert on
// individual entries.
type ScriptedTransport struct {
	mu       sync.Mutex
	inputs   []string
	idx      int
	prompts  []Prompt
	operator string
}

// Prompt is one recorded transport prompt.
type Prompt struct {
	Operator string
	Message  string
	Options  []string
}

// NewScriptedTransport creates a transport that replies with inputs in
// order.
func NewScriptedTransport(inputs ...string) *ScriptedTransport {
	return &ScriptedTransport{inputs: inputs}
}

// Prompt records the message and options.
func (s *ScriptedTransport) Prompt(ctx context.Context, operator, message string, options []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, Prompt{Operator: operator, Message: message, Options: options})
	return nil
}

// AwaitInput returns the next scripted input. Returns an error when the
// script is exhausted so a dialogue that asks for more input than the
// test provided fails loudly instead of hanging.
func (s *ScriptedTransport) AwaitInput(ctx context.Context, operator string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.inputs) {
		return "", fmt.Errorf("scripted transport: input script exhausted after %d inputs", len(s.inputs))
	}
	in := s.inputs[s.idx]
	s.idx++
	return in, nil
}

// Prompts returns the recorded prompts in order.
func (s *ScriptedTransport) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Messages returns just the prompt messages in order.
func (s *ScriptedTransport) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	for i, p := range s.prompts {
		out[i] = p.Message
	}
	return out
}

// LastMessage returns the most recent prompt message, or "".
func (s *ScriptedTransport) LastMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1].Message
}

// ContainsMessage reports whether any recorded message contains substr.
func (s *ScriptedTransport) ContainsMessage(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prompts {
		if strings.Contains(p.Message, substr) {
			return true
		}
	}
	return false
}

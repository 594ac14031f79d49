package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fieldwise/fieldwise/internal/persist"
	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/rules"
	"github.com/fieldwise/fieldwise/internal/session"
	"github.com/fieldwise/fieldwise/internal/store"
	"github.com/fieldwise/fieldwise/internal/validate"
)

// Transport is the conversational boundary the engine drives. The engine
// does not depend on whether delivery is synchronous, push-based, or
// polled; it only sends prompts and consumes raw replies.
//
// options is advisory: transports that can render choices (buttons, tab
// completion) may use it, line transports may print it.
type Transport interface {
	Prompt(ctx context.Context, operator, message string, options []string) error
	AwaitInput(ctx context.Context, operator string) (string, error)
}

// Engine drives editing dialogues. Safe for concurrent use across
// operators; calls for a single operator must be sequential, which every
// real transport already guarantees (one reply at a time).
type Engine struct {
	schema      *record.Schema
	validators  *validate.Registry
	rules       *rules.Engine
	sessions    *session.Store
	coordinator *persist.Coordinator
	transport   Transport
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. The validator registry is derived from the
// schema; rules, sessions, and the coordinator are shared with callers so
// tests can inspect them.
func New(
	schema *record.Schema,
	ruleEngine *rules.Engine,
	sessions *session.Store,
	coordinator *persist.Coordinator,
	transport Transport,
	opts ...Option,
) *Engine {
	e := &Engine{
		schema:      schema,
		validators:  validate.NewRegistry(schema),
		rules:       ruleEngine,
		sessions:    sessions,
		coordinator: coordinator,
		transport:   transport,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin starts an editing session for the operator on the given record
// (already selected by the external lookup service) and prompts for field
// selection. An existing session for the operator is replaced.
func (e *Engine) Begin(ctx context.Context, operator string, rec record.Record) error {
	sess := e.sessions.Begin(operator, rec)
	e.logger.Info("session started",
		"operator", operator,
		"record", rec.ID,
		"session", sess.ID,
	)
	msg, options := fieldSelectionPrompt(sess.Original, e.schema)
	return e.transport.Prompt(ctx, operator, msg, options)
}

// Handle processes one raw operator input. It returns done=true when the
// session ended (successful save, cancel, or expiry notice); the session
// stays alive through every recoverable error.
func (e *Engine) Handle(ctx context.Context, operator, raw string) (done bool, err error) {
	sess, err := e.sessions.Get(operator)
	if err != nil {
		var expired *session.ExpiredError
		if errors.As(err, &expired) {
			e.logger.Info("session expired", "operator", operator)
			if perr := e.transport.Prompt(ctx, operator, msgExpired, nil); perr != nil {
				return true, perr
			}
			return true, nil
		}
		return false, err
	}
	if sess == nil {
		return false, &DialogueError{Code: ErrCodeNoSession, Operator: operator, Message: "no editing session in progress"}
	}
	e.sessions.Touch(sess)

	command := strings.ToLower(strings.TrimSpace(raw))

	if command == "cancel" {
		if sess.State == session.StateSaving {
			return false, &DialogueError{Code: ErrCodeBadState, Operator: operator, Message: "cannot cancel during save"}
		}
		e.sessions.Cancel(operator)
		e.logger.Info("session cancelled", "operator", operator, "record", sess.Original.ID)
		if perr := e.transport.Prompt(ctx, operator, msgCancelled, nil); perr != nil {
			return true, perr
		}
		return true, nil
	}

	switch sess.State {
	case session.StateFieldSelection:
		return false, e.handleFieldSelection(ctx, sess, command)
	case session.StateAwaitingInput:
		return false, e.handleAwaitingInput(ctx, sess, raw)
	case session.StateConfirming:
		return e.handleConfirming(ctx, sess, command)
	default:
		return false, &DialogueError{Code: ErrCodeBadState, Operator: operator, Message: "input not accepted in state " + string(sess.State)}
	}
}

// Run drives a complete dialogue over the transport: begin, then handle
// inputs until the session ends. Used by the CLI; push-based transports
// call Begin and Handle directly from their delivery callbacks.
func (e *Engine) Run(ctx context.Context, operator string, rec record.Record) error {
	if err := e.Begin(ctx, operator, rec); err != nil {
		return err
	}
	for {
		raw, err := e.transport.AwaitInput(ctx, operator)
		if err != nil {
			return err
		}
		done, err := e.Handle(ctx, operator, raw)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (e *Engine) handleFieldSelection(ctx context.Context, sess *session.Session, command string) error {
	if command == "save" {
		diff := sess.Diff(e.schema)
		if len(diff) == 0 {
			return e.transport.Prompt(ctx, sess.Operator, msgNothingToSave, nil)
		}
		sess.State = session.StateConfirming
		return e.transport.Prompt(ctx, sess.Operator, diffMessage(sess.Original.ID, diff), []string{"save", "back", "cancel"})
	}

	def, ok := e.resolveField(command)
	if !ok {
		return e.transport.Prompt(ctx, sess.Operator, unknownFieldMessage(command, e.schema), nil)
	}

	sess.State = session.StateAwaitingInput
	sess.ActiveField = def.Name
	msg, options := fieldPrompt(def)
	return e.transport.Prompt(ctx, sess.Operator, msg, options)
}

func (e *Engine) handleAwaitingInput(ctx context.Context, sess *session.Session, raw string) error {
	field := sess.ActiveField
	def, _ := e.schema.Field(field)

	res, err := e.validators.Check(field, raw)
	if err != nil {
		var verr *validate.Error
		if !errors.As(err, &verr) {
			return err
		}
		// Stay in AWAITING_INPUT: no pending edit is recorded for
		// rejected input.
		return e.transport.Prompt(ctx, sess.Operator, validationMessage(verr.Message, verr.Expected), nil)
	}

	before := sess.Effective(field)
	sess.Apply(field, res.Value, res.Clear)
	after := sess.Effective(field)

	if err := e.transport.Prompt(ctx, sess.Operator, stagedMessage(def.Label, before.Display(), after.Display()), nil); err != nil {
		return err
	}

	outcome := e.rules.Evaluate(field, before, after, sess)
	for _, extra := range outcome.AdditionalEdits {
		sess.Apply(extra.Field, extra.Value, extra.Clear)
	}
	if outcome.Notice != "" {
		if err := e.transport.Prompt(ctx, sess.Operator, outcome.Notice, nil); err != nil {
			return err
		}
	}

	if outcome.Require != "" {
		// Route the dialogue straight to the required field.
		reqDef, ok := e.schema.Field(outcome.Require)
		if !ok {
			return &DialogueError{Code: ErrCodeBadState, Operator: sess.Operator, Message: "rule requires unknown field " + outcome.Require}
		}
		sess.ActiveField = reqDef.Name
		msg, options := fieldPrompt(reqDef)
		return e.transport.Prompt(ctx, sess.Operator, msg, options)
	}

	sess.State = session.StateFieldSelection
	sess.ActiveField = ""
	msg, options := fieldSelectionPrompt(sess.Original, e.schema)
	return e.transport.Prompt(ctx, sess.Operator, msg, options)
}

func (e *Engine) handleConfirming(ctx context.Context, sess *session.Session, command string) (bool, error) {
	switch command {
	case "save":
		return e.save(ctx, sess)
	case "back":
		sess.State = session.StateFieldSelection
		msg, options := fieldSelectionPrompt(sess.Original, e.schema)
		return false, e.transport.Prompt(ctx, sess.Operator, msg, options)
	default:
		return false, e.transport.Prompt(ctx, sess.Operator, msgBadConfirm, nil)
	}
}

// save runs the persistence coordinator and maps its error taxonomy back
// onto dialogue states: success ends the session, a rule violation
// returns to FIELD_SELECTION, every persistence failure returns to
// CONFIRMING with the edits intact.
func (e *Engine) save(ctx context.Context, sess *session.Session) (bool, error) {
	sess.State = session.StateSaving
	fields := len(sess.Edits())

	saved, err := e.coordinator.Save(ctx, sess)
	if err == nil {
		if perr := e.transport.Prompt(ctx, sess.Operator, savedMessage(saved.ID, fields), nil); perr != nil {
			return true, perr
		}
		return true, nil
	}

	var violation *rules.Violation
	if errors.As(err, &violation) {
		sess.State = session.StateFieldSelection
		if perr := e.transport.Prompt(ctx, sess.Operator, ruleViolationMessage(violation.Message), nil); perr != nil {
			return false, perr
		}
		msg, options := fieldSelectionPrompt(sess.Original, e.schema)
		return false, e.transport.Prompt(ctx, sess.Operator, msg, options)
	}

	sess.State = session.StateConfirming
	switch {
	case store.IsNotFound(err):
		return false, e.transport.Prompt(ctx, sess.Operator, notFoundMessage(sess.Original.ID), nil)
	case store.IsRejected(err):
		return false, e.transport.Prompt(ctx, sess.Operator, rejectedMessage(), nil)
	case store.IsTransient(err):
		e.logger.Warn("save exhausted retries", "operator", sess.Operator, "record", sess.Original.ID, "err", err)
		return false, e.transport.Prompt(ctx, sess.Operator, msgConfirmRetry, []string{"save", "back", "cancel"})
	default:
		// Context cancellation or a transport failure mid-save.
		return false, err
	}
}

// resolveField matches operator input against field names first, then
// display labels, both case-insensitively.
func (e *Engine) resolveField(input string) (record.FieldDef, bool) {
	for _, def := range e.schema.Fields() {
		if strings.EqualFold(def.Name, input) {
			return def, true
		}
	}
	for _, def := range e.schema.Fields() {
		if strings.EqualFold(def.Label, input) {
			return def, true
		}
	}
	return record.FieldDef{}, false
}

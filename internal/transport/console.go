// Package transport provides the console implementation of the engine's
// conversational boundary: prompts to a writer, replies line by line from
// a reader. Delivery mechanics beyond this line-oriented contract
// (push transports, chat platforms) are out of scope; they implement the
// same two methods against their own plumbing.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console is a line-oriented transport over an io.Reader/io.Writer pair,
// stdin/stdout in the CLI. Single-operator: the operator argument is
// accepted for interface compatibility and ignored.
type Console struct {
	scanner *bufio.Scanner
	out     io.Writer

	prompt  *color.Color
	options *color.Color
}

// NewConsole creates a console transport.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		scanner: bufio.NewScanner(in),
		out:     out,
		prompt:  color.New(color.FgCyan),
		options: color.New(color.Faint),
	}
}

// Prompt writes the message, then the options as a hint line when
// present.
func (c *Console) Prompt(ctx context.Context, operator, message string, options []string) error {
	if _, err := c.prompt.Fprintln(c.out, message); err != nil {
		return err
	}
	if len(options) > 0 {
		if _, err := c.options.Fprintf(c.out, "  [%s]\n", strings.Join(options, " | ")); err != nil {
			return err
		}
	}
	return nil
}

// AwaitInput reads the next line. Returns io.EOF when input is closed.
func (c *Console) AwaitInput(ctx context.Context, operator string) (string, error) {
	if _, err := fmt.Fprint(c.out, "> "); err != nil {
		return "", err
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}

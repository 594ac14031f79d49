package transport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_PromptWritesMessageAndOptions(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	require.NoError(t, c.Prompt(context.Background(), "op", "Pick a field.", []string{"name", "tier"}))

	assert.Contains(t, out.String(), "Pick a field.\n")
	assert.Contains(t, out.String(), "[name | tier]")
}

func TestConsole_AwaitInputReadsLines(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("first\nsecond\n"), &out)
	ctx := context.Background()

	in, err := c.AwaitInput(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, "first", in)

	in, err = c.AwaitInput(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, "second", in)

	_, err = c.AwaitInput(ctx, "op")
	assert.ErrorIs(t, err, io.EOF)
}

package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwise/fieldwise/internal/record"
)

const customerCUE = `
catalog: {
	name: "customer"
	fields: [
		{name: "name", label: "Name", kind: "text", max_len: 80},
		{name: "tier", label: "Tier", kind: "enum", tokens: ["standard", "premium"]},
		{name: "account_manager", label: "Account manager", kind: "text", optional: true},
		{name: "age", label: "Age", kind: "int", min: 0, max: 120, optional: true},
		{name: "joined", label: "Joined", kind: "date", optional: true},
	]
	rules: [
		{name: "premium-needs-manager", field: "tier", to: "premium", requires: "account_manager"},
		{name: "standard-clears-manager", field: "tier", to: "standard", clears: "account_manager"},
	]
}
`

func TestCompileString_FullCatalog(t *testing.T) {
	b, err := CompileString(customerCUE, "customer.cue")
	require.NoError(t, err)

	assert.Equal(t, "customer", b.Schema.Name())
	assert.Equal(t, 5, b.Schema.Len())

	// Declaration order survives compilation.
	fields := b.Schema.Fields()
	assert.Equal(t, "name", fields[0].Name)
	assert.Equal(t, "joined", fields[4].Name)

	tier, ok := b.Schema.Field("tier")
	require.True(t, ok)
	assert.Equal(t, record.KindEnum, tier.Kind)
	assert.Equal(t, []string{"standard", "premium"}, tier.Tokens)

	age, ok := b.Schema.Field("age")
	require.True(t, ok)
	assert.Equal(t, int64(0), age.Min)
	assert.Equal(t, int64(120), age.Max)
	assert.True(t, age.Optional)

	require.Len(t, b.Triggers, 2)
	assert.Equal(t, "account_manager", b.Triggers[0].Requires)
	assert.Equal(t, "account_manager", b.Triggers[1].Clears)

	_, err = b.RuleEngine()
	require.NoError(t, err)
}

func TestCompileString_MissingCatalogStruct(t *testing.T) {
	_, err := CompileString(`other: {}`, "bad.cue")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "catalog", cerr.Field)
}

func TestCompileString_MissingName(t *testing.T) {
	_, err := CompileString(`catalog: {fields: [{name: "a", kind: "text"}]}`, "bad.cue")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "name", cerr.Field)
}

func TestCompileString_EmptyFields(t *testing.T) {
	_, err := CompileString(`catalog: {name: "x", fields: []}`, "bad.cue")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Message, "at least one field")
}

func TestCompileString_UnknownKind(t *testing.T) {
	_, err := CompileString(`catalog: {name: "x", fields: [{name: "a", kind: "blob"}]}`, "bad.cue")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Message, `unknown kind "blob"`)
}

func TestCompileString_RuleAgainstUnknownFieldRejected(t *testing.T) {
	src := `
catalog: {
	name: "x"
	fields: [{name: "a", kind: "text"}]
	rules: [{name: "r", field: "missing", to: "v", clears: "a"}]
}
`
	_, err := CompileString(src, "bad.cue")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "rules", cerr.Field)
}

func TestCompileString_LabelDefaultsToName(t *testing.T) {
	b, err := CompileString(`catalog: {name: "x", fields: [{name: "a", kind: "text"}]}`, "x.cue")
	require.NoError(t, err)
	def, _ := b.Schema.Field("a")
	assert.Equal(t, "a", def.Label)
}

func TestDefault_CompilesAndBuildsRuleEngine(t *testing.T) {
	b := Default()
	assert.Equal(t, "customer", b.Schema.Name())
	assert.True(t, b.Schema.Has("tier"))
	_, err := b.RuleEngine()
	require.NoError(t, err)
}

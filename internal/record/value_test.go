package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ZeroIsUnset(t *testing.T) {
	var v Value
	assert.False(t, v.IsSet())
	assert.Equal(t, "", v.Display())
	assert.Nil(t, v.Native())
}

func TestValue_Display(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"text", Text("Ada Lovelace"), "Ada Lovelace"},
		{"longtext", LongText("line one\nline two"), "line one\nline two"},
		{"enum", Enum("premium"), "premium"},
		{"int", Int(42), "42"},
		{"date", Date("1997-10-14"), "1997-10-14"},
		{"bool true", Bool(true), "yes"},
		{"bool false", Bool(false), "no"},
		{"unset", Unset(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Display())
		})
	}
}

func TestValue_Equal_UnsetValuesAlwaysEqual(t *testing.T) {
	assert.True(t, Unset().Equal(Value{}))
	assert.False(t, Text("x").Equal(Unset()))
	assert.False(t, Unset().Equal(Text("x")))
}

func TestValue_Equal_SameKindSamePayload(t *testing.T) {
	assert.True(t, Int(7).Equal(Int(7)))
	assert.False(t, Int(7).Equal(Int(8)))
	// Same payload bytes, different kind: not equal.
	assert.False(t, Text("premium").Equal(Enum("premium")))
}

func TestNormalizeInput_NFC(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) normalizes to U+00E9.
	composed := NormalizeInput("Rémy")
	assert.Equal(t, "Rémy", composed)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("   \t\n"))
	assert.False(t, IsBlank(" x "))
}

func TestSchema_FieldOrderIsDeclarationOrder(t *testing.T) {
	s, err := NewSchema("t", []FieldDef{
		{Name: "b", Label: "B", Kind: KindText},
		{Name: "a", Label: "A", Kind: KindText},
	})
	require.NoError(t, err)

	fields := s.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "b", fields[0].Name)
	assert.Equal(t, "a", fields[1].Name)
}

func TestSchema_DuplicateFieldRejected(t *testing.T) {
	_, err := NewSchema("t", []FieldDef{
		{Name: "a", Kind: KindText},
		{Name: "a", Kind: KindInt},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field")
}

func TestSchema_EnumWithoutTokensRejected(t *testing.T) {
	_, err := NewSchema("t", []FieldDef{{Name: "tier", Kind: KindEnum}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tokens")
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := New("rec-1")
	r.Set("name", Text("before"))

	c := r.Clone()
	c.Set("name", Text("after"))

	assert.Equal(t, "before", r.Get("name").Display())
	assert.Equal(t, "after", c.Get("name").Display())
}

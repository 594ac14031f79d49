package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwise/fieldwise/internal/record"
)

func testSchema(t *testing.T) *record.Schema {
	t.Helper()
	s, err := record.NewSchema("test", []record.FieldDef{
		{Name: "name", Label: "Name", Kind: record.KindText, MaxLen: 10},
		{Name: "notes", Label: "Notes", Kind: record.KindLongText, Optional: true},
		{Name: "tier", Label: "Tier", Kind: record.KindEnum, Tokens: []string{"standard", "premium"}},
		{Name: "age", Label: "Age", Kind: record.KindInt, Min: 0, Max: 120, Optional: true},
		{Name: "joined", Label: "Joined", Kind: record.KindDate, Optional: true},
		{Name: "active", Label: "Active", Kind: record.KindBool},
	})
	require.NoError(t, err)
	return s
}

func TestCheck_UnknownField(t *testing.T) {
	r := NewRegistry(testSchema(t))
	_, err := r.Check("nope", "x")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "nope", verr.Field)
}

func TestCheck_Text_TrimsAndAccepts(t *testing.T) {
	r := NewRegistry(testSchema(t))
	res, err := r.Check("name", "  Ada  ")
	require.NoError(t, err)
	assert.False(t, res.Clear)
	assert.Equal(t, "Ada", res.Value.Display())
}

func TestCheck_Text_LengthBound(t *testing.T) {
	r := NewRegistry(testSchema(t))
	_, err := r.Check("name", "a name well over ten characters")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "at most 10 characters")
}

func TestCheck_BlankOnRequiredFieldRejected(t *testing.T) {
	r := NewRegistry(testSchema(t))
	_, err := r.Check("name", "   ")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "required")
}

func TestCheck_BlankOnOptionalFieldClears(t *testing.T) {
	r := NewRegistry(testSchema(t))
	res, err := r.Check("notes", "   ")
	require.NoError(t, err)
	assert.True(t, res.Clear)
	assert.False(t, res.Value.IsSet())
}

func TestCheck_LongText_PreservesLineBreaks(t *testing.T) {
	r := NewRegistry(testSchema(t))
	res, err := r.Check("notes", "first line\nsecond line\n")
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", res.Value.Str())
}

func TestCheck_Enum_CaseTolerant(t *testing.T) {
	r := NewRegistry(testSchema(t))
	for _, input := range []string{"premium", "Premium", "PREMIUM", " premium "} {
		res, err := r.Check("tier", input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, "premium", res.Value.Str(), "input %q", input)
	}
}

func TestCheck_Enum_UnknownTokenListsOptions(t *testing.T) {
	r := NewRegistry(testSchema(t))
	_, err := r.Check("tier", "gold")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "one of: standard, premium", verr.Expected)
}

func TestCheck_Int_ParseAndRange(t *testing.T) {
	r := NewRegistry(testSchema(t))

	res, err := r.Check("age", "27")
	require.NoError(t, err)
	assert.Equal(t, int64(27), res.Value.Num())

	_, err = r.Check("age", "abc")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "not a whole number")

	_, err = r.Check("age", "130")
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "between 0 and 120")
}

func TestCheck_Date_CanonicalForm(t *testing.T) {
	r := NewRegistry(testSchema(t))

	res, err := r.Check("joined", "1997-10-14")
	require.NoError(t, err)
	assert.Equal(t, "1997-10-14", res.Value.Display())

	_, err = r.Check("joined", "14/10/1997")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "YYYY-MM-DD", verr.Expected)
}

func TestCheck_Bool_Spellings(t *testing.T) {
	r := NewRegistry(testSchema(t))

	for _, input := range []string{"yes", "Y", "true", "1"} {
		res, err := r.Check("active", input)
		require.NoError(t, err, "input %q", input)
		assert.True(t, res.Value.Truth(), "input %q", input)
	}
	for _, input := range []string{"no", "N", "false", "0"} {
		res, err := r.Check("active", input)
		require.NoError(t, err, "input %q", input)
		assert.False(t, res.Value.Truth(), "input %q", input)
	}

	_, err := r.Check("active", "maybe")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "yes or no", verr.Expected)
}

func TestCheck_NormalizesNFCBeforeValidation(t *testing.T) {
	r := NewRegistry(testSchema(t))
	// Decomposed "é" must normalize to the composed form before storage.
	res, err := r.Check("name", "Rémy")
	require.NoError(t, err)
	assert.Equal(t, "Rémy", res.Value.Str())
}

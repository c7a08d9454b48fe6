package builtin

import (
	"errors"
	"testing"

	"clinprep/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"BMI", "BMI"},
		{"  BMI \t", "BMI"},
		{"Number of Days\nin Critical Care", "Number of Daysin Critical Care"},
		{"Features of sepsis?\r\n", "Features of sepsis?"},
		{"Café", "Café"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
		assert.Equal(t, tt.want, NormalizeName(NormalizeName(tt.in)), "idempotent for %q", tt.in)
	}
}

func TestNormalizeSchema_RenamesAndKeepsCells(t *testing.T) {
	in, err := dataset.FromRows([]string{" Sex\n", "BMI "}, [][]dataset.Value{{txt("male"), num(22)}})
	require.NoError(t, err)

	out, err := NormalizeSchema{}.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sex", "BMI"}, out.Names())
	assert.Equal(t, []string{" Sex\n", "BMI "}, in.Names(), "input must be untouched")
	assert.Equal(t, txt("male"), values(t, out, "Sex")[0])

	again, err := NormalizeSchema{}.Apply(out)
	require.NoError(t, err)
	assert.True(t, again.Equal(out))
}

func TestNormalizeSchema_CollisionIsSchemaError(t *testing.T) {
	in, err := dataset.FromRows([]string{"BMI", " BMI"}, [][]dataset.Value{{num(1), num(2)}})
	require.NoError(t, err)

	_, err = NormalizeSchema{}.Apply(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrSchema))
	assert.Equal(t, "BMI", dataset.ColumnOf(err))
}

func TestRequireColumns(t *testing.T) {
	in, err := dataset.FromRows([]string{"a", "x_1", "x_2"}, [][]dataset.Value{{num(1), num(1), num(0)}})
	require.NoError(t, err)

	out, err := RequireColumns{Columns: []string{"a"}}.Apply(in)
	require.NoError(t, err)
	assert.Same(t, in, out)

	_, err = RequireColumns{Columns: []string{"a", "b", "c"}}.Apply(in)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrSchema)
	assert.Equal(t, "b", dataset.ColumnOf(err))
	assert.Contains(t, err.Error(), "2 missing: b, c")

	enc := RequireColumns{Columns: []string{"x"}, Encoded: map[string][]string{"x": {"x_1", "x_2"}}}
	_, err = enc.Apply(in)
	assert.NoError(t, err, "encoded column satisfied by its indicators")

	partial := RequireColumns{Columns: []string{"x"}, Encoded: map[string][]string{"x": {"x_1", "x_3"}}}
	_, err = partial.Apply(in)
	assert.ErrorIs(t, err, dataset.ErrSchema)
}

package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

func loadSample(t *testing.T, n int) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(sampleCSV(n)), BankAdditional())
	require.NoError(t, err)
	return f
}

func TestReadCSV(t *testing.T) {
	f := loadSample(t, 50)

	assert.Equal(t, 50, f.Len())
	assert.Len(t, f.Columns(), 21)

	age, err := f.Numeric("age")
	require.NoError(t, err)
	assert.Equal(t, 20.0, age[0])

	jobs, err := f.Categorical("job")
	require.NoError(t, err)
	assert.Equal(t, "admin.", jobs[0])

	levels, err := f.Levels("job")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin.", "blue-collar", "services", "technician"}, levels)

	_, err = f.Numeric("job")
	var se *errors.SchemaError
	assert.True(t, errors.As(err, &se))
}

func TestReadCSVSchemaErrors(t *testing.T) {
	valid := sampleCSV(3)
	lines := strings.Split(valid, "\n")

	tests := []struct {
		name   string
		input  string
		column string
		row    int
	}{
		{
			name:   "missing column",
			input:  strings.Replace(valid, `;"y"`+"\n", "\n", 1),
			column: "y",
		},
		{
			name:   "unknown column",
			input:  strings.Replace(valid, `"age"`, `"agee"`, 1),
			column: "agee",
		},
		{
			name:   "unparsable number",
			input:  lines[0] + "\n" + strings.Replace(lines[1], "20;", "twenty;", 1) + "\n",
			column: "age",
			row:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), BankAdditional())
			require.Error(t, err)
			var se *errors.SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.column, se.Column)
			assert.Equal(t, tt.row, se.Row)
		})
	}

	t.Run("header only", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(lines[0]+"\n"), BankAdditional())
		assert.ErrorIs(t, err, errors.ErrEmptyData)
	})
}

func TestLabelRoundTrip(t *testing.T) {
	f := loadSample(t, 40)
	raw, err := f.Categorical(LabelColumn)
	require.NoError(t, err)

	enc := NewLabelEncoder()
	codes, err := enc.Encode(raw)
	require.NoError(t, err)
	back, err := enc.Decode(codes)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
	assert.InDelta(t, 0.2, enc.PositiveRate(raw), 1e-12)

	_, err = enc.Encode([]string{"yes", "maybe"})
	assert.Error(t, err)
	_, err = enc.Decode([]float64{0, 0.5})
	assert.Error(t, err)
}

func TestFrameCoercions(t *testing.T) {
	f := loadSample(t, 10)

	require.NoError(t, f.AsCategorical("pdays"))
	kind, _ := f.Kind("pdays")
	assert.Equal(t, Categorical, kind)
	levels, err := f.Levels("pdays")
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "6", "999"}, levels)

	require.NoError(t, f.AsNumeric("pdays"))
	pdays, err := f.Numeric("pdays")
	require.NoError(t, err)
	assert.Equal(t, 6.0, pdays[0])

	err = f.AsNumeric("job")
	var se *errors.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Row)
}

func TestFrameSubsetAndDrop(t *testing.T) {
	f := loadSample(t, 10)

	sub := f.Subset([]int{9, 0})
	assert.Equal(t, 2, sub.Len())
	dur, err := sub.Numeric("duration")
	require.NoError(t, err)
	assert.Equal(t, []float64{109, 100}, dur)

	dropped := f.Drop("duration", "nonexistent")
	assert.Len(t, dropped.Columns(), 20)
	_, ok := dropped.Kind("duration")
	assert.False(t, ok)
	_, ok = f.Kind("duration")
	assert.True(t, ok)
}

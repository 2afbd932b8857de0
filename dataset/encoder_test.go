package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

func smallFrame(t *testing.T, colors []string, sizes []float64, y []string) *Frame {
	t.Helper()
	f := NewFrame(len(colors))
	require.NoError(t, f.AddCategorical("color", colors))
	require.NoError(t, f.AddNumeric("size", sizes))
	require.NoError(t, f.AddCategorical("y", y))
	return f
}

func TestEncoderOneHot(t *testing.T) {
	train := smallFrame(t,
		[]string{"red", "blue", "green"},
		[]float64{1, 2, 3},
		[]string{"yes", "no", "no"})

	enc := NewEncoder(OneHot, "y")
	require.NoError(t, enc.Fit(train))
	assert.Equal(t, []string{"color=blue", "color=green", "color=red", "size"}, enc.FeatureNames())

	valid := smallFrame(t, []string{"green", "purple"}, []float64{5, 6}, []string{"yes", "no"})
	X, y, err := enc.Transform(valid)
	require.NoError(t, err)

	want := mat.NewDense(2, 4, []float64{
		0, 1, 0, 5,
		0, 0, 0, 6, // 未知レベルは全て0
	})
	assert.True(t, mat.Equal(want, X))
	assert.Equal(t, []float64{1, 0}, y.RawVector().Data)
}

func TestEncoderDropFirstAndOrdinal(t *testing.T) {
	train := smallFrame(t,
		[]string{"red", "blue", "green"},
		[]float64{1, 2, 3},
		[]string{"yes", "no", "no"})

	enc := NewEncoder(OneHot, "y", WithDropFirst(true))
	require.NoError(t, enc.Fit(train))
	assert.Equal(t, []string{"color=green", "color=red", "size"}, enc.FeatureNames())
	X, _, err := enc.Transform(train)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1}, X.RawRowView(0))
	assert.Equal(t, []float64{0, 0, 2}, X.RawRowView(1))

	ord := NewEncoder(Ordinal, "y")
	require.NoError(t, ord.Fit(train))
	valid := smallFrame(t, []string{"red", "cyan"}, []float64{1, 1}, []string{"no", "no"})
	X, _, err = ord.Transform(valid)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, X.RawRowView(0))
	assert.Equal(t, []float64{-1, 1}, X.RawRowView(1))
}

func TestEncoderErrors(t *testing.T) {
	enc := NewEncoder(OneHot, "y")
	f := smallFrame(t, []string{"a"}, []float64{1}, []string{"yes"})

	_, _, err := enc.Transform(f)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, enc.Fit(f))
	bad := smallFrame(t, []string{"a"}, []float64{1}, []string{"maybe"})
	_, _, err = enc.Transform(bad)
	assert.Error(t, err)

	assert.Error(t, NewEncoder(OneHot, "label").Fit(f))

	_, err = ParseEncoding("binary")
	assert.Error(t, err)
	e, err := ParseEncoding("ordinal")
	require.NoError(t, err)
	assert.Equal(t, Ordinal, e)
}

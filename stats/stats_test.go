package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/termdeposit/dataset"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{5, 1, 4, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 2.0, s.Q1)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 4.0, s.Q3)
	assert.Equal(t, 5.0, s.Max)

	_, err = Describe(nil)
	assert.Error(t, err)
}

func testFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	// contact: cellular 30 (20 yes), telephone 30 (10 yes)
	n := 60
	contact := make([]string, n)
	y := make([]string, n)
	age := make([]float64, n)
	constant := make([]string, n)
	for i := 0; i < n; i++ {
		constant[i] = "x"
		if i < 30 {
			contact[i] = "cellular"
			y[i] = "no"
			if i < 20 {
				y[i] = "yes"
			}
		} else {
			contact[i] = "telephone"
			y[i] = "no"
			if i < 40 {
				y[i] = "yes"
			}
		}
		age[i] = 30
		if y[i] == "yes" {
			age[i] = 50
		}
	}
	f := dataset.NewFrame(n)
	require.NoError(t, f.AddNumeric("age", age))
	require.NoError(t, f.AddCategorical("contact", contact))
	require.NoError(t, f.AddCategorical("constant", constant))
	require.NoError(t, f.AddCategorical("y", y))
	return f
}

func TestFrequencies(t *testing.T) {
	f := testFrame(t)
	freqs, err := Frequencies(f, "contact", "y", "yes")
	require.NoError(t, err)
	require.Len(t, freqs, 2)

	assert.Equal(t, "cellular", freqs[0].Level)
	assert.Equal(t, 30, freqs[0].Count)
	assert.InDelta(t, 0.5, freqs[0].Share, 1e-12)
	assert.InDelta(t, 2.0/3.0, freqs[0].PositiveRate, 1e-12)
	assert.InDelta(t, 1.0/3.0, freqs[1].PositiveRate, 1e-12)
}

func TestChiSquared(t *testing.T) {
	f := testFrame(t)
	contact, _ := f.Categorical("contact")
	y, _ := f.Categorical("y")

	ct, err := CrossTab(contact, y)
	require.NoError(t, err)
	assert.Equal(t, []string{"cellular", "telephone"}, ct.RowLevels)
	assert.Equal(t, []string{"no", "yes"}, ct.ColLevels)
	assert.Equal(t, 10.0, ct.Counts.At(0, 0))
	assert.Equal(t, 20.0, ct.Counts.At(0, 1))

	res, err := ChiSquared(ct)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DF)
	assert.InDelta(t, 20.0/3.0, res.Statistic, 1e-9)
	assert.InDelta(t, 0.00982, res.PValue, 2e-4)

	single, err := CrossTab([]string{"a", "a"}, []string{"yes", "no"})
	require.NoError(t, err)
	_, err = ChiSquared(single)
	assert.Error(t, err)

	_, err = CrossTab([]string{"a"}, nil)
	assert.Error(t, err)
}

func TestChiSquaredAll(t *testing.T) {
	f := testFrame(t)
	results, err := ChiSquaredAll(f, "y")
	require.NoError(t, err)

	// constant は水準が1つなので除外される
	require.Len(t, results, 1)
	assert.Equal(t, "contact", results[0].Column)
	assert.True(t, results[0].PValue >= 0 && results[0].PValue <= 1)
}

func TestCorrelations(t *testing.T) {
	f := testFrame(t)
	corr, err := Correlations(f, "y", dataset.NewLabelEncoder())
	require.NoError(t, err)
	require.Len(t, corr, 1)
	assert.Equal(t, "age", corr[0].Column)
	assert.InDelta(t, 1.0, corr[0].R, 1e-9)

	r, err := PointBiserial([]float64{1, 1, 1}, []float64{0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)

	_, err = PointBiserial([]float64{1, 2}, []float64{0, 2})
	assert.Error(t, err)
}

package stats

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// Contingency is a two-way frequency table. Counts.At(i, j) counts rows
// with RowLevels[i] and ColLevels[j].
type Contingency struct {
	RowLevels []string
	ColLevels []string
	Counts    *mat.Dense
}

// CrossTab tabulates a against b. Levels are sorted.
func CrossTab(a, b []string) (*Contingency, error) {
	if len(a) != len(b) {
		return nil, errors.NewDimensionError("CrossTab", len(a), len(b), 0)
	}
	if len(a) == 0 {
		return nil, errors.ErrEmptyData
	}

	rows, rowIdx := index(a)
	cols, colIdx := index(b)
	counts := mat.NewDense(len(rows), len(cols), nil)
	for i := range a {
		r, c := rowIdx[a[i]], colIdx[b[i]]
		counts.Set(r, c, counts.At(r, c)+1)
	}
	return &Contingency{RowLevels: rows, ColLevels: cols, Counts: counts}, nil
}

func index(values []string) ([]string, map[string]int) {
	set := make(map[string]int)
	for _, v := range values {
		set[v] = 0
	}
	levels := make([]string, 0, len(set))
	for v := range set {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	for i, v := range levels {
		set[v] = i
	}
	return levels, set
}

// ChiSquaredResult is Pearson's test of independence for one table.
type ChiSquaredResult struct {
	Column    string
	Statistic float64
	DF        int
	PValue    float64
}

// ChiSquared runs Pearson's chi-squared test on a contingency table.
// A table with a single row or column has no degrees of freedom and is an error.
func ChiSquared(ct *Contingency) (ChiSquaredResult, error) {
	r, c := ct.Counts.Dims()
	df := (r - 1) * (c - 1)
	if df == 0 {
		return ChiSquaredResult{}, errors.NewValueError("ChiSquared", "table needs at least two rows and two columns")
	}

	rowSum := make([]float64, r)
	colSum := make([]float64, c)
	var total float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := ct.Counts.At(i, j)
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}

	observed := make([]float64, 0, r*c)
	expected := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			observed = append(observed, ct.Counts.At(i, j))
			expected = append(expected, rowSum[i]*colSum[j]/total)
		}
	}
	statistic := stat.ChiSquare(observed, expected)

	return ChiSquaredResult{
		Statistic: statistic,
		DF:        df,
		PValue:    distuv.ChiSquared{K: float64(df)}.Survival(statistic),
	}, nil
}

// ChiSquaredAll tests every categorical column of f against label and
// returns the results sorted by ascending p-value. Columns with a single
// level are skipped.
func ChiSquaredAll(f *dataset.Frame, label string) ([]ChiSquaredResult, error) {
	y, err := f.Categorical(label)
	if err != nil {
		return nil, err
	}

	var out []ChiSquaredResult
	for _, name := range f.Columns() {
		if name == label {
			continue
		}
		if k, _ := f.Kind(name); k != dataset.Categorical {
			continue
		}
		x, _ := f.Categorical(name)
		ct, err := CrossTab(x, y)
		if err != nil {
			return nil, errors.Wrapf(err, "crosstab %s", name)
		}
		if len(ct.RowLevels) < 2 || len(ct.ColLevels) < 2 {
			continue
		}
		res, err := ChiSquared(ct)
		if err != nil {
			return nil, errors.Wrapf(err, "chi-squared %s", name)
		}
		res.Column = name
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PValue < out[j].PValue })
	return out, nil
}

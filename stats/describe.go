// Package stats computes the exploratory tables of the bank marketing data:
// numeric summaries, level frequencies, contingency tables, chi-squared
// independence tests and point-biserial correlations with the outcome.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// Summary is the five-number summary plus mean and sample standard deviation.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarizes values. Quantiles use the empirical CDF.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.ErrEmptyData
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(values) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}
	return s, nil
}

// DescribeFrame summarizes every numeric column of f in column order.
func DescribeFrame(f *dataset.Frame) ([]Summary, error) {
	var out []Summary
	for _, name := range f.Columns() {
		if k, _ := f.Kind(name); k != dataset.Numeric {
			continue
		}
		v, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		s, err := Describe(v)
		if err != nil {
			return nil, errors.Wrapf(err, "describe %s", name)
		}
		s.Column = name
		out = append(out, s)
	}
	return out, nil
}

// LevelFrequency is one row of a frequency table.
type LevelFrequency struct {
	Level        string
	Count        int
	Share        float64
	PositiveRate float64
}

// Frequencies counts every level of column and the share of rows in that
// level whose label equals positive. Levels are sorted by descending count.
func Frequencies(f *dataset.Frame, column, label, positive string) ([]LevelFrequency, error) {
	keys, err := f.Keys(column)
	if err != nil {
		return nil, err
	}
	labels, err := f.Categorical(label)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, errors.ErrEmptyData
	}

	counts := make(map[string]int)
	hits := make(map[string]int)
	for i, k := range keys {
		counts[k]++
		if labels[i] == positive {
			hits[k]++
		}
	}

	out := make([]LevelFrequency, 0, len(counts))
	for level, c := range counts {
		out = append(out, LevelFrequency{
			Level:        level,
			Count:        c,
			Share:        float64(c) / float64(len(keys)),
			PositiveRate: float64(hits[level]) / float64(c),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Level < out[j].Level
	})
	return out, nil
}

package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// Correlation is the point-biserial correlation of a numeric column with the 0/1 label.
type Correlation struct {
	Column string
	R      float64
}

// PointBiserial is Pearson's r between x and a 0/1 vector y.
func PointBiserial(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.NewDimensionError("PointBiserial", len(x), len(y), 0)
	}
	if len(x) < 2 {
		return 0, errors.ErrEmptyData
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return 0, errors.NewValueError("PointBiserial", "y must be 0 or 1")
		}
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		// 定数列
		return 0, nil
	}
	return r, nil
}

// Correlations computes PointBiserial for every numeric column against the
// encoded label, sorted by descending |r|.
func Correlations(f *dataset.Frame, label string, enc dataset.LabelEncoder) ([]Correlation, error) {
	raw, err := f.Categorical(label)
	if err != nil {
		return nil, err
	}
	y, err := enc.Encode(raw)
	if err != nil {
		return nil, err
	}

	var out []Correlation
	for _, name := range f.Columns() {
		if k, _ := f.Kind(name); k != dataset.Numeric {
			continue
		}
		x, _ := f.Numeric(name)
		r, err := PointBiserial(x, y)
		if err != nil {
			return nil, errors.Wrapf(err, "correlate %s", name)
		}
		out = append(out, Correlation{Column: name, R: r})
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	return out, nil
}

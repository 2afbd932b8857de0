package dataset

import (
	"sort"
	"strconv"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// Frame is a column-oriented table. Every column has Len() values.
type Frame struct {
	names       []string
	kinds       map[string]Kind
	numeric     map[string][]float64
	categorical map[string][]string
	n           int
}

// NewFrame creates an empty frame with n rows.
func NewFrame(n int) *Frame {
	return &Frame{
		kinds:       make(map[string]Kind),
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
		n:           n,
	}
}

// AddNumeric appends a numeric column. The frame takes ownership of values.
func (f *Frame) AddNumeric(name string, values []float64) error {
	if err := f.checkNew(name, len(values)); err != nil {
		return err
	}
	f.names = append(f.names, name)
	f.kinds[name] = Numeric
	f.numeric[name] = values
	return nil
}

// AddCategorical appends a categorical column. The frame takes ownership of values.
func (f *Frame) AddCategorical(name string, values []string) error {
	if err := f.checkNew(name, len(values)); err != nil {
		return err
	}
	f.names = append(f.names, name)
	f.kinds[name] = Categorical
	f.categorical[name] = values
	return nil
}

func (f *Frame) checkNew(name string, n int) error {
	if _, ok := f.kinds[name]; ok {
		return errors.NewSchemaError(name, 0, "duplicate column")
	}
	if n != f.n {
		return errors.NewDimensionError("Frame.Add", f.n, n, 0)
	}
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.n }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string { return append([]string(nil), f.names...) }

// Kind returns the storage kind of a column.
func (f *Frame) Kind(name string) (Kind, bool) {
	k, ok := f.kinds[name]
	return k, ok
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	v, ok := f.numeric[name]
	if !ok {
		return nil, f.missing(name, Numeric)
	}
	return v, nil
}

// Categorical returns the values of a categorical column.
func (f *Frame) Categorical(name string) ([]string, error) {
	v, ok := f.categorical[name]
	if !ok {
		return nil, f.missing(name, Categorical)
	}
	return v, nil
}

func (f *Frame) missing(name string, want Kind) error {
	if k, ok := f.kinds[name]; ok {
		return errors.NewSchemaError(name, 0, "column is "+k.String()+", not "+want.String())
	}
	return errors.NewSchemaError(name, 0, "no such column")
}

// Keys renders any column as strings, used for joins and cross tabulation.
func (f *Frame) Keys(name string) ([]string, error) {
	switch f.kinds[name] {
	case Categorical:
		return f.Categorical(name)
	default:
		v, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return out, nil
	}
}

// Levels returns the sorted distinct values of a categorical column.
func (f *Frame) Levels(name string) ([]string, error) {
	v, err := f.Categorical(name)
	if err != nil {
		return nil, err
	}
	return distinct(v), nil
}

func distinct(values []string) []string {
	set := make(map[string]struct{})
	for _, s := range values {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Subset returns a new frame holding the given rows in the given order.
func (f *Frame) Subset(indices []int) *Frame {
	out := NewFrame(len(indices))
	for _, name := range f.names {
		switch f.kinds[name] {
		case Numeric:
			src := f.numeric[name]
			dst := make([]float64, len(indices))
			for i, r := range indices {
				dst[i] = src[r]
			}
			_ = out.AddNumeric(name, dst)
		case Categorical:
			src := f.categorical[name]
			dst := make([]string, len(indices))
			for i, r := range indices {
				dst[i] = src[r]
			}
			_ = out.AddCategorical(name, dst)
		}
	}
	return out
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := NewFrame(f.n)
	for _, name := range f.names {
		if _, ok := skip[name]; ok {
			continue
		}
		out.names = append(out.names, name)
		out.kinds[name] = f.kinds[name]
		if v, ok := f.numeric[name]; ok {
			out.numeric[name] = v
		}
		if v, ok := f.categorical[name]; ok {
			out.categorical[name] = v
		}
	}
	return out
}

// AsCategorical converts a numeric column into levels in place.
// Converting an already categorical column is a no-op.
func (f *Frame) AsCategorical(name string) error {
	if f.kinds[name] == Categorical && f.categorical[name] != nil {
		return nil
	}
	keys, err := f.Keys(name)
	if err != nil {
		return err
	}
	delete(f.numeric, name)
	f.kinds[name] = Categorical
	f.categorical[name] = keys
	return nil
}

// AsNumeric parses a categorical column as numbers in place.
// The first unparsable level is reported as a SchemaError with its 1-based row.
func (f *Frame) AsNumeric(name string) error {
	if f.kinds[name] == Numeric && f.numeric[name] != nil {
		return nil
	}
	src, err := f.Categorical(name)
	if err != nil {
		return err
	}
	dst := make([]float64, len(src))
	for i, s := range src {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.NewSchemaError(name, i+1, "not a number: "+strconv.Quote(s))
		}
		dst[i] = v
	}
	delete(f.categorical, name)
	f.kinds[name] = Numeric
	f.numeric[name] = dst
	return nil
}

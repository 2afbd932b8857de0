package dataset

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// Encoding selects how categorical columns enter the design matrix.
type Encoding int

const (
	// OneHot emits one 0/1 column per training level.
	OneHot Encoding = iota
	// Ordinal emits the index of the level in sorted training order.
	Ordinal
)

func (e Encoding) String() string {
	if e == Ordinal {
		return "ordinal"
	}
	return "onehot"
}

// ParseEncoding accepts "onehot" or "ordinal".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "onehot", "one_hot", "dummy":
		return OneHot, nil
	case "ordinal":
		return Ordinal, nil
	}
	return OneHot, errors.NewValidationError("encoding", "must be onehot or ordinal", s)
}

// Encoder learns categorical levels on training rows and builds design
// matrices. Unseen levels become an all-zero one-hot block or -1 ordinal.
type Encoder struct {
	state *model.StateManager

	encoding  Encoding
	label     string
	labels    LabelEncoder
	dropFirst bool

	columns  []string
	kinds    map[string]Kind
	levels   map[string][]string
	features []string
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithDropFirst drops the first level of each one-hot block.
func WithDropFirst(drop bool) EncoderOption {
	return func(e *Encoder) { e.dropFirst = drop }
}

// WithLabelEncoder overrides the yes/no label mapping.
func WithLabelEncoder(l LabelEncoder) EncoderOption {
	return func(e *Encoder) { e.labels = l }
}

// NewEncoder creates an Encoder for the given label column.
func NewEncoder(encoding Encoding, label string, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		state:    model.NewStateManager(),
		encoding: encoding,
		label:    label,
		labels:   NewLabelEncoder(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit records the feature columns of f and the levels of its categorical columns.
func (e *Encoder) Fit(f *Frame) error {
	if f.Len() == 0 {
		return errors.ErrEmptyData
	}
	if _, ok := f.Kind(e.label); !ok {
		return errors.NewSchemaError(e.label, 0, "label column not in frame")
	}

	e.columns = e.columns[:0]
	e.kinds = make(map[string]Kind)
	e.levels = make(map[string][]string)
	e.features = e.features[:0]
	for _, name := range f.Columns() {
		if name == e.label {
			continue
		}
		kind, _ := f.Kind(name)
		e.columns = append(e.columns, name)
		e.kinds[name] = kind
		if kind == Numeric {
			e.features = append(e.features, name)
			continue
		}
		levels, err := f.Levels(name)
		if err != nil {
			return err
		}
		e.levels[name] = levels
		if e.encoding == Ordinal {
			e.features = append(e.features, name)
			continue
		}
		for i, lvl := range levels {
			if i == 0 && e.dropFirst {
				continue
			}
			e.features = append(e.features, fmt.Sprintf("%s=%s", name, lvl))
		}
	}

	if len(e.features) == 0 {
		return errors.NewValueError("Encoder.Fit", "no feature columns left to encode")
	}

	e.state.SetDimensions(len(e.features), f.Len())
	e.state.SetFitted()
	return nil
}

// Transform returns the n×p design matrix and the 0/1 label vector.
func (e *Encoder) Transform(f *Frame) (*mat.Dense, *mat.VecDense, error) {
	if err := e.state.RequireFitted("Encoder", "Transform"); err != nil {
		return nil, nil, err
	}
	n := f.Len()
	if n == 0 {
		return nil, nil, errors.ErrEmptyData
	}

	X := mat.NewDense(n, len(e.features), nil)
	col := 0
	for _, name := range e.columns {
		kind, ok := f.Kind(name)
		if !ok {
			return nil, nil, errors.NewSchemaError(name, 0, "column missing at transform time")
		}
		if kind != e.kinds[name] {
			return nil, nil, errors.NewSchemaError(name, 0, "column kind changed since fit")
		}

		if kind == Numeric {
			v, _ := f.Numeric(name)
			for i, x := range v {
				X.Set(i, col, x)
			}
			col++
			continue
		}

		v, _ := f.Categorical(name)
		levels := e.levels[name]
		index := make(map[string]int, len(levels))
		for i, lvl := range levels {
			index[lvl] = i
		}

		if e.encoding == Ordinal {
			for i, s := range v {
				pos, ok := index[s]
				if !ok {
					pos = -1
				}
				X.Set(i, col, float64(pos))
			}
			col++
			continue
		}

		offset := 0
		if e.dropFirst {
			offset = 1
		}
		for i, s := range v {
			pos, ok := index[s]
			if !ok || pos < offset {
				continue
			}
			X.Set(i, col+pos-offset, 1)
		}
		col += len(levels) - offset
	}

	raw, err := f.Categorical(e.label)
	if err != nil {
		return nil, nil, err
	}
	y, err := e.labels.Encode(raw)
	if err != nil {
		return nil, nil, err
	}
	return X, mat.NewVecDense(n, y), nil
}

// FeatureNames returns the design-matrix column names.
func (e *Encoder) FeatureNames() []string { return append([]string(nil), e.features...) }

// Levels returns the training levels of a categorical column.
func (e *Encoder) Levels(column string) []string { return e.levels[column] }

// Encoding reports the categorical encoding.
func (e *Encoder) Encoding() Encoding { return e.encoding }

package dataset

import (
	"fmt"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// LabelEncoder maps the two outcome categories to 1 (positive) and 0.
type LabelEncoder struct {
	Positive string
	Negative string
}

// NewLabelEncoder returns the yes/no encoder used by the bank data.
func NewLabelEncoder() LabelEncoder {
	return LabelEncoder{Positive: "yes", Negative: "no"}
}

// Encode converts categories to 1/0. Any other category is an error.
func (e LabelEncoder) Encode(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		switch v {
		case e.Positive:
			out[i] = 1
		case e.Negative:
			out[i] = 0
		default:
			return nil, errors.NewValueError("LabelEncoder.Encode",
				fmt.Sprintf("unknown category %q at index %d", v, i))
		}
	}
	return out, nil
}

// Decode converts 1/0 back to categories. Any other value is an error.
func (e LabelEncoder) Decode(values []float64) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		switch v {
		case 1:
			out[i] = e.Positive
		case 0:
			out[i] = e.Negative
		default:
			return nil, errors.NewValueError("LabelEncoder.Decode",
				fmt.Sprintf("value %g at index %d is neither 0 nor 1", v, i))
		}
	}
	return out, nil
}

// PositiveRate returns the share of positive labels in values.
func (e LabelEncoder) PositiveRate(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	pos := 0
	for _, v := range values {
		if v == e.Positive {
			pos++
		}
	}
	return float64(pos) / float64(len(values))
}

package tree

import (
	"fmt"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// params are the hyperparameters shared by classification and regression trees.
type params struct {
	criterion       string
	maxDepth        int // 0以下は無制限
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0以下は全特徴量
	randomState     uint64
}

// Option configures a tree.
type Option func(*params)

// WithCriterion sets the impurity criterion: "gini" or "entropy" for
// classification, "squared_error" for regression.
func WithCriterion(c string) Option {
	return func(p *params) { p.criterion = c }
}

// WithMaxDepth limits the tree depth. Zero or negative means unlimited.
func WithMaxDepth(d int) Option {
	return func(p *params) { p.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *params) { p.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *params) { p.minSamplesLeaf = n }
}

// WithMaxFeatures sets the number of features drawn at each node.
func WithMaxFeatures(n int) Option {
	return func(p *params) { p.maxFeatures = n }
}

// WithRandomState seeds the feature sampling.
func WithRandomState(seed uint64) Option {
	return func(p *params) { p.randomState = seed }
}

func defaultParams(criterion string, opts []Option) params {
	p := params{
		criterion:       criterion,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p *params) validate(allowed ...string) error {
	ok := false
	for _, c := range allowed {
		if p.criterion == c {
			ok = true
		}
	}
	if !ok {
		return errors.NewValidationError("criterion", fmt.Sprintf("must be one of %v", allowed), p.criterion)
	}
	if p.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be >= 2", p.minSamplesSplit)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", p.minSamplesLeaf)
	}
	return nil
}

func (p *params) get() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         p.criterion,
		"max_depth":         p.maxDepth,
		"min_samples_split": p.minSamplesSplit,
		"min_samples_leaf":  p.minSamplesLeaf,
		"max_features":      p.maxFeatures,
		"random_state":      p.randomState,
	}
}

func (p *params) set(values map[string]interface{}) error {
	for key, value := range values {
		var ok bool
		switch key {
		case "criterion":
			p.criterion, ok = value.(string)
		case "max_depth":
			p.maxDepth, ok = value.(int)
		case "min_samples_split":
			p.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			p.minSamplesLeaf, ok = value.(int)
		case "max_features":
			p.maxFeatures, ok = value.(int)
		case "random_state":
			p.randomState, ok = value.(uint64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

// checkWeights returns unit weights when w is nil.
func checkWeights(op string, w []float64, n int) ([]float64, error) {
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	if len(w) != n {
		return nil, errors.NewDimensionError(op, n, len(w), 0)
	}
	positive := false
	for _, v := range w {
		if v < 0 {
			return nil, errors.NewValidationError("sample_weight", "must be non-negative", v)
		}
		if v > 0 {
			positive = true
		}
	}
	if !positive {
		return nil, errors.NewValueError(op, "sample weights sum to zero")
	}
	return w, nil
}

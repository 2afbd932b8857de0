// Package ensemble provides bagged and boosted tree ensembles built on the
// tree package.
package ensemble

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// params holds the hyperparameters of every ensemble in this package. Each
// constructor sets its own defaults and reports only the keys it uses.
type params struct {
	nEstimators    int
	maxDepth       int // 0以下は無制限
	minSamplesLeaf int
	maxFeatures    string // "sqrt", "log2", "all"
	learningRate   float64
	subsample      float64 // GBMの行サンプリング比率
	randomState    uint64
	nJobs          int // 0以下はCPU数
}

// Option configures an ensemble.
type Option func(*params)

// WithNEstimators sets the number of trees or boosting rounds.
func WithNEstimators(n int) Option {
	return func(p *params) { p.nEstimators = n }
}

// WithMaxDepth limits the depth of every base tree.
func WithMaxDepth(d int) Option {
	return func(p *params) { p.maxDepth = d }
}

// WithMinSamplesLeaf sets the minimum samples per leaf of every base tree.
func WithMinSamplesLeaf(n int) Option {
	return func(p *params) { p.minSamplesLeaf = n }
}

// WithMaxFeatures sets the per-node feature sampling rule: "sqrt", "log2" or "all".
func WithMaxFeatures(rule string) Option {
	return func(p *params) { p.maxFeatures = rule }
}

// WithLearningRate sets the shrinkage applied to each boosting round.
func WithLearningRate(lr float64) Option {
	return func(p *params) { p.learningRate = lr }
}

// WithSubsample sets the share of rows drawn for each boosting round.
func WithSubsample(s float64) Option {
	return func(p *params) { p.subsample = s }
}

// WithRandomState seeds bootstrap draws and feature sampling.
func WithRandomState(seed uint64) Option {
	return func(p *params) { p.randomState = seed }
}

// WithNJobs sets the number of goroutines fitting trees.
func WithNJobs(n int) Option {
	return func(p *params) { p.nJobs = n }
}

func newParams(defaults params, opts []Option) params {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

func (p *params) validate() error {
	if p.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", p.nEstimators)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", p.minSamplesLeaf)
	}
	switch p.maxFeatures {
	case "sqrt", "log2", "all":
	default:
		return errors.NewValidationError("max_features", "must be sqrt, log2 or all", p.maxFeatures)
	}
	if p.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", p.learningRate)
	}
	if p.subsample <= 0 || p.subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", p.subsample)
	}
	return nil
}

// featureCount resolves maxFeatures for nFeatures columns.
func (p *params) featureCount(nFeatures int) int {
	var m int
	switch p.maxFeatures {
	case "sqrt":
		m = int(math.Sqrt(float64(nFeatures)))
	case "log2":
		m = int(math.Log2(float64(nFeatures)))
	default:
		return nFeatures
	}
	return max(1, m)
}

func (p *params) get(keys ...string) map[string]interface{} {
	all := map[string]interface{}{
		"n_estimators":     p.nEstimators,
		"max_depth":        p.maxDepth,
		"min_samples_leaf": p.minSamplesLeaf,
		"max_features":     p.maxFeatures,
		"learning_rate":    p.learningRate,
		"subsample":        p.subsample,
		"random_state":     p.randomState,
		"n_jobs":           p.nJobs,
	}
	out := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		out[k] = all[k]
	}
	return out
}

func (p *params) set(values map[string]interface{}, keys ...string) error {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	for key, value := range values {
		if !allowed[key] {
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		var ok bool
		switch key {
		case "n_estimators":
			p.nEstimators, ok = value.(int)
		case "max_depth":
			p.maxDepth, ok = value.(int)
		case "min_samples_leaf":
			p.minSamplesLeaf, ok = value.(int)
		case "max_features":
			p.maxFeatures, ok = value.(string)
		case "learning_rate":
			p.learningRate, ok = value.(float64)
		case "subsample":
			p.subsample, ok = value.(float64)
		case "random_state":
			p.randomState, ok = value.(uint64)
		case "n_jobs":
			p.nJobs, ok = value.(int)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

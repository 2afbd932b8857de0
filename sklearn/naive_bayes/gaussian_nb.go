package naive_bayes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var _ model.Classifier = (*GaussianNB)(nil)

// GaussianNB models every feature as a class-conditional normal distribution.
type GaussianNB struct {
	state *model.StateManager

	varSmoothing float64   // 最大分散に対する加算分散の比率
	priors       []float64 // 固定の事前確率（nilなら学習）

	classes_    []int
	theta_      *mat.Dense // n_classes × n_features の平均
	var_        *mat.Dense // n_classes × n_features の分散
	classPrior_ []float64
	epsilon_    float64
}

// GaussianNBOption configures a GaussianNB.
type GaussianNBOption func(*GaussianNB)

// WithVarSmoothing sets the share of the largest feature variance added to
// every variance (default 1e-9).
func WithVarSmoothing(v float64) GaussianNBOption {
	return func(nb *GaussianNB) { nb.varSmoothing = v }
}

// WithPriors fixes the class priors.
func WithPriors(p []float64) GaussianNBOption {
	return func(nb *GaussianNB) { nb.priors = p }
}

// NewGaussianNB creates a GaussianNB.
func NewGaussianNB(opts ...GaussianNBOption) *GaussianNB {
	nb := &GaussianNB{
		state:        model.NewStateManager(),
		varSmoothing: 1e-9,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit estimates per-class means and variances.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("GaussianNB.Fit", X, y)
	if err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	if nb.priors != nil {
		if len(nb.priors) != len(classes) {
			return errors.NewDimensionError("GaussianNB.Fit", len(classes), len(nb.priors), 0)
		}
		sum := 0.0
		for _, p := range nb.priors {
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			return errors.NewValidationError("priors", "must sum to 1", nb.priors)
		}
	}

	idx := model.ClassIndex(y, classes)
	k := len(classes)
	rows := make([][]int, k)
	for i, c := range idx {
		rows[c] = append(rows[c], i)
	}

	// ε = var_smoothing × 全特徴量の最大分散
	col := make([]float64, nSamples)
	maxVar := 0.0
	for j := 0; j < nFeatures; j++ {
		mat.Col(col, j, X)
		_, v := stat.PopMeanVariance(col, nil)
		maxVar = math.Max(maxVar, v)
	}
	nb.epsilon_ = nb.varSmoothing * maxVar
	if nb.epsilon_ == 0 {
		nb.epsilon_ = nb.varSmoothing
	}

	nb.theta_ = mat.NewDense(k, nFeatures, nil)
	nb.var_ = mat.NewDense(k, nFeatures, nil)
	nb.classPrior_ = make([]float64, k)
	for c := 0; c < k; c++ {
		vals := make([]float64, len(rows[c]))
		for j := 0; j < nFeatures; j++ {
			for r, i := range rows[c] {
				vals[r] = X.At(i, j)
			}
			m, v := stat.PopMeanVariance(vals, nil)
			nb.theta_.Set(c, j, m)
			nb.var_.Set(c, j, v+nb.epsilon_)
		}
		if nb.priors != nil {
			nb.classPrior_[c] = nb.priors[c]
		} else {
			nb.classPrior_[c] = float64(len(rows[c])) / float64(nSamples)
		}
	}

	nb.classes_ = classes
	nb.state.SetDimensions(nFeatures, nSamples)
	nb.state.SetFitted()
	return nil
}

func (nb *GaussianNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	if err := nb.state.RequireFitted("GaussianNB", "Predict"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := nb.state.RequireFeatures("GaussianNB.Predict", p); err != nil {
		return nil, err
	}

	k := len(nb.classes_)
	jll := mat.NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		logNorm := 0.0
		for j := 0; j < p; j++ {
			logNorm -= 0.5 * math.Log(2*math.Pi*nb.var_.At(c, j))
		}
		base := math.Log(nb.classPrior_[c]) + logNorm
		for i := 0; i < n; i++ {
			s := base
			for j := 0; j < p; j++ {
				d := X.At(i, j) - nb.theta_.At(c, j)
				s -= 0.5 * d * d / nb.var_.At(c, j)
			}
			jll.Set(i, c, s)
		}
	}
	return jll, nil
}

// PredictProba returns posterior class probabilities.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	out := normalizeLog(jll)
	out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, out)
	return out, nil
}

// Predict returns the maximum a posteriori class.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(jll, nb.classes_), nil
}

// Classes returns the sorted class labels.
func (nb *GaussianNB) Classes() []int { return nb.classes_ }

// Score returns the mean accuracy.
func (nb *GaussianNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(pred, y), nil
}

// GetParams returns the hyperparameters.
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"var_smoothing": nb.varSmoothing,
		"priors":        nb.priors,
	}
}

// SetParams sets the hyperparameters.
func (nb *GaussianNB) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "var_smoothing":
			nb.varSmoothing, ok = value.(float64)
		case "priors":
			nb.priors, ok = value.([]float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

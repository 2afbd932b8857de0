package discriminant_analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var _ model.Classifier = (*LinearDiscriminantAnalysis)(nil)

// LinearDiscriminantAnalysis assumes Gaussian classes sharing one covariance.
// The pooled covariance is inverted through its eigendecomposition, so
// collinear one-hot columns are tolerated.
type LinearDiscriminantAnalysis struct {
	state *model.StateManager

	priors []float64
	tol    float64

	classes_   []int
	means_     *mat.Dense // k × p
	coef_      *mat.Dense // p × k
	intercept_ []float64
	rank_      int
}

// LDAOption configures a LinearDiscriminantAnalysis.
type LDAOption func(*LinearDiscriminantAnalysis)

// WithLDAPriors fixes the class priors.
func WithLDAPriors(p []float64) LDAOption {
	return func(l *LinearDiscriminantAnalysis) { l.priors = p }
}

// WithLDATol sets the relative eigenvalue threshold (default 1e-4).
func WithLDATol(tol float64) LDAOption {
	return func(l *LinearDiscriminantAnalysis) { l.tol = tol }
}

// NewLinearDiscriminantAnalysis creates an LDA classifier.
func NewLinearDiscriminantAnalysis(opts ...LDAOption) *LinearDiscriminantAnalysis {
	l := &LinearDiscriminantAnalysis{state: model.NewStateManager(), tol: 1e-4}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit estimates class means and the pooled within-class covariance.
func (l *LinearDiscriminantAnalysis) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("LinearDiscriminantAnalysis.Fit", X, y)
	if err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	k := len(classes)
	if nSamples <= k {
		return errors.NewValueError("LinearDiscriminantAnalysis.Fit", "need more samples than classes")
	}
	idx := model.ClassIndex(y, classes)
	logPrior, err := logPriors(idx, k, l.priors)
	if err != nil {
		return err
	}

	groups := classGroups(X, idx, k)
	means := mat.NewDense(k, nFeatures, nil)
	pooled := mat.NewSymDense(nFeatures, nil)
	for c, g := range groups {
		means.SetRow(c, columnMeans(g))
		pooled.AddSym(pooled, scatter(g))
	}
	pooled.ScaleSym(1/float64(nSamples-k), pooled)

	R, _, dropped, err := whitening(pooled, l.tol)
	if err != nil {
		return errors.Wrap(err, "LinearDiscriminantAnalysis.Fit")
	}

	// Σ⁺ = R Rᵀ、coef = Σ⁺ μᵀ
	var inv mat.Dense
	inv.Mul(R, R.T())
	coef := mat.NewDense(nFeatures, k, nil)
	coef.Mul(&inv, means.T())
	intercept := make([]float64, k)
	for c := 0; c < k; c++ {
		intercept[c] = logPrior[c] - 0.5*mat.Dot(means.RowView(c), coef.ColView(c))
	}

	l.classes_ = classes
	l.means_ = means
	l.coef_ = coef
	l.intercept_ = intercept
	l.rank_ = nFeatures - dropped
	l.state.SetDimensions(nFeatures, nSamples)
	l.state.SetFitted()
	return nil
}

// DecisionFunction returns the linear discriminant of every class.
func (l *LinearDiscriminantAnalysis) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := l.state.RequireFitted("LinearDiscriminantAnalysis", "DecisionFunction"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := l.state.RequireFeatures("LinearDiscriminantAnalysis.DecisionFunction", p); err != nil {
		return nil, err
	}
	scores := mat.NewDense(n, len(l.classes_), nil)
	scores.Mul(X, l.coef_)
	scores.Apply(func(_, j int, v float64) float64 { return v + l.intercept_[j] }, scores)
	return scores, nil
}

// PredictProba returns the softmax of the discriminants.
func (l *LinearDiscriminantAnalysis) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := l.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	softmaxRows(scores)
	return scores, nil
}

// Predict returns the class with the largest discriminant.
func (l *LinearDiscriminantAnalysis) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := l.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(scores, l.classes_), nil
}

// Classes returns the sorted class labels.
func (l *LinearDiscriminantAnalysis) Classes() []int { return l.classes_ }

// Score returns the mean accuracy.
func (l *LinearDiscriminantAnalysis) Score(X, y mat.Matrix) (float64, error) {
	return model.Score(l, X, y)
}

// Means returns the k × p class means.
func (l *LinearDiscriminantAnalysis) Means() mat.Matrix { return l.means_ }

// Rank returns the number of covariance directions kept.
func (l *LinearDiscriminantAnalysis) Rank() int { return l.rank_ }

// GetParams returns the hyperparameters.
func (l *LinearDiscriminantAnalysis) GetParams() map[string]interface{} {
	return map[string]interface{}{"priors": l.priors, "tol": l.tol}
}

// SetParams updates the hyperparameters.
func (l *LinearDiscriminantAnalysis) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "priors":
			l.priors, ok = value.([]float64)
		case "tol":
			l.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

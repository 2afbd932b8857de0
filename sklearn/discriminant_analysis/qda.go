package discriminant_analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var _ model.Classifier = (*QuadraticDiscriminantAnalysis)(nil)

// QuadraticDiscriminantAnalysis fits one Gaussian per class. Each class
// covariance is shrunk towards the identity: (1-reg)·Σ_k + reg·I.
type QuadraticDiscriminantAnalysis struct {
	state *model.StateManager

	regParam float64
	priors   []float64
	tol      float64

	classes_  []int
	means_    [][]float64
	rotation_ []*mat.Dense // Σ_k⁺ = R Rᵀ
	logDet_   []float64
	logPrior_ []float64
}

// QDAOption configures a QuadraticDiscriminantAnalysis.
type QDAOption func(*QuadraticDiscriminantAnalysis)

// WithRegParam sets the shrinkage towards the identity in [0, 1].
func WithRegParam(r float64) QDAOption {
	return func(q *QuadraticDiscriminantAnalysis) { q.regParam = r }
}

// WithQDAPriors fixes the class priors.
func WithQDAPriors(p []float64) QDAOption {
	return func(q *QuadraticDiscriminantAnalysis) { q.priors = p }
}

// NewQuadraticDiscriminantAnalysis creates a QDA classifier.
func NewQuadraticDiscriminantAnalysis(opts ...QDAOption) *QuadraticDiscriminantAnalysis {
	q := &QuadraticDiscriminantAnalysis{state: model.NewStateManager(), tol: 1e-4}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Fit estimates the mean and regularized covariance of every class.
func (q *QuadraticDiscriminantAnalysis) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("QuadraticDiscriminantAnalysis.Fit", X, y)
	if err != nil {
		return err
	}
	if q.regParam < 0 || q.regParam > 1 {
		return errors.NewValidationError("reg_param", "must be in [0, 1]", q.regParam)
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	k := len(classes)
	idx := model.ClassIndex(y, classes)
	logPrior, err := logPriors(idx, k, q.priors)
	if err != nil {
		return err
	}

	groups := classGroups(X, idx, k)
	q.means_ = make([][]float64, k)
	q.rotation_ = make([]*mat.Dense, k)
	q.logDet_ = make([]float64, k)
	for c, g := range groups {
		n, _ := g.Dims()
		if n < 2 {
			return errors.NewValueError("QuadraticDiscriminantAnalysis.Fit",
				fmt.Sprintf("class %d has fewer than two samples", classes[c]))
		}
		q.means_[c] = columnMeans(g)

		cov := scatter(g)
		cov.ScaleSym((1-q.regParam)/float64(n-1), cov)
		for j := 0; j < nFeatures; j++ {
			cov.SetSym(j, j, cov.At(j, j)+q.regParam)
		}
		R, logDet, dropped, err := whitening(cov, q.tol)
		if err != nil {
			return errors.Wrapf(err, "QuadraticDiscriminantAnalysis.Fit class %d", classes[c])
		}
		if dropped > 0 {
			errors.Warn(errors.NewDataConversionWarning("covariance", "pseudo-inverse",
				fmt.Sprintf("class %d: %d collinear directions dropped; consider reg_param", classes[c], dropped)))
		}
		q.rotation_[c] = R
		q.logDet_[c] = logDet
	}

	q.classes_ = classes
	q.logPrior_ = logPrior
	q.state.SetDimensions(nFeatures, nSamples)
	q.state.SetFitted()
	return nil
}

// DecisionFunction returns -½log|Σ_k| - ½ Mahalanobis² + log π_k per class.
func (q *QuadraticDiscriminantAnalysis) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := q.state.RequireFitted("QuadraticDiscriminantAnalysis", "DecisionFunction"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := q.state.RequireFeatures("QuadraticDiscriminantAnalysis.DecisionFunction", p); err != nil {
		return nil, err
	}
	scores := mat.NewDense(n, len(q.classes_), nil)
	centered := mat.NewDense(n, p, nil)
	var z mat.Dense
	for c := range q.classes_ {
		mu := q.means_[c]
		centered.Apply(func(i, j int, _ float64) float64 { return X.At(i, j) - mu[j] }, centered)
		z.Mul(centered, q.rotation_[c])
		for i := 0; i < n; i++ {
			row := z.RawRowView(i)
			d := 0.0
			for _, v := range row {
				d += v * v
			}
			scores.Set(i, c, -0.5*q.logDet_[c]-0.5*d+q.logPrior_[c])
		}
		z.Reset()
	}
	return scores, nil
}

// PredictProba returns the posterior class probabilities.
func (q *QuadraticDiscriminantAnalysis) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := q.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	softmaxRows(scores)
	return scores, nil
}

// Predict returns the maximum a posteriori class.
func (q *QuadraticDiscriminantAnalysis) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := q.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(scores, q.classes_), nil
}

// Classes returns the sorted class labels.
func (q *QuadraticDiscriminantAnalysis) Classes() []int { return q.classes_ }

// Score returns the mean accuracy.
func (q *QuadraticDiscriminantAnalysis) Score(X, y mat.Matrix) (float64, error) {
	return model.Score(q, X, y)
}

// GetParams returns the hyperparameters.
func (q *QuadraticDiscriminantAnalysis) GetParams() map[string]interface{} {
	return map[string]interface{}{"reg_param": q.regParam, "priors": q.priors, "tol": q.tol}
}

// SetParams updates the hyperparameters.
func (q *QuadraticDiscriminantAnalysis) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "reg_param":
			q.regParam, ok = value.(float64)
		case "priors":
			q.priors, ok = value.([]float64)
		case "tol":
			q.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

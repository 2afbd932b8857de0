package linear_model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

var _ model.Classifier = (*LogisticRegression)(nil)

// LogisticRegression implements regularized logistic regression trained by
// full-batch gradient descent. Multiclass problems are fitted one-vs-rest.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2", "l1", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	classWeight  string  // Class weight: "balanced", "none"
	randomState  int64   // Random seed
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping
	learningRate float64 // Initial step size, decays as 1/(1+0.1*iter)

	// Model parameters
	coef_      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per class

	logger log.Logger
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		classWeight:  "none",
		randomState:  0,
		maxIter:      100,
		tol:          1e-4,
		learningRate: 1.0,
		logger:       log.GetLoggerWithName("LogisticRegression"),
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRClassWeight sets "balanced" or "none".
func WithLRClassWeight(w string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.classWeight = w
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRLearningRate sets the initial gradient step.
func WithLRLearningRate(eta float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = eta
	}
}

// WithLRRandomState sets the seed of the weight initialization
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}

	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	lr.classes_ = classes
	lr.nClasses_ = len(classes)
	lr.nFeatures_ = nFeatures
	lr.initializeWeights(nFeatures)

	idx := model.ClassIndex(y, classes)
	var sampleWeight []float64
	if lr.classWeight == "balanced" {
		sampleWeight = model.BalancedWeights(idx, lr.nClasses_)
	}

	Xd := mat.DenseCopyOf(X)
	target := mat.NewVecDense(nSamples, nil)
	if lr.nClasses_ == 2 {
		for i, c := range idx {
			target.SetVec(i, float64(c))
		}
		if err := lr.fitBinary(Xd, target, sampleWeight, 0); err != nil {
			return err
		}
	} else {
		// One-vs-rest
		for k := range lr.classes_ {
			for i, c := range idx {
				v := 0.0
				if c == k {
					v = 1
				}
				target.SetVec(i, v)
			}
			if err := lr.fitBinary(Xd, target, sampleWeight, k); err != nil {
				return errors.Wrapf(err, "class %d", lr.classes_[k])
			}
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	lr.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, lr.nIter_,
	)
	return nil
}

// initializeWeights initializes model weights with small random values
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	rows := 1
	if lr.nClasses_ > 2 {
		rows = lr.nClasses_
	}
	rng := rand.New(rand.NewSource(lr.randomState))
	lr.coef_ = make([][]float64, rows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = rng.NormFloat64() * 0.01
		}
	}
	lr.intercept_ = make([]float64, rows)
	lr.nIter_ = make([]int, rows)
}

// fitBinary runs gradient descent on the (weighted) mean log loss for one
// row of coef_. target holds 0/1 values.
func (lr *LogisticRegression) fitBinary(X *mat.Dense, target *mat.VecDense, sampleWeight []float64, row int) error {
	nSamples, nFeatures := X.Dims()
	weights := mat.NewVecDense(nFeatures, lr.coef_[row])
	intercept := &lr.intercept_[row]

	var totalWeight float64
	if sampleWeight == nil {
		totalWeight = float64(nSamples)
	} else {
		for _, w := range sampleWeight {
			totalWeight += w
		}
	}

	z := mat.NewVecDense(nSamples, nil)
	residual := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)

	for iter := 0; iter < lr.maxIter; iter++ {
		z.MulVec(X, weights)

		var gradIntercept float64
		for i := 0; i < nSamples; i++ {
			e := errors.Sigmoid(z.AtVec(i)+*intercept) - target.AtVec(i)
			if sampleWeight != nil {
				e *= sampleWeight[i]
			}
			residual.SetVec(i, e)
			gradIntercept += e
		}
		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/totalWeight, grad)
		gradIntercept /= totalWeight

		// C·Σloss + ½‖w‖² を平均損失のスケールに揃える
		lambda := 1.0 / (lr.C * totalWeight)
		switch lr.penalty {
		case "l2":
			grad.AddScaledVec(grad, lambda, weights)
		case "l1":
			for j := 0; j < nFeatures; j++ {
				w := weights.AtVec(j)
				if w != 0 {
					grad.SetVec(j, grad.AtVec(j)+lambda*math.Copysign(1, w))
				}
			}
		}

		eta := lr.learningRate / (1.0 + 0.1*float64(iter))
		weights.AddScaledVec(weights, -eta, grad)
		if lr.fitIntercept {
			*intercept -= eta * gradIntercept
		}

		lr.nIter_[row] = iter + 1

		maxGrad := math.Max(math.Abs(gradIntercept), mat.Norm(grad, math.Inf(1)))
		if err := errors.CheckScalar("LogisticRegression.fitBinary", maxGrad, iter); err != nil {
			return err
		}
		if maxGrad < lr.tol {
			return nil
		}
	}

	errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
		"gradient descent did not reach tol; increase max_iter"))
	return nil
}

// decision returns the raw linear scores, one column per coef_ row.
func (lr *LogisticRegression) decision(X mat.Matrix) (*mat.Dense, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.Predict", nFeatures); err != nil {
		return nil, err
	}

	rows := len(lr.coef_)
	W := mat.NewDense(rows, lr.nFeatures_, nil)
	for k := 0; k < rows; k++ {
		W.SetRow(k, lr.coef_[k])
	}
	scores := mat.NewDense(nSamples, rows, nil)
	scores.Mul(X, W.T())
	scores.Apply(func(_, k int, v float64) float64 { return v + lr.intercept_[k] }, scores)
	return scores, nil
}

// DecisionFunction returns the signed distance to the separating hyperplane
// (binary) or one score per class (multiclass).
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return lr.decision(X)
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(proba, lr.classes_), nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.decision(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			p1 := errors.Sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1.0-p1)
			probas.Set(i, 1, p1)
		}
		return probas, nil
	}

	// Multiclass using softmax over the OVR scores
	row := make([]float64, lr.nClasses_)
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, scores)
		lse := errors.LogSumExp(row)
		for k, s := range row {
			probas.Set(i, k, math.Exp(s-lse))
		}
	}
	return probas, nil
}

// Classes returns the sorted class labels.
func (lr *LogisticRegression) Classes() []int { return lr.classes_ }

// Coef returns a copy of the first coefficient row (the binary model).
func (lr *LogisticRegression) Coef() []float64 {
	if len(lr.coef_) == 0 {
		return nil
	}
	return append([]float64(nil), lr.coef_[0]...)
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	return model.Score(lr, X, y)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"class_weight":  lr.classWeight,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"learning_rate": lr.learningRate,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "class_weight":
			lr.classWeight, ok = value.(string)
		case "random_state":
			lr.randomState, ok = value.(int64)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		case "learning_rate":
			lr.learningRate, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

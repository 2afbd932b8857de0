package svm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var _ model.Classifier = (*LinearSVC)(nil)

// LinearSVC minimises the L2-regularized hinge loss with Pegasos stochastic
// sub-gradient steps. The intercept is learned as the weight of a constant
// feature. Multiclass problems are fitted one-vs-rest.
type LinearSVC struct {
	state *model.StateManager

	C           float64
	maxIter     int // エポック数
	classWeight string
	randomState uint64

	classes_ []int
	coef_    [][]float64 // クラスごとの重み（最後の要素が切片）
	platt_   []platt
}

// LinearSVCOption configures a LinearSVC.
type LinearSVCOption func(*LinearSVC)

// WithLinearC sets the inverse regularization strength (default 1).
func WithLinearC(c float64) LinearSVCOption {
	return func(s *LinearSVC) { s.C = c }
}

// WithEpochs sets the number of passes over the training set (default 20).
func WithEpochs(n int) LinearSVCOption {
	return func(s *LinearSVC) { s.maxIter = n }
}

// WithLinearClassWeight sets "balanced" or "none".
func WithLinearClassWeight(w string) LinearSVCOption {
	return func(s *LinearSVC) { s.classWeight = w }
}

// WithLinearRandomState seeds the sampling order.
func WithLinearRandomState(seed uint64) LinearSVCOption {
	return func(s *LinearSVC) { s.randomState = seed }
}

// NewLinearSVC creates a LinearSVC.
func NewLinearSVC(opts ...LinearSVCOption) *LinearSVC {
	s := &LinearSVC{
		state:       model.NewStateManager(),
		C:           1.0,
		maxIter:     20,
		classWeight: "none",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit trains one hinge-loss separator per class (one for binary problems)
// and a Platt sigmoid on its training decision values.
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("LinearSVC.Fit", X, y)
	if err != nil {
		return err
	}
	if s.C <= 0 {
		return errors.NewValidationError("C", "must be positive", s.C)
	}
	if s.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be >= 1", s.maxIter)
	}
	if s.classWeight != "none" && s.classWeight != "balanced" {
		return errors.NewValidationError("class_weight", "must be balanced or none", s.classWeight)
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	idx := model.ClassIndex(y, classes)

	data := rows(X)
	for i := range data {
		data[i] = append(data[i], 1)
	}
	var sw []float64
	if s.classWeight == "balanced" {
		sw = model.BalancedWeights(idx, len(classes))
	}

	nModels := len(classes)
	if nModels == 2 {
		nModels = 1
	}
	rng := rand.New(rand.NewPCG(s.randomState, 0x9e3779b97f4a7c15))
	s.coef_ = make([][]float64, nModels)
	s.platt_ = make([]platt, nModels)
	for k := 0; k < nModels; k++ {
		target := k
		if nModels == 1 {
			target = 1
		}
		signs := make([]float64, nSamples)
		positive := make([]bool, nSamples)
		for i, c := range idx {
			signs[i] = -1
			if c == target {
				signs[i] = 1
				positive[i] = true
			}
		}
		w := s.pegasos(data, signs, sw, rng)
		dec := make([]float64, nSamples)
		for i, row := range data {
			dec[i] = floats.Dot(w, row)
		}
		s.coef_[k] = w
		s.platt_[k] = fitPlatt(dec, positive)
	}

	s.classes_ = classes
	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// pegasos runs maxIter epochs of w ← (1-ηλ)w + η·c·y·x on margin violations,
// with η = 1/(λt), λ = 1/(C·n), followed by projection onto ‖w‖ ≤ 1/√λ.
func (s *LinearSVC) pegasos(data [][]float64, y, sw []float64, rng *rand.Rand) []float64 {
	n := len(data)
	lambda := 1 / (s.C * float64(n))
	radius := 1 / math.Sqrt(lambda)
	w := make([]float64, len(data[0]))
	t := 0
	for epoch := 0; epoch < s.maxIter; epoch++ {
		for _, i := range rng.Perm(n) {
			t++
			eta := 1 / (lambda * float64(t))
			margin := y[i] * floats.Dot(w, data[i])
			floats.Scale(1-eta*lambda, w)
			if margin < 1 {
				c := 1.0
				if sw != nil {
					c = sw[i]
				}
				floats.AddScaled(w, eta*c*y[i], data[i])
			}
			if norm := floats.Norm(w, 2); norm > radius {
				floats.Scale(radius/norm, w)
			}
		}
	}
	return w
}

// DecisionFunction returns the signed margin per model: n×1 for binary
// problems, n×k otherwise.
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := s.state.RequireFitted("LinearSVC", "DecisionFunction"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := s.state.RequireFeatures("LinearSVC.DecisionFunction", p); err != nil {
		return nil, err
	}
	out := mat.NewDense(n, len(s.coef_), nil)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		for k, w := range s.coef_ {
			out.Set(i, k, floats.Dot(w[:p], row)+w[p])
		}
	}
	return out, nil
}

// PredictProba maps decision values through the fitted Platt sigmoids;
// multiclass rows are renormalized.
func (s *LinearSVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := dec.Dims()
	out := mat.NewDense(n, len(s.classes_), nil)
	for i := 0; i < n; i++ {
		if len(s.coef_) == 1 {
			p := s.platt_[0].prob(dec.At(i, 0))
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
			continue
		}
		sum := 0.0
		for k := range s.coef_ {
			p := s.platt_[k].prob(dec.At(i, k))
			out.Set(i, k, p)
			sum += p
		}
		for k := range s.coef_ {
			out.Set(i, k, out.At(i, k)/sum)
		}
	}
	return out, nil
}

// Predict returns the class with the largest margin.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := dec.Dims()
	if len(s.coef_) > 1 {
		return model.ArgmaxClasses(dec, s.classes_), nil
	}
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := s.classes_[0]
		if dec.At(i, 0) > 0 {
			label = s.classes_[1]
		}
		out.Set(i, 0, float64(label))
	}
	return out, nil
}

// Classes returns the sorted class labels.
func (s *LinearSVC) Classes() []int { return s.classes_ }

// Coef returns the weight vector of model k without the intercept.
func (s *LinearSVC) Coef(k int) []float64 {
	w := s.coef_[k]
	return w[:len(w)-1]
}

// Score returns the mean accuracy.
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(pred, y), nil
}

// GetParams returns the hyperparameters.
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            s.C,
		"max_iter":     s.maxIter,
		"class_weight": s.classWeight,
		"random_state": s.randomState,
	}
}

// SetParams updates the hyperparameters.
func (s *LinearSVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "C":
			s.C, ok = value.(float64)
		case "max_iter":
			s.maxIter, ok = value.(int)
		case "class_weight":
			s.classWeight, ok = value.(string)
		case "random_state":
			s.randomState, ok = value.(uint64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

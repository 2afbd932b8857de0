package svm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/core/parallel"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

var _ model.Classifier = (*SVC)(nil)

// SVC is a binary kernel support vector classifier solved with SMO using
// maximal violating pair selection. The full kernel matrix is cached, so
// training sets larger than max_samples are reduced to a stratified random
// subsample of that size first.
type SVC struct {
	state  *model.StateManager
	logger log.Logger

	C           float64
	kernelName  string
	gamma       float64 // 0なら "scale"
	coef0       float64
	degree      int
	tol         float64
	maxIter     int
	maxSamples  int
	randomState uint64

	classes_    []int
	kernel_     Kernel
	supportX_   [][]float64
	dualCoef_   []float64 // α_i·y_i
	intercept_  float64
	platt_      platt
	nIter_      int
	nTrainRows_ int
}

// SVCOption configures an SVC.
type SVCOption func(*SVC)

// WithC sets the box constraint (default 1).
func WithC(c float64) SVCOption {
	return func(s *SVC) { s.C = c }
}

// WithKernel selects "rbf" (default), "linear" or "poly".
func WithKernel(name string) SVCOption {
	return func(s *SVC) { s.kernelName = name }
}

// WithGamma fixes the kernel coefficient. Zero uses 1/(n_features·Var(X)).
func WithGamma(g float64) SVCOption {
	return func(s *SVC) { s.gamma = g }
}

// WithDegree sets the polynomial degree (default 3).
func WithDegree(d int) SVCOption {
	return func(s *SVC) { s.degree = d }
}

// WithCoef0 sets the polynomial offset.
func WithCoef0(c float64) SVCOption {
	return func(s *SVC) { s.coef0 = c }
}

// WithTol sets the KKT violation tolerance (default 1e-3).
func WithTol(tol float64) SVCOption {
	return func(s *SVC) { s.tol = tol }
}

// WithMaxIter bounds the number of SMO steps.
func WithMaxIter(n int) SVCOption {
	return func(s *SVC) { s.maxIter = n }
}

// WithMaxSamples caps the training rows (default 2000).
func WithMaxSamples(n int) SVCOption {
	return func(s *SVC) { s.maxSamples = n }
}

// WithRandomState seeds the subsample.
func WithRandomState(seed uint64) SVCOption {
	return func(s *SVC) { s.randomState = seed }
}

// NewSVC creates an SVC.
func NewSVC(opts ...SVCOption) *SVC {
	s := &SVC{
		state:      model.NewStateManager(),
		logger:     log.GetLoggerWithName("SVC"),
		C:          1.0,
		kernelName: "rbf",
		degree:     3,
		tol:        1e-3,
		maxIter:    100000,
		maxSamples: 2000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// subsample は各クラスの比率を保ったまま maxSamples 行を選ぶ
func (s *SVC) subsample(idx []int, nClasses int) []int {
	n := len(idx)
	if s.maxSamples <= 0 || n <= s.maxSamples {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	rng := rand.New(rand.NewPCG(s.randomState, 0x9e3779b97f4a7c15))
	byClass := make([][]int, nClasses)
	for i, c := range idx {
		byClass[c] = append(byClass[c], i)
	}
	var out []int
	for _, members := range byClass {
		take := max(1, int(math.Round(float64(len(members))*float64(s.maxSamples)/float64(n))))
		rng.Shuffle(len(members), func(a, b int) { members[a], members[b] = members[b], members[a] })
		out = append(out, members[:min(take, len(members))]...)
	}
	return out
}

// Fit solves the dual problem on (a subsample of) X.
func (s *SVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("SVC.Fit", X, y)
	if err != nil {
		return err
	}
	if s.C <= 0 {
		return errors.NewValidationError("C", "must be positive", s.C)
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return errors.NewValidationError("y", "SVC supports binary targets only", classes)
	}
	gamma := s.gamma
	if gamma == 0 {
		gamma = scaleGamma(X)
	}
	kernel, err := newKernel(s.kernelName, gamma, s.coef0, s.degree)
	if err != nil {
		return err
	}

	start := time.Now()
	idx := model.ClassIndex(y, classes)
	picked := s.subsample(idx, len(classes))
	n := len(picked)
	data := make([][]float64, n)
	sign := make([]float64, n)
	all := rows(X)
	for k, i := range picked {
		data[k] = all[i]
		sign[k] = -1
		if idx[i] == 1 {
			sign[k] = 1
		}
	}

	// カーネル行列のキャッシュ
	K := make([][]float64, n)
	parallel.Parallelize(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			K[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				K[i][j] = kernel(data[i], data[j])
			}
		}
	})

	alpha, rho, iter := s.smo(K, sign)
	if iter >= s.maxIter {
		errors.Warn(errors.NewConvergenceWarning("SVC", iter, "SMO did not reach the KKT tolerance"))
	}

	s.supportX_ = s.supportX_[:0]
	s.dualCoef_ = s.dualCoef_[:0]
	for i, a := range alpha {
		if a > 0 {
			s.supportX_ = append(s.supportX_, data[i])
			s.dualCoef_ = append(s.dualCoef_, a*sign[i])
		}
	}
	s.intercept_ = -rho
	s.kernel_ = kernel
	s.classes_ = classes
	s.nIter_ = iter
	s.nTrainRows_ = n

	dec := make([]float64, n)
	positive := make([]bool, n)
	for i := range data {
		f := -rho
		for j, a := range alpha {
			if a > 0 {
				f += a * sign[j] * K[j][i]
			}
		}
		dec[i] = f
		positive[i] = sign[i] > 0
	}
	s.platt_ = fitPlatt(dec, positive)

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	s.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.IterationKey, iter,
		"svm.n_support", len(s.dualCoef_),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// smo minimises ½αᵀQα - eᵀα subject to 0 ≤ α ≤ C and yᵀα = 0, where
// Q_ij = y_i y_j K_ij. It returns α, ρ and the number of steps taken.
func (s *SVC) smo(K [][]float64, y []float64) ([]float64, float64, int) {
	const tau = 1e-12
	n := len(y)
	C := s.C
	alpha := make([]float64, n)
	G := make([]float64, n)
	for i := range G {
		G[i] = -1
	}
	upper := func(t int) bool { return (y[t] > 0 && alpha[t] < C) || (y[t] < 0 && alpha[t] > 0) }
	lower := func(t int) bool { return (y[t] > 0 && alpha[t] > 0) || (y[t] < 0 && alpha[t] < C) }

	iter := 0
	for ; iter < s.maxIter; iter++ {
		i, j := -1, -1
		gMax, gMin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -y[t] * G[t]
			if upper(t) && v > gMax {
				gMax, i = v, t
			}
			if lower(t) && v < gMin {
				gMin, j = v, t
			}
		}
		if i < 0 || j < 0 || gMax-gMin < s.tol {
			break
		}

		Kii, Kjj, Kij := K[i][i], K[j][j], K[i][j]
		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := Kii + Kjj - 2*Kij
			if quad <= 0 {
				quad = tau
			}
			delta := (-G[i] - G[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = C - diff
				}
			} else if alpha[j] > C {
				alpha[j] = C
				alpha[i] = C + diff
			}
		} else {
			quad := Kii + Kjj - 2*Kij
			if quad <= 0 {
				quad = tau
			}
			delta := (G[i] - G[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = sum - C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j] = C
					alpha[i] = sum - C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			G[t] += y[t] * (y[i]*K[i][t]*dI + y[j]*K[j][t]*dJ)
		}
	}

	// ρ: 自由な α の平均、なければ上下界の中点
	ub, lb := math.Inf(1), math.Inf(-1)
	nFree, sumFree := 0, 0.0
	for t := 0; t < n; t++ {
		yG := y[t] * G[t]
		switch {
		case alpha[t] >= C:
			if y[t] < 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		default:
			nFree++
			sumFree += yG
		}
	}
	rho := (ub + lb) / 2
	if nFree > 0 {
		rho = sumFree / float64(nFree)
	}
	return alpha, rho, iter
}

// DecisionFunction returns Σ α_i y_i K(x_i, x) + b per row.
func (s *SVC) DecisionFunction(X mat.Matrix) ([]float64, error) {
	if err := s.state.RequireFitted("SVC", "DecisionFunction"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := s.state.RequireFeatures("SVC.DecisionFunction", p); err != nil {
		return nil, err
	}
	data := rows(X)
	dec := make([]float64, n)
	parallel.ParallelizeWithThreshold(n, 256, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f := s.intercept_
			for k, sv := range s.supportX_ {
				f += s.dualCoef_[k] * s.kernel_(sv, data[i])
			}
			dec[i] = f
		}
	})
	return dec, nil
}

// PredictProba returns Platt-calibrated [1-p, p] rows.
func (s *SVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(dec), 2, nil)
	for i, f := range dec {
		p := s.platt_.prob(f)
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

// Predict returns the class on the side of the separating surface.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(dec), 1, nil)
	for i, f := range dec {
		label := s.classes_[0]
		if f > 0 {
			label = s.classes_[1]
		}
		out.Set(i, 0, float64(label))
	}
	return out, nil
}

// Classes returns the sorted class labels.
func (s *SVC) Classes() []int { return s.classes_ }

// NSupport returns the number of support vectors.
func (s *SVC) NSupport() int { return len(s.dualCoef_) }

// NTrainRows returns the number of rows the solver actually used.
func (s *SVC) NTrainRows() int { return s.nTrainRows_ }

// Score returns the mean accuracy.
func (s *SVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(pred, y), nil
}

// GetParams returns the hyperparameters.
func (s *SVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            s.C,
		"kernel":       s.kernelName,
		"gamma":        s.gamma,
		"coef0":        s.coef0,
		"degree":       s.degree,
		"tol":          s.tol,
		"max_iter":     s.maxIter,
		"max_samples":  s.maxSamples,
		"random_state": s.randomState,
	}
}

// SetParams updates the hyperparameters.
func (s *SVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "C":
			s.C, ok = value.(float64)
		case "kernel":
			s.kernelName, ok = value.(string)
		case "gamma":
			s.gamma, ok = value.(float64)
		case "coef0":
			s.coef0, ok = value.(float64)
		case "degree":
			s.degree, ok = value.(int)
		case "tol":
			s.tol, ok = value.(float64)
		case "max_iter":
			s.maxIter, ok = value.(int)
		case "max_samples":
			s.maxSamples, ok = value.(int)
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

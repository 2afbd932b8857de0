// Package neural_network provides a one-hidden-layer perceptron classifier
// trained with Adam.
package neural_network

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

var _ model.Classifier = (*MLPClassifier)(nil)

// MLPClassifier is a feed-forward network with one hidden layer and a
// softmax output, minimising cross-entropy plus an L2 penalty.
type MLPClassifier struct {
	state  *model.StateManager
	logger log.Logger

	// ハイパーパラメータ
	hiddenUnits        int
	activation         string // "relu", "tanh", "logistic"
	alpha              float64
	batchSize          int
	learningRate       float64
	maxIter            int
	tol                float64
	earlyStopping      bool
	validationFraction float64
	nIterNoChange      int
	randomState        uint64

	// 学習済みパラメータ
	classes_          []int
	w1_, w2_          *mat.Dense
	b1_, b2_          []float64
	lossCurve_        []float64
	validationScores_ []float64
	nIter_            int
}

// MLPOption configures an MLPClassifier.
type MLPOption func(*MLPClassifier)

// WithHiddenUnits sets the hidden layer width (default 100).
func WithHiddenUnits(n int) MLPOption {
	return func(m *MLPClassifier) { m.hiddenUnits = n }
}

// WithActivation sets "relu" (default), "tanh" or "logistic".
func WithActivation(a string) MLPOption {
	return func(m *MLPClassifier) { m.activation = a }
}

// WithAlpha sets the L2 penalty (default 1e-4).
func WithAlpha(a float64) MLPOption {
	return func(m *MLPClassifier) { m.alpha = a }
}

// WithBatchSize sets the mini-batch size (default 200).
func WithBatchSize(n int) MLPOption {
	return func(m *MLPClassifier) { m.batchSize = n }
}

// WithLearningRate sets Adam's step size (default 1e-3).
func WithLearningRate(lr float64) MLPOption {
	return func(m *MLPClassifier) { m.learningRate = lr }
}

// WithMaxIter sets the maximum number of epochs (default 200).
func WithMaxIter(n int) MLPOption {
	return func(m *MLPClassifier) { m.maxIter = n }
}

// WithEarlyStopping holds out a validation share and stops when its
// accuracy stalls for n_iter_no_change epochs.
func WithEarlyStopping(on bool) MLPOption {
	return func(m *MLPClassifier) { m.earlyStopping = on }
}

// WithNIterNoChange sets the patience in epochs (default 10).
func WithNIterNoChange(n int) MLPOption {
	return func(m *MLPClassifier) { m.nIterNoChange = n }
}

// WithRandomState seeds initialization and shuffling.
func WithRandomState(seed uint64) MLPOption {
	return func(m *MLPClassifier) { m.randomState = seed }
}

// NewMLPClassifier creates an MLPClassifier.
func NewMLPClassifier(opts ...MLPOption) *MLPClassifier {
	m := &MLPClassifier{
		state:              model.NewStateManager(),
		logger:             log.GetLoggerWithName("MLPClassifier"),
		hiddenUnits:        100,
		activation:         "relu",
		alpha:              1e-4,
		batchSize:          200,
		learningRate:       1e-3,
		maxIter:            200,
		tol:                1e-4,
		validationFraction: 0.1,
		nIterNoChange:      10,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MLPClassifier) validate() error {
	switch m.activation {
	case "relu", "tanh", "logistic":
	default:
		return errors.NewValidationError("activation", "must be relu, tanh or logistic", m.activation)
	}
	if m.hiddenUnits < 1 {
		return errors.NewValidationError("hidden_units", "must be >= 1", m.hiddenUnits)
	}
	if m.batchSize < 1 {
		return errors.NewValidationError("batch_size", "must be >= 1", m.batchSize)
	}
	if m.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", m.learningRate)
	}
	if m.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be >= 1", m.maxIter)
	}
	return nil
}

// adam holds the first and second moment estimates for one parameter block.
type adam struct {
	m, v []float64
}

func newAdam(n int) *adam { return &adam{m: make([]float64, n), v: make([]float64, n)} }

func (a *adam) step(param, grad []float64, lr float64) {
	const beta1, beta2, eps = 0.9, 0.999, 1e-8
	for i, g := range grad {
		a.m[i] = beta1*a.m[i] + (1-beta1)*g
		a.v[i] = beta2*a.v[i] + (1-beta2)*g*g
		param[i] -= lr * a.m[i] / (math.Sqrt(a.v[i]) + eps)
	}
}

// Fit trains the network with mini-batch Adam.
func (m *MLPClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("MLPClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := m.validate(); err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	k := len(classes)
	idx := model.ClassIndex(y, classes)
	rng := rand.New(rand.NewPCG(m.randomState, 0x9e3779b97f4a7c15))
	start := time.Now()

	train := rng.Perm(nSamples)
	var valid []int
	if m.earlyStopping {
		nValid := int(math.Round(m.validationFraction * float64(nSamples)))
		if nValid < 1 || nValid >= nSamples {
			return errors.NewValueError("MLPClassifier.Fit", "too few samples for early stopping")
		}
		valid, train = train[:nValid], train[nValid:]
	}

	// Glorot一様初期化
	h := m.hiddenUnits
	m.w1_ = glorot(rng, nFeatures, h)
	m.w2_ = glorot(rng, h, k)
	m.b1_ = make([]float64, h)
	m.b2_ = make([]float64, k)
	m.classes_ = classes
	m.lossCurve_ = nil
	m.validationScores_ = nil

	opt := []*adam{
		newAdam(nFeatures * h), newAdam(h), newAdam(h * k), newAdam(k),
	}

	var Xv *mat.Dense
	var yv []int
	if valid != nil {
		Xv, yv = gather(X, idx, valid)
	}

	best := math.Inf(1)
	bestScore := math.Inf(-1)
	var bestParams *snapshot
	noChange := 0
	t := 0
	epoch := 0
	for ; epoch < m.maxIter; epoch++ {
		rng.Shuffle(len(train), func(a, b int) { train[a], train[b] = train[b], train[a] })
		loss := 0.0
		for lo := 0; lo < len(train); lo += m.batchSize {
			hi := min(lo+m.batchSize, len(train))
			Xb, yb := gather(X, idx, train[lo:hi])
			batchLoss, grads := m.backward(Xb, yb)
			loss += batchLoss * float64(hi-lo)

			t++
			lr := m.learningRate * math.Sqrt(1-math.Pow(0.999, float64(t))) / (1 - math.Pow(0.9, float64(t)))
			for b, p := range m.paramBlocks() {
				opt[b].step(p, grads[b], lr)
			}
		}
		loss /= float64(len(train))
		if err := errors.CheckScalar("MLPClassifier.Fit", loss, epoch); err != nil {
			return err
		}
		m.lossCurve_ = append(m.lossCurve_, loss)

		if m.earlyStopping {
			score := m.accuracy(Xv, yv)
			m.validationScores_ = append(m.validationScores_, score)
			if score > bestScore+m.tol {
				bestScore = score
				bestParams = m.snapshot()
				noChange = 0
			} else {
				noChange++
			}
		} else {
			if loss < best-m.tol {
				noChange = 0
			} else {
				noChange++
			}
			best = math.Min(best, loss)
		}
		if noChange >= m.nIterNoChange {
			epoch++
			break
		}
	}
	if bestParams != nil {
		m.restore(bestParams)
	}
	if epoch >= m.maxIter && noChange < m.nIterNoChange {
		errors.Warn(errors.NewConvergenceWarning("MLPClassifier", m.maxIter, "maximum epochs reached"))
	}

	m.nIter_ = epoch
	m.state.SetDimensions(nFeatures, nSamples)
	m.state.SetFitted()
	m.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.EpochKey, epoch,
		log.LossKey, m.lossCurve_[len(m.lossCurve_)-1],
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func glorot(rng *rand.Rand, in, out int) *mat.Dense {
	bound := math.Sqrt(6 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * bound
	}
	return mat.NewDense(in, out, data)
}

// gather copies the listed rows of X and their class indices.
func gather(X mat.Matrix, idx, rows []int) (*mat.Dense, []int) {
	_, p := X.Dims()
	out := mat.NewDense(len(rows), p, nil)
	labels := make([]int, len(rows))
	for r, i := range rows {
		for j := 0; j < p; j++ {
			out.Set(r, j, X.At(i, j))
		}
		labels[r] = idx[i]
	}
	return out, labels
}

func (m *MLPClassifier) paramBlocks() [][]float64 {
	return [][]float64{m.w1_.RawMatrix().Data, m.b1_, m.w2_.RawMatrix().Data, m.b2_}
}

type snapshot struct{ blocks [][]float64 }

func (m *MLPClassifier) snapshot() *snapshot {
	blocks := m.paramBlocks()
	s := &snapshot{blocks: make([][]float64, len(blocks))}
	for i, b := range blocks {
		s.blocks[i] = append([]float64(nil), b...)
	}
	return s
}

func (m *MLPClassifier) restore(s *snapshot) {
	for i, b := range m.paramBlocks() {
		copy(b, s.blocks[i])
	}
}

func (m *MLPClassifier) activate(z float64) float64 {
	switch m.activation {
	case "tanh":
		return math.Tanh(z)
	case "logistic":
		return errors.Sigmoid(z)
	}
	return math.Max(0, z)
}

// derivative はactivation出力aに対する導関数
func (m *MLPClassifier) derivative(a float64) float64 {
	switch m.activation {
	case "tanh":
		return 1 - a*a
	case "logistic":
		return a * (1 - a)
	}
	if a > 0 {
		return 1
	}
	return 0
}

// forward returns the hidden activations and the softmax output.
func (m *MLPClassifier) forward(X mat.Matrix) (*mat.Dense, *mat.Dense) {
	var hidden mat.Dense
	hidden.Mul(X, m.w1_)
	hidden.Apply(func(_, j int, v float64) float64 { return m.activate(v + m.b1_[j]) }, &hidden)

	var out mat.Dense
	out.Mul(&hidden, m.w2_)
	r, c := out.Dims()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := range row {
			row[j] = out.At(i, j) + m.b2_[j]
		}
		lse := errors.LogSumExp(row)
		for j := range row {
			row[j] = math.Exp(row[j] - lse)
		}
		out.SetRow(i, row)
	}
	return &hidden, &out
}

// backward returns the penalized batch loss and the gradients in
// paramBlocks order.
func (m *MLPClassifier) backward(X *mat.Dense, y []int) (float64, [][]float64) {
	n := float64(len(y))
	hidden, out := m.forward(X)

	loss := 0.0
	delta := mat.DenseCopyOf(out)
	for i, c := range y {
		loss -= math.Log(math.Max(out.At(i, c), 1e-15))
		delta.Set(i, c, delta.At(i, c)-1)
	}
	loss /= n
	penalty := 0.0
	for _, w := range []*mat.Dense{m.w1_, m.w2_} {
		for _, v := range w.RawMatrix().Data {
			penalty += v * v
		}
	}
	loss += m.alpha / (2 * n) * penalty
	delta.Scale(1/n, delta)

	var gW2 mat.Dense
	gW2.Mul(hidden.T(), delta)
	gW2.Apply(func(i, j int, v float64) float64 { return v + m.alpha/n*m.w2_.At(i, j) }, &gW2)
	gB2 := colSums(delta)

	var dHidden mat.Dense
	dHidden.Mul(delta, m.w2_.T())
	dHidden.Apply(func(i, j int, v float64) float64 { return v * m.derivative(hidden.At(i, j)) }, &dHidden)

	var gW1 mat.Dense
	gW1.Mul(X.T(), &dHidden)
	gW1.Apply(func(i, j int, v float64) float64 { return v + m.alpha/n*m.w1_.At(i, j) }, &gW1)
	gB1 := colSums(&dHidden)

	return loss, [][]float64{gW1.RawMatrix().Data, gB1, gW2.RawMatrix().Data, gB2}
}

func colSums(a *mat.Dense) []float64 {
	r, c := a.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[j] += a.At(i, j)
		}
	}
	return out
}

func (m *MLPClassifier) accuracy(X *mat.Dense, y []int) float64 {
	_, out := m.forward(X)
	correct := 0
	for i, c := range y {
		row := out.RawRowView(i)
		best := 0
		for j := range row {
			if row[j] > row[best] {
				best = j
			}
		}
		if best == c {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

// PredictProba returns the softmax output.
func (m *MLPClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MLPClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	_, p := X.Dims()
	if err := m.state.RequireFeatures("MLPClassifier.PredictProba", p); err != nil {
		return nil, err
	}
	_, out := m.forward(X)
	return out, nil
}

// Predict returns the most probable class.
func (m *MLPClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(proba, m.classes_), nil
}

// Classes returns the sorted class labels.
func (m *MLPClassifier) Classes() []int { return m.classes_ }

// Score returns the mean accuracy.
func (m *MLPClassifier) Score(X, y mat.Matrix) (float64, error) { return model.Score(m, X, y) }

// LossCurve returns the mean training loss of every epoch.
func (m *MLPClassifier) LossCurve() []float64 { return m.lossCurve_ }

// ValidationScores returns the held-out accuracy per epoch under early stopping.
func (m *MLPClassifier) ValidationScores() []float64 { return m.validationScores_ }

// NIter returns the number of epochs run.
func (m *MLPClassifier) NIter() int { return m.nIter_ }

// GetParams returns the hyperparameters.
func (m *MLPClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"hidden_units":        m.hiddenUnits,
		"activation":          m.activation,
		"alpha":               m.alpha,
		"batch_size":          m.batchSize,
		"learning_rate":       m.learningRate,
		"max_iter":            m.maxIter,
		"tol":                 m.tol,
		"early_stopping":      m.earlyStopping,
		"validation_fraction": m.validationFraction,
		"n_iter_no_change":    m.nIterNoChange,
		"random_state":        m.randomState,
	}
}

// SetParams updates the hyperparameters.
func (m *MLPClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "hidden_units":
			m.hiddenUnits, ok = value.(int)
		case "activation":
			m.activation, ok = value.(string)
		case "alpha":
			m.alpha, ok = value.(float64)
		case "batch_size":
			m.batchSize, ok = value.(int)
		case "learning_rate":
			m.learningRate, ok = value.(float64)
		case "max_iter":
			m.maxIter, ok = value.(int)
		case "tol":
			m.tol, ok = value.(float64)
		case "early_stopping":
			m.earlyStopping, ok = value.(bool)
		case "validation_fraction":
			m.validationFraction, ok = value.(float64)
		case "n_iter_no_change":
			m.nIterNoChange, ok = value.(int)
		case "random_state":
			m.randomState, ok = value.(uint64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

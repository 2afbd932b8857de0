// Package neighbors provides a brute-force k-nearest-neighbours classifier.
package neighbors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/core/parallel"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var _ model.Classifier = (*KNeighborsClassifier)(nil)

// blockRows はクエリを距離行列に展開する際の1ブロックの行数
const blockRows = 64

// KNeighborsClassifier votes among the k closest training rows under the
// Euclidean distance. Squared distances are computed blockwise as
// ‖q‖² + ‖x‖² - 2q·x with a matrix product; queries are spread over workers.
type KNeighborsClassifier struct {
	state *model.StateManager

	nNeighbors int
	weights    string // "uniform" or "distance"
	nJobs      int

	classes_ []int
	fitX_    *mat.Dense
	fitNorm_ []float64
	fitY_    []int
}

// KNNOption configures a KNeighborsClassifier.
type KNNOption func(*KNeighborsClassifier)

// WithNNeighbors sets k (default 5).
func WithNNeighbors(k int) KNNOption {
	return func(c *KNeighborsClassifier) { c.nNeighbors = k }
}

// WithWeights sets "uniform" (default) or "distance".
func WithWeights(w string) KNNOption {
	return func(c *KNeighborsClassifier) { c.weights = w }
}

// WithNJobs sets the number of query workers; zero or less uses every CPU.
func WithNJobs(n int) KNNOption {
	return func(c *KNeighborsClassifier) { c.nJobs = n }
}

// NewKNeighborsClassifier creates a classifier.
func NewKNeighborsClassifier(opts ...KNNOption) *KNeighborsClassifier {
	c := &KNeighborsClassifier{
		state:      model.NewStateManager(),
		nNeighbors: 5,
		weights:    "uniform",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit stores the training set.
func (c *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("KNeighborsClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if c.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be >= 1", c.nNeighbors)
	}
	if c.nNeighbors > nSamples {
		return errors.NewValidationError("n_neighbors",
			fmt.Sprintf("must be <= n_samples (%d)", nSamples), c.nNeighbors)
	}
	if c.weights != "uniform" && c.weights != "distance" {
		return errors.NewValidationError("weights", "must be uniform or distance", c.weights)
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}

	c.fitX_ = mat.DenseCopyOf(X)
	c.fitNorm_ = rowNorms(c.fitX_)
	c.fitY_ = model.ClassIndex(y, classes)
	c.classes_ = classes
	c.state.SetDimensions(nFeatures, nSamples)
	c.state.SetFitted()
	return nil
}

func rowNorms(X *mat.Dense) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := range out {
		row := X.RawRowView(i)
		for _, v := range row {
			out[i] += v * v
		}
	}
	return out
}

// KNeighbors returns, per query row, the distances and training indices of
// the k nearest rows ordered from nearest. Equal distances keep the lower
// training index first.
func (c *KNeighborsClassifier) KNeighbors(X mat.Matrix) ([][]float64, [][]int, error) {
	if err := c.state.RequireFitted("KNeighborsClassifier", "KNeighbors"); err != nil {
		return nil, nil, err
	}
	n, p := X.Dims()
	if err := c.state.RequireFeatures("KNeighborsClassifier.KNeighbors", p); err != nil {
		return nil, nil, err
	}
	Q := mat.DenseCopyOf(X)
	qNorm := rowNorms(Q)
	k := c.nNeighbors
	dist := make([][]float64, n)
	ind := make([][]int, n)

	nBlocks := (n + blockRows - 1) / blockRows
	parallel.ParallelizeN(nBlocks, parallel.Workers(c.nJobs), func(start, end int) {
		var prod mat.Dense
		for b := start; b < end; b++ {
			lo, hi := b*blockRows, min((b+1)*blockRows, n)
			prod.Reset()
			prod.Mul(Q.Slice(lo, hi, 0, p), c.fitX_.T())
			for i := lo; i < hi; i++ {
				row := prod.RawRowView(i - lo)
				d, idx := make([]float64, 0, k), make([]int, 0, k)
				for j, dot := range row {
					sq := math.Max(0, qNorm[i]+c.fitNorm_[j]-2*dot)
					d, idx = insert(d, idx, sq, j, k)
				}
				for m := range d {
					d[m] = math.Sqrt(d[m])
				}
				dist[i], ind[i] = d, idx
			}
		}
	})
	return dist, ind, nil
}

// insert keeps the k smallest (distance, index) pairs sorted ascending.
func insert(d []float64, idx []int, v float64, j, k int) ([]float64, []int) {
	if len(d) == k && v >= d[k-1] {
		return d, idx
	}
	pos := len(d)
	for pos > 0 && d[pos-1] > v {
		pos--
	}
	if len(d) < k {
		d = append(d, 0)
		idx = append(idx, 0)
	}
	copy(d[pos+1:], d[pos:len(d)-1])
	copy(idx[pos+1:], idx[pos:len(idx)-1])
	d[pos], idx[pos] = v, j
	return d, idx
}

// PredictProba returns the (optionally inverse-distance weighted) share of
// neighbour votes per class. With distance weights, exact matches outvote
// every other neighbour.
func (c *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	dist, ind, err := c.KNeighbors(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(dist), len(c.classes_), nil)
	votes := make([]float64, len(c.classes_))
	for i := range dist {
		for j := range votes {
			votes[j] = 0
		}
		exact := false
		if c.weights == "distance" {
			for _, d := range dist[i] {
				if d == 0 {
					exact = true
				}
			}
		}
		total := 0.0
		for m, j := range ind[i] {
			w := 1.0
			if c.weights == "distance" {
				switch {
				case exact && dist[i][m] == 0:
					w = 1
				case exact:
					w = 0
				default:
					w = 1 / dist[i][m]
				}
			}
			votes[c.fitY_[j]] += w
			total += w
		}
		for j, v := range votes {
			out.Set(i, j, v/total)
		}
	}
	return out, nil
}

// Predict returns the class with the most votes; ties go to the smaller label.
func (c *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(proba, c.classes_), nil
}

// Classes returns the sorted class labels.
func (c *KNeighborsClassifier) Classes() []int { return c.classes_ }

// Score returns the mean accuracy.
func (c *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(pred, y), nil
}

// GetParams returns the hyperparameters.
func (c *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": c.nNeighbors,
		"weights":     c.weights,
		"n_jobs":      c.nJobs,
	}
}

// SetParams updates the hyperparameters.
func (c *KNeighborsClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "n_neighbors":
			c.nNeighbors, ok = value.(int)
		case "weights":
			c.weights, ok = value.(string)
		case "n_jobs":
			c.nJobs, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

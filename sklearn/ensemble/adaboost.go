package ensemble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/sklearn/tree"
)

var _ model.Classifier = (*AdaBoostClassifier)(nil)

// AdaBoostClassifier boosts weighted decision stumps with the multiclass
// SAMME update.
type AdaBoostClassifier struct {
	params
	state *model.StateManager

	classes_          []int
	estimators_       []*tree.DecisionTreeClassifier
	estimatorWeights_ []float64
	estimatorErrors_  []float64
}

// NewAdaBoostClassifier creates a booster of 50 depth-one trees.
func NewAdaBoostClassifier(opts ...Option) *AdaBoostClassifier {
	p := newParams(params{
		nEstimators:    50,
		maxDepth:       1,
		minSamplesLeaf: 1,
		maxFeatures:    "all",
		learningRate:   1,
		subsample:      1,
	}, opts)
	return &AdaBoostClassifier{params: p, state: model.NewStateManager()}
}

// Fit runs up to n_estimators boosting rounds. Boosting stops early when a
// stump fits the weighted sample perfectly.
func (ab *AdaBoostClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("AdaBoostClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := ab.validate(); err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	k := float64(len(classes))

	w := make([]float64, nSamples)
	for i := range w {
		w[i] = 1 / float64(nSamples)
	}

	ab.estimators_ = nil
	ab.estimatorWeights_ = nil
	ab.estimatorErrors_ = nil
	for m := 0; m < ab.nEstimators; m++ {
		stump := tree.NewDecisionTreeClassifier(
			tree.WithMaxDepth(ab.maxDepth),
			tree.WithMinSamplesLeaf(ab.minSamplesLeaf),
		)
		if err := stump.FitWeighted(X, y, w); err != nil {
			return err
		}
		pred, err := stump.Predict(X)
		if err != nil {
			return err
		}

		miss := make([]bool, nSamples)
		errW, total := 0.0, 0.0
		for i := 0; i < nSamples; i++ {
			total += w[i]
			if pred.At(i, 0) != y.At(i, 0) {
				miss[i] = true
				errW += w[i]
			}
		}
		errRate := errW / total

		if errRate <= 0 {
			ab.estimators_ = append(ab.estimators_, stump)
			ab.estimatorWeights_ = append(ab.estimatorWeights_, 1)
			ab.estimatorErrors_ = append(ab.estimatorErrors_, 0)
			break
		}
		// 乱択より悪い弱学習器は採用しない
		if errRate >= 1-1/k {
			if len(ab.estimators_) == 0 {
				return errors.NewModelError("AdaBoostClassifier.Fit", "weak learner",
					errors.Newf("first stump error %.3f is no better than chance", errRate))
			}
			break
		}

		alpha := ab.learningRate * (math.Log((1-errRate)/errRate) + math.Log(k-1))
		ab.estimators_ = append(ab.estimators_, stump)
		ab.estimatorWeights_ = append(ab.estimatorWeights_, alpha)
		ab.estimatorErrors_ = append(ab.estimatorErrors_, errRate)

		sum := 0.0
		for i := range w {
			if miss[i] {
				w[i] *= math.Exp(alpha)
			}
			sum += w[i]
		}
		for i := range w {
			w[i] /= sum
		}
	}

	ab.classes_ = classes
	ab.state.SetDimensions(nFeatures, nSamples)
	ab.state.SetFitted()
	return nil
}

// DecisionFunction returns the alpha-weighted votes per class, normalized by
// the total alpha so every row sums to one.
func (ab *AdaBoostClassifier) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := ab.state.RequireFitted("AdaBoostClassifier", "DecisionFunction"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := ab.state.RequireFeatures("AdaBoostClassifier.DecisionFunction", p); err != nil {
		return nil, err
	}
	pos := make(map[int]int, len(ab.classes_))
	for i, c := range ab.classes_ {
		pos[c] = i
	}
	votes := mat.NewDense(n, len(ab.classes_), nil)
	totalAlpha := 0.0
	for m, stump := range ab.estimators_ {
		pred, err := stump.Predict(X)
		if err != nil {
			return nil, err
		}
		alpha := ab.estimatorWeights_[m]
		totalAlpha += alpha
		for i := 0; i < n; i++ {
			c := pos[int(pred.At(i, 0))]
			votes.Set(i, c, votes.At(i, c)+alpha)
		}
	}
	votes.Scale(1/totalAlpha, votes)
	return votes, nil
}

// PredictProba returns the normalized vote shares.
func (ab *AdaBoostClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return ab.DecisionFunction(X)
}

// Predict returns the class with the largest weighted vote.
func (ab *AdaBoostClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	votes, err := ab.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(votes, ab.classes_), nil
}

// Classes returns the sorted class labels.
func (ab *AdaBoostClassifier) Classes() []int { return ab.classes_ }

// Score returns the mean accuracy.
func (ab *AdaBoostClassifier) Score(X, y mat.Matrix) (float64, error) { return model.Score(ab, X, y) }

// EstimatorWeights returns the alpha of every kept round.
func (ab *AdaBoostClassifier) EstimatorWeights() []float64 { return ab.estimatorWeights_ }

// EstimatorErrors returns the weighted training error of every kept round.
func (ab *AdaBoostClassifier) EstimatorErrors() []float64 { return ab.estimatorErrors_ }

var adaKeys = []string{"n_estimators", "max_depth", "learning_rate"}

// GetParams returns the hyperparameters.
func (ab *AdaBoostClassifier) GetParams() map[string]interface{} { return ab.params.get(adaKeys...) }

// SetParams updates the hyperparameters.
func (ab *AdaBoostClassifier) SetParams(p map[string]interface{}) error {
	if err := ab.params.set(p, adaKeys...); err != nil {
		return err
	}
	if ab.maxDepth < 1 {
		return errors.NewValidationError("max_depth", fmt.Sprintf("boosting needs bounded trees, got %d", ab.maxDepth), ab.maxDepth)
	}
	return nil
}

package ensemble

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
	"github.com/YuminosukeSato/termdeposit/sklearn/tree"
)

var _ model.Classifier = (*GradientBoostingClassifier)(nil)

// GradientBoostingClassifier fits regression trees to the negative gradient
// of the binary log-loss. Leaf values take one Newton step.
type GradientBoostingClassifier struct {
	params
	state  *model.StateManager
	logger log.Logger

	classes_    []int
	initScore_  float64
	estimators_ []*tree.DecisionTreeRegressor
	trainLoss_  []float64
}

// NewGradientBoostingClassifier creates a booster of 100 depth-three trees
// with learning rate 0.1.
func NewGradientBoostingClassifier(opts ...Option) *GradientBoostingClassifier {
	p := newParams(params{
		nEstimators:    100,
		maxDepth:       3,
		minSamplesLeaf: 1,
		maxFeatures:    "all",
		learningRate:   0.1,
		subsample:      1,
	}, opts)
	return &GradientBoostingClassifier{
		params: p,
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("GradientBoostingClassifier"),
	}
}

// Fit runs n_estimators boosting stages. Only binary targets are supported.
func (gb *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("GradientBoostingClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := gb.validate(); err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return errors.NewValidationError("y", "log-loss boosting needs exactly two classes", classes)
	}

	start := time.Now()
	target := make([]float64, nSamples)
	pos := 0.0
	for i := range target {
		if int(y.At(i, 0)) == classes[1] {
			target[i] = 1
			pos++
		}
	}
	// 初期スコアは事前確率の対数オッズ
	prior := errors.ClipValue(pos/float64(nSamples), 1e-15, 1-1e-15)
	gb.initScore_ = math.Log(prior / (1 - prior))

	score := make([]float64, nSamples)
	for i := range score {
		score[i] = gb.initScore_
	}
	residual := mat.NewDense(nSamples, 1, nil)
	rng := rand.New(rand.NewPCG(gb.randomState, 0x9e3779b97f4a7c15))
	gb.estimators_ = make([]*tree.DecisionTreeRegressor, 0, gb.nEstimators)
	gb.trainLoss_ = make([]float64, 0, gb.nEstimators)

	for m := 0; m < gb.nEstimators; m++ {
		for i := range score {
			residual.Set(i, 0, target[i]-errors.Sigmoid(score[i]))
		}
		w := gb.subsampleWeights(rng, nSamples)

		reg := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(gb.maxDepth),
			tree.WithMinSamplesLeaf(gb.minSamplesLeaf),
		)
		if err := reg.FitWeighted(X, residual, w); err != nil {
			return err
		}
		leaves, err := reg.Apply(X)
		if err != nil {
			return err
		}

		// γ = Σr / Σp(1-p)（サブサンプル内の行のみ）
		num := make(map[int]float64)
		den := make(map[int]float64)
		for i, leaf := range leaves {
			if w[i] == 0 {
				continue
			}
			p := errors.Sigmoid(score[i])
			num[leaf] += residual.At(i, 0)
			den[leaf] += p * (1 - p)
		}
		for leaf, g := range num {
			reg.SetLeafValue(leaf, g/math.Max(den[leaf], 1e-10))
		}

		loss := 0.0
		for i, leaf := range leaves {
			score[i] += gb.learningRate * reg.LeafValue(leaf)
			p := errors.ClipValue(errors.Sigmoid(score[i]), 1e-15, 1-1e-15)
			loss -= target[i]*math.Log(p) + (1-target[i])*math.Log(1-p)
		}
		loss /= float64(nSamples)
		if err := errors.CheckScalar("GradientBoostingClassifier.Fit", loss, m); err != nil {
			return err
		}
		gb.estimators_ = append(gb.estimators_, reg)
		gb.trainLoss_ = append(gb.trainLoss_, loss)
	}

	gb.classes_ = classes
	gb.state.SetDimensions(nFeatures, nSamples)
	gb.state.SetFitted()
	gb.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.LossKey, gb.trainLoss_[len(gb.trainLoss_)-1],
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// subsampleWeights draws round(subsample·n) rows without replacement.
func (gb *GradientBoostingClassifier) subsampleWeights(rng *rand.Rand, n int) []float64 {
	w := make([]float64, n)
	if gb.subsample >= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	k := max(1, int(math.Round(gb.subsample*float64(n))))
	for _, i := range rng.Perm(n)[:k] {
		w[i] = 1
	}
	return w
}

// DecisionFunction returns the raw log-odds of the positive class.
func (gb *GradientBoostingClassifier) DecisionFunction(X mat.Matrix) ([]float64, error) {
	if err := gb.state.RequireFitted("GradientBoostingClassifier", "DecisionFunction"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := gb.state.RequireFeatures("GradientBoostingClassifier.DecisionFunction", p); err != nil {
		return nil, err
	}
	score := make([]float64, n)
	for i := range score {
		score[i] = gb.initScore_
	}
	for _, reg := range gb.estimators_ {
		leaves, err := reg.Apply(X)
		if err != nil {
			return nil, err
		}
		for i, leaf := range leaves {
			score[i] += gb.learningRate * reg.LeafValue(leaf)
		}
	}
	return score, nil
}

// PredictProba returns [1-p, p] per row.
func (gb *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	score, err := gb.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(score), 2, nil)
	for i, s := range score {
		p := errors.Sigmoid(s)
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

// Predict thresholds the positive probability at 0.5.
func (gb *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := gb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(proba, gb.classes_), nil
}

// Classes returns the sorted class labels.
func (gb *GradientBoostingClassifier) Classes() []int { return gb.classes_ }

// Score returns the mean accuracy.
func (gb *GradientBoostingClassifier) Score(X, y mat.Matrix) (float64, error) {
	return model.Score(gb, X, y)
}

// TrainLoss returns the mean training log-loss after every stage.
func (gb *GradientBoostingClassifier) TrainLoss() []float64 { return gb.trainLoss_ }

var gbmKeys = []string{"n_estimators", "max_depth", "min_samples_leaf", "learning_rate", "subsample", "random_state"}

// GetParams returns the hyperparameters.
func (gb *GradientBoostingClassifier) GetParams() map[string]interface{} {
	return gb.params.get(gbmKeys...)
}

// SetParams updates the hyperparameters.
func (gb *GradientBoostingClassifier) SetParams(p map[string]interface{}) error {
	return gb.params.set(p, gbmKeys...)
}

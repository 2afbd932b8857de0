package ensemble

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/core/parallel"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
	"github.com/YuminosukeSato/termdeposit/sklearn/tree"
)

var (
	_ model.Classifier = (*RandomForestClassifier)(nil)
	_ model.Classifier = (*BaggingClassifier)(nil)
)

// baggedTrees fits bootstrap replicas of a decision tree in parallel and
// averages their class distributions.
type baggedTrees struct {
	params
	name   string
	state  *model.StateManager
	logger log.Logger

	classes_            []int
	estimators_         []*tree.DecisionTreeClassifier
	featureImportances_ []float64
}

func newBaggedTrees(name string, p params) baggedTrees {
	return baggedTrees{
		params: p,
		name:   name,
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName(name),
	}
}

// bootstrap は n 回の復元抽出の回数を重みとして返す
func bootstrap(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[rng.IntN(n)]++
	}
	return w
}

func (b *baggedTrees) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput(b.name+".Fit", X, y)
	if err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}

	start := time.Now()
	m := b.featureCount(nFeatures)
	trees := make([]*tree.DecisionTreeClassifier, b.nEstimators)
	err = parallel.ForEach(b.nEstimators, parallel.Workers(b.nJobs), func(t int) error {
		seed := b.randomState + uint64(t)
		dt := tree.NewDecisionTreeClassifier(
			tree.WithMaxDepth(b.maxDepth),
			tree.WithMinSamplesLeaf(b.minSamplesLeaf),
			tree.WithMaxFeatures(m),
			tree.WithRandomState(seed),
		)
		if err := dt.FitWeighted(X, y, bootstrap(nSamples, seed)); err != nil {
			return err
		}
		trees[t] = dt
		return nil
	})
	if err != nil {
		return err
	}

	imp := make([]float64, nFeatures)
	for _, dt := range trees {
		for j, v := range dt.GetFeatureImportances() {
			imp[j] += v / float64(len(trees))
		}
	}

	b.classes_ = classes
	b.estimators_ = trees
	b.featureImportances_ = imp
	b.state.SetDimensions(nFeatures, nSamples)
	b.state.SetFitted()
	b.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// PredictProba averages the leaf distributions of all trees.
func (b *baggedTrees) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := b.state.RequireFitted(b.name, "PredictProba"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := b.state.RequireFeatures(b.name+".PredictProba", p); err != nil {
		return nil, err
	}
	out := mat.NewDense(n, len(b.classes_), nil)
	for _, dt := range b.estimators_ {
		proba, err := dt.PredictProba(X)
		if err != nil {
			return nil, err
		}
		out.Add(out, proba)
	}
	out.Scale(1/float64(len(b.estimators_)), out)
	return out, nil
}

func (b *baggedTrees) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := b.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(proba, b.classes_), nil
}

func (b *baggedTrees) Classes() []int { return b.classes_ }

// Score returns the mean accuracy.
func (b *baggedTrees) Score(X, y mat.Matrix) (float64, error) { return model.Score(b, X, y) }

// GetFeatureImportances returns the mean importance over all trees.
func (b *baggedTrees) GetFeatureImportances() []float64 { return b.featureImportances_ }

// NEstimators returns the number of fitted trees.
func (b *baggedTrees) NEstimators() int { return len(b.estimators_) }

var forestKeys = []string{"n_estimators", "max_depth", "min_samples_leaf", "max_features", "random_state", "n_jobs"}

func (b *baggedTrees) GetParams() map[string]interface{} { return b.params.get(forestKeys...) }

func (b *baggedTrees) SetParams(p map[string]interface{}) error {
	return b.params.set(p, forestKeys...)
}

// RandomForestClassifier grows fully grown trees on bootstrap samples and
// draws sqrt(n_features) candidate features at every node.
type RandomForestClassifier struct {
	baggedTrees
}

// NewRandomForestClassifier creates a forest of 100 trees.
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	p := newParams(params{
		nEstimators:    100,
		minSamplesLeaf: 1,
		maxFeatures:    "sqrt",
		learningRate:   1,
		subsample:      1,
	}, opts)
	return &RandomForestClassifier{newBaggedTrees("RandomForestClassifier", p)}
}

// BaggingClassifier averages full decision trees fitted on bootstrap
// samples; every node considers every feature.
type BaggingClassifier struct {
	baggedTrees
}

// NewBaggingClassifier creates a bagging ensemble of 10 trees.
func NewBaggingClassifier(opts ...Option) *BaggingClassifier {
	p := newParams(params{
		nEstimators:    10,
		minSamplesLeaf: 1,
		maxFeatures:    "all",
		learningRate:   1,
		subsample:      1,
	}, opts)
	return &BaggingClassifier{newBaggedTrees("BaggingClassifier", p)}
}

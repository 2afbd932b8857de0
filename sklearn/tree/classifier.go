package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var (
	_ model.Classifier         = (*DecisionTreeClassifier)(nil)
	_ model.WeightedFitter     = (*DecisionTreeClassifier)(nil)
	_ model.FeatureImportancer = (*DecisionTreeClassifier)(nil)
)

// DecisionTreeClassifier is a CART classifier with gini or entropy splits.
type DecisionTreeClassifier struct {
	params
	state *model.StateManager

	classes_            []int
	nClasses_           int
	nodes_              []node
	featureImportances_ []float64
	depth_              int
	nLeaves_            int
}

// NewDecisionTreeClassifier creates a classifier (criterion "gini",
// min_samples_split 2, min_samples_leaf 1, unlimited depth).
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	return &DecisionTreeClassifier{
		params: defaultParams("gini", opts),
		state:  model.NewStateManager(),
	}
}

// Fit grows the tree with unit sample weights.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	return dt.FitWeighted(X, y, nil)
}

// FitWeighted grows the tree; samples with zero weight are ignored.
func (dt *DecisionTreeClassifier) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	nSamples, nFeatures, err := model.ValidateFitInput("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := dt.validate("gini", "entropy"); err != nil {
		return err
	}
	w, err := checkWeights("DecisionTreeClassifier.Fit", sampleWeight, nSamples)
	if err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil && !errors.Is(err, errors.ErrSingleClass) {
		return err
	}

	yIdx := model.ClassIndex(y, classes)
	entropy := dt.criterion == "entropy"
	b := newBuilder(columns(X), w, dt.params, func() nodeStats {
		return &classStats{y: yIdx, counts: make([]float64, len(classes)), entropy: entropy}
	})
	b.build()

	dt.classes_ = classes
	dt.nClasses_ = len(classes)
	dt.nodes_ = b.nodes
	dt.featureImportances_ = b.featureImportances()
	dt.depth_ = b.depth
	dt.nLeaves_ = b.nLeaves()
	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// columns copies X into column-major slices.
func columns(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = make([]float64, r)
		mat.Col(cols[j], j, X)
	}
	return cols
}

// PredictProba returns the weighted class distribution of the leaf each
// sample falls in.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := dt.state.RequireFeatures("DecisionTreeClassifier.PredictProba", p); err != nil {
		return nil, err
	}
	out := mat.NewDense(n, dt.nClasses_, nil)
	for i := 0; i < n; i++ {
		leaf := leafFor(dt.nodes_, func(f int) float64 { return X.At(i, f) })
		out.SetRow(i, dt.nodes_[leaf].value)
	}
	return out, nil
}

// Predict returns the majority class of each sample's leaf.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Predict"); err != nil {
		return nil, err
	}
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(proba, dt.classes_), nil
}

// Score returns the mean accuracy.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	return model.Score(dt, X, y)
}

// Classes returns the sorted class labels.
func (dt *DecisionTreeClassifier) Classes() []int { return dt.classes_ }

// GetFeatureImportances returns the normalized impurity decrease per feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 { return dt.featureImportances_ }

// GetDepth returns the depth of the fitted tree (a single leaf has depth 0).
func (dt *DecisionTreeClassifier) GetDepth() int { return dt.depth_ }

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int { return dt.nLeaves_ }

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} { return dt.params.get() }

// SetParams updates the hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(p map[string]interface{}) error { return dt.params.set(p) }

package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
)

// DecisionTreeRegressor is a CART regressor minimising squared error.
// Gradient boosting fits one per stage and rewrites its leaf values.
type DecisionTreeRegressor struct {
	params
	state *model.StateManager

	nodes_              []node
	featureImportances_ []float64
	depth_              int
}

// NewDecisionTreeRegressor creates a regressor (criterion "squared_error").
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	return &DecisionTreeRegressor{
		params: defaultParams("squared_error", opts),
		state:  model.NewStateManager(),
	}
}

// Fit grows the tree with unit sample weights.
func (r *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	return r.FitWeighted(X, y, nil)
}

// FitWeighted grows the tree on continuous targets.
func (r *DecisionTreeRegressor) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	nSamples, nFeatures, err := model.ValidateFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := r.validate("squared_error"); err != nil {
		return err
	}
	w, err := checkWeights("DecisionTreeRegressor.Fit", sampleWeight, nSamples)
	if err != nil {
		return err
	}
	target := make([]float64, nSamples)
	mat.Col(target, 0, y)

	b := newBuilder(columns(X), w, r.params, func() nodeStats {
		return &regStats{y: target}
	})
	b.build()

	r.nodes_ = b.nodes
	r.featureImportances_ = b.featureImportances()
	r.depth_ = b.depth
	r.state.SetDimensions(nFeatures, nSamples)
	r.state.SetFitted()
	return nil
}

// Apply returns the leaf id reached by every row of X.
func (r *DecisionTreeRegressor) Apply(X mat.Matrix) ([]int, error) {
	if err := r.state.RequireFitted("DecisionTreeRegressor", "Apply"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := r.state.RequireFeatures("DecisionTreeRegressor.Apply", p); err != nil {
		return nil, err
	}
	leaves := make([]int, n)
	for i := range leaves {
		leaves[i] = leafFor(r.nodes_, func(f int) float64 { return X.At(i, f) })
	}
	return leaves, nil
}

// SetLeafValue overwrites the prediction stored in a leaf.
func (r *DecisionTreeRegressor) SetLeafValue(leaf int, v float64) {
	r.nodes_[leaf].value = []float64{v}
}

// LeafValue returns the prediction stored in a leaf.
func (r *DecisionTreeRegressor) LeafValue(leaf int) float64 {
	return r.nodes_[leaf].value[0]
}

// Predict returns the leaf mean for every row as an n×1 matrix.
func (r *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	leaves, err := r.Apply(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(leaves), 1, nil)
	for i, leaf := range leaves {
		out.Set(i, 0, r.nodes_[leaf].value[0])
	}
	return out, nil
}

// GetFeatureImportances returns the normalized variance reduction per feature.
func (r *DecisionTreeRegressor) GetFeatureImportances() []float64 { return r.featureImportances_ }

// GetDepth returns the depth of the fitted tree.
func (r *DecisionTreeRegressor) GetDepth() int { return r.depth_ }

// GetParams returns the hyperparameters.
func (r *DecisionTreeRegressor) GetParams() map[string]interface{} { return r.params.get() }

// SetParams updates the hyperparameters.
func (r *DecisionTreeRegressor) SetParams(p map[string]interface{}) error { return r.params.set(p) }

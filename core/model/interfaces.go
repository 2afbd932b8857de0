// Package model provides the estimator interfaces shared by every classifier
// in the zoo, plus the fitted-state bookkeeping they embed.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Classifier is the contract the benchmark runner relies on.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns an n_samples × n_classes matrix whose columns
	// follow the order of Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class labels seen during fitting.
	Classes() []int
}

// WeightedFitter is implemented by estimators that accept per-sample weights.
// Boosting uses it to reweight the training set between rounds.
type WeightedFitter interface {
	FitWeighted(X, y mat.Matrix, sampleWeight []float64) error
}

// IncrementalLearner is the interface for models that support incremental learning.
type IncrementalLearner interface {
	// PartialFit updates the model with one batch. classes must be given on
	// the first call.
	PartialFit(X mat.Matrix, y mat.Matrix, classes []int) error
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// FeatureImportancer is implemented by tree based models.
type FeatureImportancer interface {
	// GetFeatureImportances returns normalized impurity decrease per feature.
	GetFeatureImportances() []float64
}

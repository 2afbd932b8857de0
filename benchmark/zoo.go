// Package benchmark fits the classifier zoo on a train/validation partition
// and collects comparable validation metrics for every model.
package benchmark

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/termdeposit/config"
	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/sklearn/discriminant_analysis"
	"github.com/YuminosukeSato/termdeposit/sklearn/ensemble"
	"github.com/YuminosukeSato/termdeposit/sklearn/linear_model"
	"github.com/YuminosukeSato/termdeposit/sklearn/naive_bayes"
	"github.com/YuminosukeSato/termdeposit/sklearn/neighbors"
	"github.com/YuminosukeSato/termdeposit/sklearn/neural_network"
	"github.com/YuminosukeSato/termdeposit/sklearn/svm"
	"github.com/YuminosukeSato/termdeposit/sklearn/tree"
)

// Scale is the feature scaling applied before a model sees the data.
// Scalers are fitted on the training rows only.
type Scale int

const (
	NoScaling Scale = iota
	// Standard rescales to zero mean and unit variance.
	Standard
	// MinMax rescales every column to [0, 1].
	MinMax
)

func (s Scale) String() string {
	switch s {
	case Standard:
		return "standard"
	case MinMax:
		return "minmax"
	}
	return "none"
}

// MarshalText lets reports carry the scaling by name.
func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses the names written by MarshalText.
func (s *Scale) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none":
		*s = NoScaling
	case "standard":
		*s = Standard
	case "minmax":
		*s = MinMax
	default:
		return errors.NewValidationError("scale", "unknown scaling", string(b))
	}
	return nil
}

// Spec describes one benchmark entry. New must return an unfitted model on
// every call.
type Spec struct {
	Name     string
	Family   string
	Encoding dataset.Encoding
	Scale    Scale
	New      func() model.Classifier
}

// DefaultZoo returns the sixteen benchmark entries configured from cfg.
func DefaultZoo(cfg *config.Config) []Spec {
	seed := cfg.RandomState()
	jobs := cfg.NJobs()
	depth := cfg.TreeMaxDepth()

	return []Spec{
		{
			Name: "logistic", Family: "linear", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier {
				return linear_model.NewLogisticRegression(
					linear_model.WithLRC(cfg.LogisticC()),
					linear_model.WithLRMaxIter(cfg.LogisticMaxIter()),
					linear_model.WithLRRandomState(int64(seed)),
				)
			},
		},
		{
			Name: "gaussian_nb", Family: "naive_bayes", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier { return naive_bayes.NewGaussianNB() },
		},
		{
			// カウントモデルなので非負の入力が必要
			Name: "multinomial_nb", Family: "naive_bayes", Encoding: dataset.OneHot, Scale: MinMax,
			New: func() model.Classifier { return naive_bayes.NewMultinomialNB() },
		},
		{
			// 二値化は0より大きいかどうか。標準化で平均が閾値になる
			Name: "bernoulli_nb", Family: "naive_bayes", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier { return naive_bayes.NewBernoulliNB() },
		},
		{
			Name: "knn", Family: "neighbors", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier {
				return neighbors.NewKNeighborsClassifier(
					neighbors.WithNNeighbors(cfg.KNNNeighbors()),
					neighbors.WithWeights(cfg.KNNWeights()),
					neighbors.WithNJobs(jobs),
				)
			},
		},
		{
			Name: "cart_gini", Family: "tree", Encoding: dataset.Ordinal, Scale: NoScaling,
			New: func() model.Classifier {
				return tree.NewDecisionTreeClassifier(
					tree.WithCriterion("gini"), tree.WithMaxDepth(depth), tree.WithRandomState(seed))
			},
		},
		{
			Name: "cart_entropy", Family: "tree", Encoding: dataset.Ordinal, Scale: NoScaling,
			New: func() model.Classifier {
				return tree.NewDecisionTreeClassifier(
					tree.WithCriterion("entropy"), tree.WithMaxDepth(depth), tree.WithRandomState(seed))
			},
		},
		{
			Name: "random_forest", Family: "ensemble", Encoding: dataset.Ordinal, Scale: NoScaling,
			New: func() model.Classifier {
				return ensemble.NewRandomForestClassifier(
					ensemble.WithNEstimators(cfg.ForestEstimators()),
					ensemble.WithRandomState(seed),
					ensemble.WithNJobs(jobs),
				)
			},
		},
		{
			Name: "bagging", Family: "ensemble", Encoding: dataset.Ordinal, Scale: NoScaling,
			New: func() model.Classifier {
				return ensemble.NewBaggingClassifier(
					ensemble.WithNEstimators(cfg.BaggingEstimators()),
					ensemble.WithRandomState(seed),
					ensemble.WithNJobs(jobs),
				)
			},
		},
		{
			Name: "adaboost", Family: "ensemble", Encoding: dataset.Ordinal, Scale: NoScaling,
			New: func() model.Classifier {
				return ensemble.NewAdaBoostClassifier(
					ensemble.WithNEstimators(cfg.AdaBoostEstimators()),
					ensemble.WithRandomState(seed),
				)
			},
		},
		{
			Name: "gbm", Family: "ensemble", Encoding: dataset.Ordinal, Scale: NoScaling,
			New: func() model.Classifier {
				return ensemble.NewGradientBoostingClassifier(
					ensemble.WithNEstimators(cfg.GBMEstimators()),
					ensemble.WithLearningRate(cfg.GBMLearningRate()),
					ensemble.WithMaxDepth(cfg.GBMMaxDepth()),
					ensemble.WithRandomState(seed),
				)
			},
		},
		{
			Name: "linear_svm", Family: "svm", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier {
				return svm.NewLinearSVC(svm.WithLinearC(cfg.SVMC()), svm.WithLinearRandomState(seed))
			},
		},
		{
			Name: "rbf_svm", Family: "svm", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier {
				return svm.NewSVC(
					svm.WithC(cfg.SVMC()),
					svm.WithKernel("rbf"),
					svm.WithMaxSamples(cfg.SVMMaxSamples()),
					svm.WithRandomState(seed),
				)
			},
		},
		{
			Name: "lda", Family: "discriminant", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier { return discriminant_analysis.NewLinearDiscriminantAnalysis() },
		},
		{
			Name: "qda", Family: "discriminant", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier {
				return discriminant_analysis.NewQuadraticDiscriminantAnalysis(
					discriminant_analysis.WithRegParam(cfg.QDARegParam()))
			},
		},
		{
			Name: "mlp", Family: "neural_network", Encoding: dataset.OneHot, Scale: Standard,
			New: func() model.Classifier {
				return neural_network.NewMLPClassifier(
					neural_network.WithHiddenUnits(cfg.MLPHiddenUnits()),
					neural_network.WithMaxIter(cfg.MLPMaxIter()),
					neural_network.WithEarlyStopping(true),
					neural_network.WithRandomState(seed),
				)
			},
		},
	}
}

// Select keeps the entries whose Name is listed, in zoo order. An empty list
// keeps every entry; an unknown name is an error.
func Select(zoo []Spec, names []string) ([]Spec, error) {
	if len(names) == 0 {
		return zoo, nil
	}
	byName := make(map[string]bool, len(zoo))
	for _, s := range zoo {
		byName[s.Name] = true
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !byName[n] {
			return nil, errors.NewValidationError("models.only", fmt.Sprintf("unknown model %q", n), names)
		}
		want[n] = true
	}
	out := make([]Spec, 0, len(want))
	for _, s := range zoo {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

package naive_bayes

import (
	"fmt"
	"strconv"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/evaluation"
	"github.com/sjwhitworth/golearn/filters"
	"github.com/sjwhitworth/golearn/naive"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

var _ model.Classifier = (*BernoulliNB)(nil)

// BernoulliNB adapts golearn's Bernoulli naive Bayes to the gonum matrix
// API. Features are binarized by golearn's BinaryConvertFilter: a numeric
// value is "on" when it is non-zero, so standardized inputs split at the mean.
//
// golearn does not expose posterior probabilities; PredictProba returns the
// hard decision as a 0/1 row.
type BernoulliNB struct {
	state *model.StateManager

	classes_  []int
	template  *base.DenseInstances
	features  []base.AttributeSpec
	classSpec base.AttributeSpec
	filter    *filters.BinaryConvertFilter
	nb        *naive.BernoulliNBClassifier
}

// NewBernoulliNB creates an unfitted BernoulliNB.
func NewBernoulliNB() *BernoulliNB {
	return &BernoulliNB{state: model.NewStateManager()}
}

// Fit builds golearn instances from X and y, trains the binary filter and
// fits the classifier. Panics raised inside golearn are returned as errors.
func (b *BernoulliNB) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := model.ValidateFitInput("BernoulliNB.Fit", X, y)
	if err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}

	return errors.SafeExecute("BernoulliNB.Fit", func() error {
		inst := base.NewDenseInstances()
		b.features = make([]base.AttributeSpec, nFeatures)
		for j := 0; j < nFeatures; j++ {
			b.features[j] = inst.AddAttribute(base.NewFloatAttribute(fmt.Sprintf("x%d", j)))
		}
		classAttr := base.NewCategoricalAttribute()
		classAttr.SetName("class")
		for _, c := range classes {
			classAttr.GetSysValFromString(strconv.Itoa(c))
		}
		b.classSpec = inst.AddAttribute(classAttr)
		if err := inst.AddClassAttribute(classAttr); err != nil {
			return errors.Wrap(err, "golearn class attribute")
		}
		if err := fill(inst, b.features, b.classSpec, classAttr, X, y, nSamples); err != nil {
			return err
		}

		filter := filters.NewBinaryConvertFilter()
		for _, a := range base.NonClassAttributes(inst) {
			if err := filter.AddAttribute(a); err != nil {
				return errors.Wrap(err, "golearn binary filter")
			}
		}
		if err := filter.Train(); err != nil {
			return errors.Wrap(err, "golearn binary filter")
		}

		clf := naive.NewBernoulliNBClassifier()
		clf.Fit(base.NewLazilyFilteredInstances(inst, filter))

		b.template = inst
		b.filter = filter
		b.nb = clf
		b.classes_ = classes
		b.state.SetDimensions(nFeatures, nSamples)
		b.state.SetFitted()
		return nil
	})
}

// fill copies X (and y when non-nil) into a freshly extended instance set.
func fill(inst *base.DenseInstances, features []base.AttributeSpec, classSpec base.AttributeSpec,
	classAttr *base.CategoricalAttribute, X, y mat.Matrix, n int) error {
	if err := inst.Extend(n); err != nil {
		return errors.Wrap(err, "golearn extend")
	}
	for i := 0; i < n; i++ {
		for j, spec := range features {
			inst.Set(spec, i, base.PackFloatToBytes(X.At(i, j)))
		}
		if y != nil {
			inst.Set(classSpec, i, classAttr.GetSysValFromString(strconv.Itoa(int(y.At(i, 0)))))
		}
	}
	return nil
}

// grid copies X (and optionally y) into a structural copy of the training set.
func (b *BernoulliNB) grid(X, y mat.Matrix) (*base.DenseInstances, error) {
	n, _ := X.Dims()
	inst := base.NewStructuralCopy(b.template)
	features := make([]base.AttributeSpec, len(b.features))
	for j, spec := range b.features {
		s, err := inst.GetAttribute(spec.GetAttribute())
		if err != nil {
			return nil, errors.Wrap(err, "golearn attribute lookup")
		}
		features[j] = s
	}
	classAttr := b.classSpec.GetAttribute().(*base.CategoricalAttribute)
	classSpec, err := inst.GetAttribute(classAttr)
	if err != nil {
		return nil, errors.Wrap(err, "golearn class lookup")
	}
	if err := fill(inst, features, classSpec, classAttr, X, y, n); err != nil {
		return nil, err
	}
	return inst, nil
}

func (b *BernoulliNB) predictGrid(X, y mat.Matrix) (*base.DenseInstances, base.FixedDataGrid, error) {
	if err := b.state.RequireFitted("BernoulliNB", "Predict"); err != nil {
		return nil, nil, err
	}
	_, p := X.Dims()
	if err := b.state.RequireFeatures("BernoulliNB.Predict", p); err != nil {
		return nil, nil, err
	}

	var (
		inst *base.DenseInstances
		pred base.FixedDataGrid
	)
	err := errors.SafeExecute("BernoulliNB.Predict", func() error {
		var err error
		inst, err = b.grid(X, y)
		if err != nil {
			return err
		}
		pred, err = b.nb.Predict(base.NewLazilyFilteredInstances(inst, b.filter))
		return err
	})
	return inst, pred, err
}

// Predict returns the predicted class labels as an n×1 matrix.
func (b *BernoulliNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, pred, err := b.predictGrid(X, nil)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label, err := strconv.Atoi(base.GetClass(pred, i))
		if err != nil {
			return nil, errors.Wrapf(err, "golearn class at row %d", i)
		}
		out.Set(i, 0, float64(label))
	}
	return out, nil
}

// PredictProba returns a one-hot row per sample for the predicted class.
func (b *BernoulliNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	pred, err := b.Predict(X)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	pos := make(map[int]int, len(b.classes_))
	for i, c := range b.classes_ {
		pos[c] = i
	}
	out := mat.NewDense(n, len(b.classes_), nil)
	for i := 0; i < n; i++ {
		out.Set(i, pos[int(pred.At(i, 0))], 1)
	}
	return out, nil
}

// Score returns golearn's accuracy computed from its confusion matrix.
func (b *BernoulliNB) Score(X, y mat.Matrix) (float64, error) {
	ref, pred, err := b.predictGrid(X, y)
	if err != nil {
		return 0, err
	}
	cm, err := evaluation.GetConfusionMatrix(ref, pred)
	if err != nil {
		return 0, errors.Wrap(err, "golearn confusion matrix")
	}
	return evaluation.GetAccuracy(cm), nil
}

// Classes returns the sorted class labels.
func (b *BernoulliNB) Classes() []int { return b.classes_ }

// GetParams returns the hyperparameters (none are tunable).
func (b *BernoulliNB) GetParams() map[string]interface{} {
	return map[string]interface{}{"backend": "golearn"}
}

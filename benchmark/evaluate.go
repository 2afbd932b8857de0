package benchmark

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/metrics"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// positiveLabel is the encoded value of "yes".
const positiveLabel = 1

// Result is the validation scorecard of one model.
type Result struct {
	Name             string                 `json:"name"`
	Family           string                 `json:"family"`
	Encoding         string                 `json:"encoding"`
	Scale            Scale                  `json:"scale"`
	Accuracy         float64                `json:"accuracy"`
	F1Macro          float64                `json:"f1_macro"`
	AUC              float64                `json:"auc"`
	LogLoss          float64                `json:"log_loss"`
	AveragePrecision float64                `json:"average_precision"`
	Brier            float64                `json:"brier"`
	Duration         time.Duration          `json:"duration_ns"`
	Params           map[string]interface{} `json:"params,omitempty"`

	// ROC on the validation rows; kept for plotting, not serialized.
	FPR []float64 `json:"-"`
	TPR []float64 `json:"-"`
}

// Evaluate fits a fresh model from spec on train and scores it on valid.
// A panic inside the model is returned as a *errors.PanicError.
func Evaluate(ctx context.Context, spec Spec, train, valid Data) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return errors.SafeCall("benchmark."+spec.Name, func() (Result, error) {
		return evaluate(spec, train, valid)
	})
}

func evaluate(spec Spec, train, valid Data) (Result, error) {
	res := Result{
		Name:     spec.Name,
		Family:   spec.Family,
		Encoding: spec.Encoding.String(),
		Scale:    spec.Scale,
	}
	Xtr, Xva, err := scale(spec.Scale, train.X, valid.X)
	if err != nil {
		return res, errors.Wrapf(err, "%s: scale", spec.Name)
	}

	clf := spec.New()
	start := time.Now()
	if err := clf.Fit(Xtr, train.Y); err != nil {
		return res, errors.Wrapf(err, "%s: fit", spec.Name)
	}
	pred, err := clf.Predict(Xva)
	if err != nil {
		return res, errors.Wrapf(err, "%s: predict", spec.Name)
	}
	proba, err := clf.PredictProba(Xva)
	if err != nil {
		return res, errors.Wrapf(err, "%s: predict_proba", spec.Name)
	}
	res.Duration = time.Since(start)

	pos := -1
	for i, c := range clf.Classes() {
		if c == positiveLabel {
			pos = i
		}
	}
	if pos < 0 {
		return res, errors.NewModelError(spec.Name, "no positive class in training labels", errors.ErrSingleClass)
	}
	yPred := mat.NewVecDense(valid.Y.Len(), mat.Col(nil, 0, pred))
	prob := mat.NewVecDense(valid.Y.Len(), mat.Col(nil, pos, proba))

	if err := score(&res, valid.Y, yPred, prob); err != nil {
		return res, errors.Wrapf(err, "%s: score", spec.Name)
	}
	if pg, ok := clf.(model.ParameterGetter); ok {
		res.Params = pg.GetParams()
	}
	return res, nil
}

func score(res *Result, y, yPred, prob *mat.VecDense) error {
	var err error
	if res.Accuracy, err = metrics.Accuracy(y, yPred); err != nil {
		return err
	}
	if res.F1Macro, err = metrics.F1Macro(y, yPred); err != nil {
		return err
	}
	if res.AUC, err = metrics.AUC(y, prob); err != nil {
		return err
	}
	if res.LogLoss, err = metrics.BinaryLogLoss(y, prob); err != nil {
		return err
	}
	if res.AveragePrecision, err = metrics.AveragePrecision(y, prob); err != nil {
		return err
	}
	if res.Brier, err = metrics.BrierScore(y, prob); err != nil {
		return err
	}
	res.FPR, res.TPR, _, err = metrics.ROCCurve(y, prob)
	return err
}

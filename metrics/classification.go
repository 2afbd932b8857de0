// Package metrics implements the scores used to compare classifiers:
// accuracy, macro F1, ROC AUC, log loss, average precision and the Brier score.
//
// Every function takes *mat.VecDense inputs. A nil or empty vector, or two
// vectors of different length, is an error.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// logLossEps はlog(0)を避けるためのクリッピング幅
const logLossEps = 1e-15

// validatePair は2つのベクトルの長さを検証する
func validatePair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinary はラベルが0/1のみで構成されていることを確認する
func checkBinary(op string, y *mat.VecDense, n int) error {
	for i := 0; i < n; i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("labels must be 0 or 1, got %g at index %d", v, i))
		}
	}
	return nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// Confusion holds a confusion matrix. Counts.At(i, j) is the number of
// samples whose true label is Labels[i] and predicted label is Labels[j].
type Confusion struct {
	Labels []float64
	Counts *mat.Dense
}

// ConfusionMatrix builds the confusion matrix over the union of labels
// found in yTrue and yPred, sorted ascending.
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (*Confusion, error) {
	n, err := validatePair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	seen := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		seen[yTrue.AtVec(i)] = struct{}{}
		seen[yPred.AtVec(i)] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, c := index[yTrue.AtVec(i)], index[yPred.AtVec(i)]
		counts.Set(r, c, counts.At(r, c)+1)
	}
	return &Confusion{Labels: labels, Counts: counts}, nil
}

// ClassReport is the per-class precision, recall and F1.
type ClassReport struct {
	Label     float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// PrecisionRecallF1 computes one report per label. Undefined ratios
// (no predicted or no true samples of a class) are reported as 0 and raise
// an UndefinedMetricWarning.
func PrecisionRecallF1(yTrue, yPred *mat.VecDense) ([]ClassReport, error) {
	cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, errors.Wrap(err, "PrecisionRecallF1")
	}

	k := len(cm.Labels)
	reports := make([]ClassReport, k)
	for i := 0; i < k; i++ {
		tp := cm.Counts.At(i, i)
		var predicted, actual float64
		for j := 0; j < k; j++ {
			predicted += cm.Counts.At(j, i)
			actual += cm.Counts.At(i, j)
		}

		r := ClassReport{Label: cm.Labels[i], Support: int(actual)}
		if predicted > 0 {
			r.Precision = tp / predicted
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", fmt.Sprintf("no predicted samples for label %g", cm.Labels[i]), 0))
		}
		if actual > 0 {
			r.Recall = tp / actual
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("recall", fmt.Sprintf("no true samples for label %g", cm.Labels[i]), 0))
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports[i] = r
	}
	return reports, nil
}

// F1Macro は全ラベルのF1スコアの単純平均（macro平均）
func F1Macro(yTrue, yPred *mat.VecDense) (float64, error) {
	reports, err := PrecisionRecallF1(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "F1Macro")
	}
	var sum float64
	for _, r := range reports {
		sum += r.F1
	}
	return sum / float64(len(reports)), nil
}

// AUC はROC曲線下面積をMann-Whitney統計量として計算する。
// 同点スコアは0.5として数える。正例または負例しかない場合は0.5を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := validatePair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue, n); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	// 同点には平均順位を与える
	var nPos, nNeg, rankSumPos float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue.AtVec(idx[k]) == 1 {
				nPos++
				rankSumPos += avgRank
			} else {
				nNeg++
			}
		}
		i = j + 1
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	return (rankSumPos - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// AUCMatrix は行列入力に対してAUCを計算する。先頭列のみ使用する。
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}
	t, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	s, err := firstColumn("AUCMatrix", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// ROCCurve returns false positive rates, true positive rates and the
// decreasing score thresholds at which they are reached. The first point is
// (0, 0) with threshold +Inf.
func ROCCurve(yTrue, yScore *mat.VecDense) (fpr, tpr, thresholds []float64, err error) {
	n, err := validatePair("ROCCurve", yTrue, yScore)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := checkBinary("ROCCurve", yTrue, n); err != nil {
		return nil, nil, nil, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b])
	})

	var nPos, nNeg float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}

	fpr = []float64{0}
	tpr = []float64{0}
	thresholds = []float64{math.Inf(1)}
	var tp, fp float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(idx[i]) == 1 {
			tp++
		} else {
			fp++
		}
		score := yScore.AtVec(idx[i])
		if i+1 < n && yScore.AtVec(idx[i+1]) == score {
			continue
		}
		fpr = append(fpr, errors.SafeDivide(fp, nNeg))
		tpr = append(tpr, errors.SafeDivide(tp, nPos))
		thresholds = append(thresholds, score)
	}
	return fpr, tpr, thresholds, nil
}

// BinaryLogLoss は二値交差エントロピーを計算する。確率は[eps, 1-eps]にクリップされる。
func BinaryLogLoss(yTrue, prob *mat.VecDense) (float64, error) {
	n, err := validatePair("BinaryLogLoss", yTrue, prob)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue, n); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(prob.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

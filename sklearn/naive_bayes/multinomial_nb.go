// Package naive_bayes provides naive Bayes classifiers: Gaussian and
// multinomial implementations on gonum, and a Bernoulli variant backed by golearn.
package naive_bayes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// minAlpha はalphaが0に近い場合の下限（log(0)回避）
const minAlpha = 1e-10

var (
	_ model.Classifier         = (*MultinomialNB)(nil)
	_ model.IncrementalLearner = (*MultinomialNB)(nil)
)

// MultinomialNB は多項分布ナイーブベイズ分類器。特徴量は非負のカウント
// （または[0,1]にスケーリングされた値）でなければならない。
type MultinomialNB struct {
	state *model.StateManager

	// ハイパーパラメータ
	alpha      float64   // Laplace/Lidstone平滑化パラメータ
	fitPrior   bool      // クラス事前確率を学習するか
	classPrior []float64 // 固定の事前確率（nilなら学習または一様）

	// 学習済みパラメータ
	classes_        []int
	classCount_     []float64
	featureCount_   *mat.Dense // n_classes × n_features
	classLogPrior_  []float64
	featureLogProb_ *mat.Dense // n_classes × n_features
	nFeatures_      int
	nSamplesSeen_   int
}

// MultinomialNBOption は MultinomialNB の設定関数
type MultinomialNBOption func(*MultinomialNB)

// WithAlpha は平滑化パラメータを設定する（デフォルト1.0）
func WithAlpha(alpha float64) MultinomialNBOption {
	return func(nb *MultinomialNB) { nb.alpha = alpha }
}

// WithFitPrior はクラス事前確率を学習するかを設定する（デフォルトtrue）
func WithFitPrior(fit bool) MultinomialNBOption {
	return func(nb *MultinomialNB) { nb.fitPrior = fit }
}

// WithClassPrior は事前確率を固定する
func WithClassPrior(prior []float64) MultinomialNBOption {
	return func(nb *MultinomialNB) { nb.classPrior = prior }
}

// NewMultinomialNB は新しい MultinomialNB を作成する
func NewMultinomialNB(opts ...MultinomialNBOption) *MultinomialNB {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    1.0,
		fitPrior: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit はモデルを学習する。既存の学習結果は破棄される。
func (nb *MultinomialNB) Fit(X, y mat.Matrix) error {
	if _, _, err := model.ValidateFitInput("MultinomialNB.Fit", X, y); err != nil {
		return err
	}
	classes, err := model.ExtractClasses(y)
	if err != nil {
		return err
	}
	nb.state.Reset()
	nb.featureCount_ = nil
	nb.nSamplesSeen_ = 0
	return nb.PartialFit(X, y, classes)
}

// PartialFit はバッチ単位でカウントを更新する。最初の呼び出しでは classes が必須。
func (nb *MultinomialNB) PartialFit(X, y mat.Matrix, classes []int) error {
	nSamples, nFeatures, err := model.ValidateFitInput("MultinomialNB.PartialFit", X, y)
	if err != nil {
		return err
	}
	if err := checkNonNegative("MultinomialNB", X); err != nil {
		return err
	}

	if nb.featureCount_ == nil {
		if len(classes) == 0 {
			return errors.NewValueError("MultinomialNB.PartialFit", "classes must be passed on the first call")
		}
		nb.classes_ = append([]int(nil), classes...)
		nb.nFeatures_ = nFeatures
		nb.classCount_ = make([]float64, len(classes))
		nb.featureCount_ = mat.NewDense(len(classes), nFeatures, nil)
	} else if nFeatures != nb.nFeatures_ {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nb.nFeatures_, nFeatures, 1)
	}

	pos := make(map[int]int, len(nb.classes_))
	for i, c := range nb.classes_ {
		pos[c] = i
	}
	for i := 0; i < nSamples; i++ {
		label := int(y.At(i, 0))
		k, ok := pos[label]
		if !ok {
			return errors.NewValueError("MultinomialNB.PartialFit", fmt.Sprintf("label %d not in classes %v", label, nb.classes_))
		}
		nb.classCount_[k]++
		for j := 0; j < nFeatures; j++ {
			nb.featureCount_.Set(k, j, nb.featureCount_.At(k, j)+X.At(i, j))
		}
	}
	nb.nSamplesSeen_ += nSamples

	nb.updateLogProbabilities()
	nb.state.SetDimensions(nb.nFeatures_, nb.nSamplesSeen_)
	nb.state.SetFitted()
	return nil
}

func (nb *MultinomialNB) updateLogProbabilities() {
	alpha := nb.alpha
	if alpha < minAlpha {
		errors.Warn(errors.NewValueError("MultinomialNB", fmt.Sprintf("alpha too small, clipped to %g", minAlpha)))
		alpha = minAlpha
	}

	k, p := nb.featureCount_.Dims()
	nb.featureLogProb_ = mat.NewDense(k, p, nil)
	for c := 0; c < k; c++ {
		total := 0.0
		for j := 0; j < p; j++ {
			total += nb.featureCount_.At(c, j) + alpha
		}
		for j := 0; j < p; j++ {
			nb.featureLogProb_.Set(c, j, math.Log(nb.featureCount_.At(c, j)+alpha)-math.Log(total))
		}
	}
	nb.classLogPrior_ = logPrior(nb.classCount_, nb.fitPrior, nb.classPrior)
}

// logPrior は事前確率の対数を返す。固定値 > 学習 > 一様 の優先順。
func logPrior(classCount []float64, fitPrior bool, fixed []float64) []float64 {
	out := make([]float64, len(classCount))
	switch {
	case len(fixed) == len(classCount):
		for i, p := range fixed {
			out[i] = math.Log(p)
		}
	case fitPrior:
		var n float64
		for _, c := range classCount {
			n += c
		}
		for i, c := range classCount {
			out[i] = errors.StabilizeLog(c / n)
		}
	default:
		for i := range out {
			out[i] = -math.Log(float64(len(classCount)))
		}
	}
	return out
}

func checkNonNegative(name string, X mat.Matrix) error {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if X.At(i, j) < 0 {
				return errors.NewValueError(name, fmt.Sprintf("negative value %g at (%d, %d)", X.At(i, j), i, j))
			}
		}
	}
	return nil
}

// jointLogLikelihood は log P(c) + Σ x_j log θ_cj
func (nb *MultinomialNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	if err := nb.state.RequireFitted("MultinomialNB", "Predict"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := nb.state.RequireFeatures("MultinomialNB.Predict", p); err != nil {
		return nil, err
	}
	jll := mat.NewDense(n, len(nb.classes_), nil)
	jll.Mul(X, nb.featureLogProb_.T())
	jll.Apply(func(_, k int, v float64) float64 { return v + nb.classLogPrior_[k] }, jll)
	return jll, nil
}

// PredictLogProba は各クラスの対数事後確率を返す
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return normalizeLog(jll), nil
}

// normalizeLog は各行から logsumexp を引く（in place）
func normalizeLog(jll *mat.Dense) *mat.Dense {
	n, k := jll.Dims()
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(row, i, jll)
		lse := errors.LogSumExp(row)
		for j := range row {
			jll.Set(i, j, row[j]-lse)
		}
	}
	return jll
}

// PredictProba は各クラスの事後確率を返す
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	out := logProba.(*mat.Dense)
	out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, out)
	return out, nil
}

// Predict は事後確率最大のクラスを返す
func (nb *MultinomialNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return model.ArgmaxClasses(jll, nb.classes_), nil
}

// Score は正解率を返す
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(pred, y), nil
}

// Classes は学習済みクラスラベルを返す
func (nb *MultinomialNB) Classes() []int { return nb.classes_ }

// NSamplesSeen は学習に使われたサンプル数の累計
func (nb *MultinomialNB) NSamplesSeen() int { return nb.nSamplesSeen_ }

// GetParams はハイパーパラメータを返す
func (nb *MultinomialNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":       nb.alpha,
		"fit_prior":   nb.fitPrior,
		"class_prior": nb.classPrior,
	}
}

// SetParams はハイパーパラメータを設定する
func (nb *MultinomialNB) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "alpha":
			nb.alpha, ok = value.(float64)
		case "fit_prior":
			nb.fitPrior, ok = value.(bool)
		case "class_prior":
			nb.classPrior, ok = value.([]float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validatePair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// BrierScore は陽性クラス確率の平均二乗誤差。0が完全、1が最悪。
func BrierScore(yTrue, prob *mat.VecDense) (float64, error) {
	n, err := validatePair("BrierScore", yTrue, prob)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BrierScore", yTrue, n); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		if p := prob.AtVec(i); p < 0 || p > 1 {
			return 0, errors.NewValueError("BrierScore", "probabilities must lie in [0, 1]")
		}
	}
	return MSE(yTrue, prob)
}

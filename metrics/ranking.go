package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// AveragePrecision はスコア降順に並べたときの平均適合率を計算する。
// 適合ラベルは1、非適合は0。適合アイテムがない場合は0を返す。
func AveragePrecision(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := validatePair("AveragePrecision", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AveragePrecision", yTrue, n); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b])
	})

	var hits, sum float64
	for rank, i := range idx {
		if yTrue.AtVec(i) == 1 {
			hits++
			sum += hits / float64(rank+1)
		}
	}
	if hits == 0 {
		return 0, nil
	}
	return sum / hits, nil
}

// LiftAt は上位fraction件に含まれる陽性率を全体の陽性率で割った値。
// キャンペーンで上位何割に電話すべきかの目安になる。
func LiftAt(yTrue, yScore *mat.VecDense, fraction float64) (float64, error) {
	n, err := validatePair("LiftAt", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("LiftAt", yTrue, n); err != nil {
		return 0, err
	}
	if fraction <= 0 || fraction > 1 {
		return 0, errors.NewValidationError("fraction", "must lie in (0, 1]", fraction)
	}

	idx := make([]int, n)
	var positives float64
	for i := range idx {
		idx[i] = i
		positives += yTrue.AtVec(i)
	}
	if positives == 0 {
		return 0, nil
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b])
	})

	top := int(float64(n)*fraction + 0.5)
	if top < 1 {
		top = 1
	}
	var hits float64
	for _, i := range idx[:top] {
		hits += yTrue.AtVec(i)
	}
	return (hits / float64(top)) / (positives / float64(n)), nil
}

package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// ValidateFitInput checks that X is non-empty and y is an n×1 column with
// the same number of rows. It returns the sample and feature counts.
func ValidateFitInput(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, errors.NewValueError(op, "nil input")
	}
	if isEmpty(X) || isEmpty(y) {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	nSamples, nFeatures = X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	return nSamples, nFeatures, nil
}

func isEmpty(m mat.Matrix) bool {
	switch v := m.(type) {
	case *mat.Dense:
		return v.IsEmpty()
	case *mat.VecDense:
		return v.IsEmpty()
	}
	return false
}

// ExtractClasses returns the sorted distinct integer labels of y (n×1).
// Fewer than two classes is ErrSingleClass.
func ExtractClasses(y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return classes, errors.ErrSingleClass
	}
	return classes, nil
}

// ClassIndex maps each row of y to its position in classes.
func ClassIndex(y mat.Matrix, classes []int) []int {
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	rows, _ := y.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = pos[int(y.At(i, 0))]
	}
	return out
}

// ArgmaxClasses turns an n×k probability matrix into an n×1 label column.
func ArgmaxClasses(proba mat.Matrix, classes []int) *mat.Dense {
	r, c := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for j := 1; j < c; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, float64(classes[best]))
	}
	return out
}

// Accuracy is the share of rows where pred equals y.
func Accuracy(pred, y mat.Matrix) float64 {
	r, _ := y.Dims()
	if r == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r)
}

// Score predicts X with p and returns the accuracy against y.
func Score(p Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	if r, _ := y.Dims(); r != 0 {
		if n, _ := pred.Dims(); n != r {
			return 0, errors.NewDimensionError("Score", r, n, 0)
		}
	}
	return Accuracy(pred, y), nil
}

// BalancedWeights returns n/(k*count_c) for every sample, the weighting that
// gives each class the same total weight.
func BalancedWeights(idx []int, nClasses int) []float64 {
	counts := make([]float64, nClasses)
	for _, c := range idx {
		counts[c]++
	}
	n := float64(len(idx))
	w := make([]float64, len(idx))
	for i, c := range idx {
		w[i] = n / (float64(nClasses) * counts[c])
	}
	return w
}

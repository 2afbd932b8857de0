// Package svm provides support vector classifiers: a linear one trained with
// Pegasos and a kernel one trained with SMO. Both calibrate probabilities
// with Platt scaling.
package svm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// Kernel computes the inner product of two rows in feature space.
type Kernel func(a, b []float64) float64

// LinearKernel is the plain dot product.
func LinearKernel() Kernel {
	return floats.Dot
}

// RBFKernel is exp(-γ‖a-b‖²).
func RBFKernel(gamma float64) Kernel {
	return func(a, b []float64) float64 {
		d := 0.0
		for i := range a {
			t := a[i] - b[i]
			d += t * t
		}
		return math.Exp(-gamma * d)
	}
}

// PolyKernel is (γ a·b + coef0)^degree.
func PolyKernel(gamma, coef0 float64, degree int) Kernel {
	return func(a, b []float64) float64 {
		return math.Pow(gamma*floats.Dot(a, b)+coef0, float64(degree))
	}
}

// scaleGamma returns 1/(n_features · Var(X)), the "scale" heuristic.
func scaleGamma(X mat.Matrix) float64 {
	r, c := X.Dims()
	all := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			all = append(all, X.At(i, j))
		}
	}
	_, v := stat.PopMeanVariance(all, nil)
	if v == 0 {
		return 1 / float64(c)
	}
	return 1 / (float64(c) * v)
}

// newKernel resolves a kernel name.
func newKernel(name string, gamma, coef0 float64, degree int) (Kernel, error) {
	switch name {
	case "linear":
		return LinearKernel(), nil
	case "rbf":
		return RBFKernel(gamma), nil
	case "poly":
		return PolyKernel(gamma, coef0, degree), nil
	}
	return nil, errors.NewValidationError("kernel", "must be linear, rbf or poly", name)
}

func rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, X)
	}
	return out
}

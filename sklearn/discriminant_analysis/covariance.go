// Package discriminant_analysis provides Gaussian generative classifiers with
// shared (LDA) or per-class (QDA) covariance.
package discriminant_analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// classGroups splits the rows of X by class index.
func classGroups(X mat.Matrix, idx []int, k int) []*mat.Dense {
	_, p := X.Dims()
	counts := make([]int, k)
	for _, c := range idx {
		counts[c]++
	}
	groups := make([]*mat.Dense, k)
	next := make([]int, k)
	for c := range groups {
		groups[c] = mat.NewDense(max(counts[c], 1), p, nil)
	}
	row := make([]float64, p)
	for i, c := range idx {
		mat.Row(row, i, X)
		groups[c].SetRow(next[c], row)
		next[c]++
	}
	return groups
}

func columnMeans(X *mat.Dense) []float64 {
	_, p := X.Dims()
	mu := make([]float64, p)
	for j := 0; j < p; j++ {
		mu[j] = stat.Mean(mat.Col(nil, j, X), nil)
	}
	return mu
}

// scatter returns the unnormalized within-group scatter Σ(x-μ)(x-μ)ᵀ.
func scatter(X *mat.Dense) *mat.SymDense {
	n, p := X.Dims()
	cov := mat.NewSymDense(p, nil)
	if n < 2 {
		return cov
	}
	stat.CovarianceMatrix(cov, X, nil)
	cov.ScaleSym(float64(n-1), cov)
	return cov
}

// whitening factors a covariance into R with Σ⁺ = R·Rᵀ, dropping
// eigenvalues below tol·λmax. It also returns log|Σ| over the kept
// eigenvalues and the number of dropped directions.
func whitening(cov *mat.SymDense, tol float64) (*mat.Dense, float64, int, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, 0, 0, errors.NewModelError("whitening", "eigendecomposition", errors.ErrSingularMatrix)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	maxVal := 0.0
	for _, v := range vals {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal <= 0 {
		return nil, 0, 0, errors.NewModelError("whitening", "zero covariance", errors.ErrSingularMatrix)
	}
	p := len(vals)
	R := mat.NewDense(p, p, nil)
	logDet := 0.0
	dropped := 0
	for j, v := range vals {
		if v <= tol*maxVal {
			dropped++
			continue
		}
		logDet += math.Log(v)
		s := 1 / math.Sqrt(v)
		for i := 0; i < p; i++ {
			R.Set(i, j, vecs.At(i, j)*s)
		}
	}
	return R, logDet, dropped, nil
}

func logPriors(idx []int, k int, fixed []float64) ([]float64, error) {
	out := make([]float64, k)
	if fixed != nil {
		if len(fixed) != k {
			return nil, errors.NewDimensionError("priors", k, len(fixed), 0)
		}
		for c, p := range fixed {
			if p <= 0 {
				return nil, errors.NewValidationError("priors", "must be positive", fixed)
			}
			out[c] = math.Log(p)
		}
		return out, nil
	}
	counts := make([]float64, k)
	for _, c := range idx {
		counts[c]++
	}
	for c := range out {
		out[c] = math.Log(counts[c] / float64(len(idx)))
	}
	return out, nil
}

// softmaxRows turns per-class scores into probabilities in place.
func softmaxRows(scores *mat.Dense) {
	r, c := scores.Dims()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, scores)
		lse := errors.LogSumExp(row)
		for j := range row {
			row[j] = math.Exp(row[j] - lse)
		}
		scores.SetRow(i, row)
	}
}

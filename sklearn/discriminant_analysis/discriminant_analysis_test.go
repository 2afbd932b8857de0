package discriminant_analysis

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

func gaussians(n int, seed uint64, spread1 float64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, 9))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		c := i % 2
		if c == 0 {
			X.Set(i, 0, -1+rng.NormFloat64()*0.5)
			X.Set(i, 1, -1+rng.NormFloat64()*0.5)
		} else {
			X.Set(i, 0, 1+rng.NormFloat64()*spread1)
			X.Set(i, 1, 1+rng.NormFloat64()*spread1)
		}
		y.Set(i, 0, float64(c))
	}
	return X, y
}

func TestDiscriminantAnalysis(t *testing.T) {
	X, y := gaussians(200, 1, 0.5)
	XTest, yTest := gaussians(100, 2, 0.5)

	for _, clf := range []model.Classifier{
		NewLinearDiscriminantAnalysis(),
		NewQuadraticDiscriminantAnalysis(),
		NewQuadraticDiscriminantAnalysis(WithRegParam(0.1)),
	} {
		t.Run(fmtType(clf), func(t *testing.T) {
			require.NoError(t, clf.Fit(X, y))
			pred, err := clf.Predict(XTest)
			require.NoError(t, err)
			acc, err := clf.Score(XTest, yTest)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, acc, 0.95)
			assert.Equal(t, model.Accuracy(pred, yTest), acc)

			proba, err := clf.PredictProba(XTest)
			require.NoError(t, err)
			r, _ := proba.Dims()
			for i := 0; i < r; i++ {
				assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9)
				// 確率最大のクラスと予測は一致する
				want := 0.0
				if proba.At(i, 1) > proba.At(i, 0) {
					want = 1
				}
				assert.Equal(t, want, pred.At(i, 0))
			}
		})
	}
}

func fmtType(clf model.Classifier) string {
	switch c := clf.(type) {
	case *LinearDiscriminantAnalysis:
		return "lda"
	case *QuadraticDiscriminantAnalysis:
		if c.regParam > 0 {
			return "qda_reg"
		}
		return "qda"
	}
	return "unknown"
}

func TestLDAMeansAndSymmetry(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{-3, -2, -1, 1, 2, 3})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(X, y))

	assert.InDelta(t, -2.0, lda.Means().At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, lda.Means().At(1, 0), 1e-12)
	assert.Equal(t, 1, lda.Rank())

	// 等事前確率・対称データでは原点が境界
	proba, err := lda.PredictProba(mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, proba.At(0, 1), 1e-9)
}

func TestLDACollinearColumns(t *testing.T) {
	// 2列目は1列目の定数倍（one-hotの冗長列と同じ状況）
	a := []float64{0, 1, 0, 1, 5, 6, 5, 6}
	Xdup := mat.NewDense(8, 2, nil)
	for i, v := range a {
		Xdup.Set(i, 0, v)
		Xdup.Set(i, 1, 2*v)
	}
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(Xdup, y))
	assert.Equal(t, 1, lda.Rank())
	pred, err := lda.Predict(Xdup)
	require.NoError(t, err)
	assert.Equal(t, 1.0, model.Accuracy(pred, y))
}

// 分散の小さい方向は tol·λmax 以下なら捨てられる
func TestLDATol(t *testing.T) {
	a := []float64{0, 1, 0, 1, 5, 6, 5, 6}
	b := []float64{0.1, 0.1, -0.1, -0.1, 0.1, 0.1, -0.1, -0.1}
	X := mat.NewDense(8, 2, nil)
	for i := range a {
		X.Set(i, 0, a[i])
		X.Set(i, 1, b[i])
	}
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	tests := []struct {
		name string
		tol  float64
		rank int
	}{
		{"default keeps both directions", 1e-4, 2},
		{"loose tol drops the narrow one", 0.1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lda := NewLinearDiscriminantAnalysis(WithLDATol(tt.tol))
			require.NoError(t, lda.Fit(X, y))
			assert.Equal(t, tt.rank, lda.Rank())
			assert.Equal(t, tt.tol, lda.GetParams()["tol"])
		})
	}
}

func TestQDAUsesClassCovariance(t *testing.T) {
	// クラス1は広がりが大きい。遠方の点はQDAではクラス1になる
	X, y := gaussians(400, 3, 2.0)
	qda := NewQuadraticDiscriminantAnalysis()
	require.NoError(t, qda.Fit(X, y))

	pred, err := qda.Predict(mat.NewDense(1, 2, []float64{-6, -6}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.At(0, 0))
}

func TestDiscriminantAnalysisErrors(t *testing.T) {
	X, y := gaussians(20, 4, 0.5)

	_, err := NewLinearDiscriminantAnalysis().Predict(X)
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))
	_, err = NewQuadraticDiscriminantAnalysis().PredictProba(X)
	assert.True(t, errors.As(err, &nfe))

	var ve *errors.ValidationError
	assert.True(t, errors.As(NewQuadraticDiscriminantAnalysis(WithRegParam(2)).Fit(X, y), &ve))
	assert.True(t, errors.As(NewLinearDiscriminantAnalysis(WithLDAPriors([]float64{1, 0})).Fit(X, y), &ve))

	var de *errors.DimensionError
	assert.True(t, errors.As(NewQuadraticDiscriminantAnalysis(WithQDAPriors([]float64{1})).Fit(X, y), &de))

	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(X, y))
	_, err = lda.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, errors.As(err, &de))

	require.NoError(t, lda.SetParams(map[string]interface{}{"tol": 1e-6}))
	assert.Error(t, lda.SetParams(map[string]interface{}{"solver": "svd"}))
}

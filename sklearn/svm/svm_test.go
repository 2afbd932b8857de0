package svm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

func separable(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, 2))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		c := float64(i % 2)
		X.Set(i, 0, -2+4*c+rng.NormFloat64()*0.5)
		X.Set(i, 1, -2+4*c+rng.NormFloat64()*0.5)
		y.Set(i, 0, c)
	}
	return X, y
}

// ring は内側がクラス0、外側がクラス1の線形分離不能なデータ
func ring(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, 3))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		c := i % 2
		r := 0.5 + rng.Float64()*0.5
		if c == 1 {
			r = 2 + rng.Float64()*0.5
		}
		theta := rng.Float64() * 2 * math.Pi
		X.Set(i, 0, r*math.Cos(theta))
		X.Set(i, 1, r*math.Sin(theta))
		y.Set(i, 0, float64(c))
	}
	return X, y
}

func checkBinaryProba(t *testing.T, clf model.Classifier, X mat.Matrix) {
	t.Helper()
	proba, err := clf.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		p := proba.At(i, 1)
		require.True(t, p >= 0 && p <= 1)
		require.InDelta(t, 1.0, proba.At(i, 0)+p, 1e-12)
	}
}

func TestLinearSVC(t *testing.T) {
	X, y := separable(200, 1)
	XTest, yTest := separable(100, 2)

	s := NewLinearSVC(WithLinearRandomState(1), WithEpochs(40))
	require.NoError(t, s.Fit(X, y))
	score, err := s.Score(XTest, yTest)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.95)
	checkBinaryProba(t, s, XTest)

	// 正のマージンほど陽性確率が高い
	proba, err := s.PredictProba(mat.NewDense(2, 2, []float64{-3, -3, 3, 3}))
	require.NoError(t, err)
	assert.Less(t, proba.At(0, 1), 0.5)
	assert.Greater(t, proba.At(1, 1), 0.5)

	coef := s.Coef(0)
	require.Len(t, coef, 2)
	assert.Greater(t, coef[0], 0.0)
	assert.Greater(t, coef[1], 0.0)
}

func TestLinearSVCMulticlass(t *testing.T) {
	X := mat.NewDense(90, 2, nil)
	y := mat.NewDense(90, 1, nil)
	rng := rand.New(rand.NewPCG(4, 4))
	centers := [][2]float64{{-4, 0}, {4, 0}, {0, 5}}
	for i := 0; i < 90; i++ {
		c := i % 3
		X.Set(i, 0, centers[c][0]+rng.NormFloat64()*0.5)
		X.Set(i, 1, centers[c][1]+rng.NormFloat64()*0.5)
		y.Set(i, 0, float64(c))
	}
	s := NewLinearSVC()
	require.NoError(t, s.Fit(X, y))
	score, err := s.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.9)

	proba, err := s.PredictProba(X)
	require.NoError(t, err)
	_, c := proba.Dims()
	assert.Equal(t, 3, c)
}

func TestSVCKernels(t *testing.T) {
	X, y := ring(160, 5)
	XTest, yTest := ring(80, 6)

	tests := []struct {
		name string
		opts []SVCOption
		min  float64
	}{
		{"rbf", []SVCOption{WithKernel("rbf"), WithC(10)}, 0.95},
		{"rbf fixed gamma", []SVCOption{WithKernel("rbf"), WithGamma(1), WithTol(1e-2), WithC(10)}, 0.95},
		{"poly", []SVCOption{WithKernel("poly"), WithDegree(2), WithCoef0(1), WithC(10)}, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSVC(tt.opts...)
			require.NoError(t, s.Fit(X, y))
			score, err := s.Score(XTest, yTest)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.Positive(t, s.NSupport())
			checkBinaryProba(t, s, XTest)
		})
	}

	t.Run("linear kernel cannot separate a ring", func(t *testing.T) {
		s := NewSVC(WithKernel("linear"))
		require.NoError(t, s.Fit(X, y))
		score, err := s.Score(XTest, yTest)
		require.NoError(t, err)
		assert.Less(t, score, 0.8)
	})
}

func TestSVCSubsample(t *testing.T) {
	X, y := separable(300, 7)
	s := NewSVC(WithMaxSamples(100), WithRandomState(3))
	require.NoError(t, s.Fit(X, y))
	assert.Equal(t, 100, s.NTrainRows())

	score, err := s.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.95)
}

func TestSVMErrors(t *testing.T) {
	X, y := separable(20, 8)

	_, err := NewSVC().Predict(X)
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))
	_, err = NewLinearSVC().PredictProba(X)
	assert.True(t, errors.As(err, &nfe))

	var ve *errors.ValidationError
	assert.True(t, errors.As(NewSVC(WithKernel("sigmoid")).Fit(X, y), &ve))
	assert.True(t, errors.As(NewSVC(WithC(0)).Fit(X, y), &ve))
	assert.True(t, errors.As(NewLinearSVC(WithLinearClassWeight("auto")).Fit(X, y), &ve))

	y3 := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		y3.Set(i, 0, float64(i%3))
	}
	assert.True(t, errors.As(NewSVC().Fit(X, y3), &ve))

	s := NewSVC()
	require.NoError(t, s.Fit(X, y))
	_, err = s.Predict(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestPlattMonotone(t *testing.T) {
	dec := []float64{-3, -2, -1.5, -1, -0.2, 0.3, 1, 1.4, 2, 3}
	pos := []bool{false, false, false, false, true, false, true, true, true, true}
	p := fitPlatt(dec, pos)
	assert.Less(t, p.A, 0.0)
	prev := 0.0
	for _, f := range dec {
		v := p.prob(f)
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestSVCParams(t *testing.T) {
	s := NewSVC()
	assert.Equal(t, "rbf", s.GetParams()["kernel"])
	require.NoError(t, s.SetParams(map[string]interface{}{"C": 2.0, "max_samples": 50}))
	assert.Equal(t, 2.0, s.C)
	assert.Equal(t, 50, s.maxSamples)
	assert.Error(t, s.SetParams(map[string]interface{}{"C": 2}))
	assert.Error(t, s.SetParams(map[string]interface{}{"shrinking": true}))

	s = NewSVC(WithGamma(0.5), WithTol(1e-2))
	assert.Equal(t, 0.5, s.GetParams()["gamma"])
	assert.Equal(t, 1e-2, s.GetParams()["tol"])

	l := NewLinearSVC(WithEpochs(5))
	assert.Equal(t, 5, l.GetParams()["max_iter"])
	require.NoError(t, l.SetParams(map[string]interface{}{"class_weight": "balanced"}))
	assert.Equal(t, "balanced", l.GetParams()["class_weight"])
}

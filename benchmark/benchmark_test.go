package benchmark

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/config"
	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/sklearn/naive_bayes"
)

// synthetic は x と color がラベルに相関し、z がノイズのフレーム
func synthetic(t *testing.T, n int, seed uint64) *dataset.Frame {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 1))
	x := make([]float64, n)
	z := make([]float64, n)
	color := make([]string, n)
	y := make([]string, n)
	for i := 0; i < n; i++ {
		pos := i%3 == 0
		x[i] = rng.NormFloat64()
		color[i] = []string{"red", "green", "blue"}[rng.IntN(3)]
		y[i] = "no"
		if pos {
			x[i] += 2.5
			y[i] = "yes"
			if rng.Float64() < 0.6 {
				color[i] = "red"
			}
		}
		z[i] = rng.NormFloat64()
	}
	f := dataset.NewFrame(n)
	require.NoError(t, f.AddNumeric("x", x))
	require.NoError(t, f.AddNumeric("z", z))
	require.NoError(t, f.AddCategorical("color", color))
	require.NoError(t, f.AddCategorical("y", y))
	return f
}

func partitions(t *testing.T) (*dataset.Frame, *dataset.Frame) {
	t.Helper()
	f := synthetic(t, 300, 7)
	split, err := dataset.Partition(f, "y", 0.3, 42)
	require.NoError(t, err)
	return f.Subset(split.Train), f.Subset(split.Validation)
}

func smallConfig() *config.Config {
	cfg := config.New()
	cfg.Set("models.knn.k", 5)
	cfg.Set("models.forest.n_estimators", 10)
	cfg.Set("models.gbm.n_estimators", 20)
	cfg.Set("models.adaboost.n_estimators", 10)
	cfg.Set("models.svm.max_samples", 150)
	cfg.Set("models.mlp.max_iter", 50)
	return cfg
}

func specByName(t *testing.T, name string) Spec {
	t.Helper()
	specs, err := Select(DefaultZoo(smallConfig()), []string{name})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	return specs[0]
}

func TestDefaultZoo(t *testing.T) {
	zoo := DefaultZoo(config.New())
	require.Len(t, zoo, 16)
	seen := make(map[string]bool)
	for _, s := range zoo {
		assert.False(t, seen[s.Name], "duplicate %s", s.Name)
		seen[s.Name] = true
		assert.NotEmpty(t, s.Family)
		// New は毎回新しいモデルを返す
		a, b := s.New(), s.New()
		assert.NotSame(t, a, b, s.Name)
	}
}

func TestSelect(t *testing.T) {
	zoo := DefaultZoo(config.New())

	all, err := Select(zoo, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(zoo))

	some, err := Select(zoo, []string{"mlp", " logistic"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "logistic", some[0].Name)
	assert.Equal(t, "mlp", some[1].Name)

	_, err = Select(zoo, []string{"xgboost"})
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestEvaluate(t *testing.T) {
	train, valid := partitions(t)
	trData, vaData, err := Prepare(train, valid, "y", dataset.OneHot)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "z", "color=blue", "color=green", "color=red"}, trData.Features)

	res, err := Evaluate(context.Background(), specByName(t, "logistic"), trData, vaData)
	require.NoError(t, err)
	assert.Equal(t, "logistic", res.Name)
	assert.Equal(t, Standard, res.Scale)
	assert.Greater(t, res.AUC, 0.85)
	assert.Greater(t, res.Accuracy, 0.75)
	assert.NotEmpty(t, res.FPR)
	assert.Equal(t, len(res.FPR), len(res.TPR))
	assert.NotNil(t, res.Params)
}

type panicking struct{ naive_bayes.GaussianNB }

func (panicking) Fit(_, _ mat.Matrix) error { panic("boom") }

type failing struct{ naive_bayes.GaussianNB }

func (failing) Fit(_, _ mat.Matrix) error { return errors.New("cannot fit") }

func TestEvaluateFailures(t *testing.T) {
	train, valid := partitions(t)
	trData, vaData, err := Prepare(train, valid, "y", dataset.OneHot)
	require.NoError(t, err)

	t.Run("panic", func(t *testing.T) {
		spec := Spec{Name: "panicky", New: func() model.Classifier { return &panicking{} }}
		_, err := Evaluate(context.Background(), spec, trData, vaData)
		var pe *errors.PanicError
		require.True(t, errors.As(err, &pe))
		assert.Contains(t, err.Error(), "boom")
	})
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Evaluate(ctx, specByName(t, "logistic"), trData, vaData)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunnerRun(t *testing.T) {
	train, valid := partitions(t)
	zoo, err := Select(DefaultZoo(smallConfig()), []string{"logistic", "gaussian_nb", "cart_gini"})
	require.NoError(t, err)

	results, err := NewRunner(train, valid, "y").Run(context.Background(), zoo)
	require.NoError(t, err)
	assert.NotEmpty(t, results.RunID)
	require.Len(t, results.Rows, 3)
	assert.Equal(t, "cart_gini", results.Rows[2].Name)
	assert.Equal(t, "ordinal", results.Rows[2].Encoding)
}

func TestRunnerFailFast(t *testing.T) {
	train, valid := partitions(t)
	zoo := []Spec{
		specByName(t, "gaussian_nb"),
		{Name: "broken", Family: "test", New: func() model.Classifier { return &failing{} }},
		specByName(t, "logistic"),
	}
	results, err := NewRunner(train, valid, "y").Run(context.Background(), zoo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot fit")
	require.Len(t, results.Rows, 1)
	assert.Equal(t, "gaussian_nb", results.Rows[0].Name)
}

func TestRunnerCancelled(t *testing.T) {
	train, valid := partitions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewRunner(train, valid, "y").Run(ctx, DefaultZoo(smallConfig()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results.Rows)
}

// 全モデルの指標が [0, 1] に収まる
func TestRunnerFullZoo(t *testing.T) {
	if testing.Short() {
		t.Skip("fits every model")
	}
	train, valid := partitions(t)
	results, err := NewRunner(train, valid, "y").Run(context.Background(), DefaultZoo(smallConfig()))
	require.NoError(t, err)
	require.Len(t, results.Rows, 16)
	for _, r := range results.Rows {
		for name, v := range map[string]float64{
			"accuracy": r.Accuracy, "f1": r.F1Macro, "auc": r.AUC,
			"ap": r.AveragePrecision, "brier": r.Brier,
		} {
			assert.True(t, v >= 0 && v <= 1, "%s %s = %v", r.Name, name, v)
		}
		assert.GreaterOrEqual(t, r.LogLoss, 0.0, r.Name)
	}
}

func sampleResults() *Results {
	return &Results{
		RunID: "run-1",
		Rows: []Result{
			{Name: "a", Family: "f", Accuracy: 0.80, AUC: 0.70, LogLoss: 0.40, Scale: Standard},
			{Name: "b", Family: "f", Accuracy: 0.90, AUC: 0.65, LogLoss: 0.30, FPR: []float64{0, 1}, TPR: []float64{0, 1}},
			{Name: "c", Family: "g", Accuracy: 0.85, AUC: 0.75, LogLoss: 0.50, Scale: MinMax},
		},
	}
}

func TestResultsSortAndBest(t *testing.T) {
	tests := []struct {
		metric string
		order  []string
	}{
		{MetricAccuracy, []string{"b", "c", "a"}},
		{MetricAUC, []string{"c", "a", "b"}},
		{MetricLogLoss, []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			rs := sampleResults()
			best, err := rs.Best(tt.metric)
			require.NoError(t, err)
			assert.Equal(t, tt.order[0], best.Name)

			require.NoError(t, rs.Sort(tt.metric))
			var got []string
			for _, r := range rs.Rows {
				got = append(got, r.Name)
			}
			assert.Equal(t, tt.order, got)
		})
	}

	rs := sampleResults()
	assert.Error(t, rs.Sort("speed"))
	_, err := (&Results{}).Best(MetricAUC)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestResultsOutputs(t *testing.T) {
	rs := sampleResults()

	table := rs.Table()
	for _, name := range []string{"model", "a", "b", "c", "0.9000"} {
		assert.Contains(t, table, name)
	}

	var buf bytes.Buffer
	require.NoError(t, rs.WriteJSON(&buf))
	assert.True(t, strings.Contains(buf.String(), `"run_id": "run-1"`))
	assert.Contains(t, buf.String(), `"scale": "minmax"`)
	assert.NotContains(t, buf.String(), "FPR")

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	require.Len(t, back.Rows, 3)
	assert.Equal(t, MinMax, back.Rows[2].Scale)
	assert.Equal(t, 0.9, back.Rows[1].Accuracy)

	curves := rs.ROCCurves()
	require.Len(t, curves, 1)
	assert.Equal(t, "b", curves[0].Name)

	bars, err := rs.Bars(MetricAUC)
	require.NoError(t, err)
	assert.Equal(t, 0.75, bars[2].Value)
}

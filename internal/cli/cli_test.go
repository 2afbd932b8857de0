package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBankCSV writes n rows in the bank-additional layout. Positive rows
// have a lower euribor3m and more previous contacts.
func writeBankCSV(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 9))
	var b strings.Builder
	b.WriteString(`"age";"job";"marital";"education";"default";"housing";"loan";"contact";"month";"day_of_week";"duration";"campaign";"pdays";"previous";"poutcome";"emp.var.rate";"cons.price.idx";"cons.conf.idx";"euribor3m";"nr.employed";"y"` + "\n")
	jobs := []string{"admin.", "services", "technician", "blue-collar"}
	months := []string{"may", "jun", "jul"}
	for i := 0; i < n; i++ {
		pos := i%4 == 0
		y, euribor, previous := "no", 4.8+rng.NormFloat64()*0.3, rng.IntN(2)
		pdays := 999
		if i%6 == 0 {
			pdays = 3 + rng.IntN(5)
		}
		if pos {
			y, euribor, previous = "yes", 1.2+rng.NormFloat64()*0.3, 1+rng.IntN(3)
		}
		fmt.Fprintf(&b, "%d;%q;%q;%q;%q;%q;%q;%q;%q;%q;%d;%d;%d;%d;%q;%.2f;%.3f;%.2f;%.3f;%.1f;%q\n",
			20+i%30, jobs[rng.IntN(len(jobs))], "married", "university.degree", "no", "yes", "no",
			"cellular", months[i%len(months)], "mon", 100+i, 1+rng.IntN(3), pdays, previous, "nonexistent",
			1.1+rng.NormFloat64()*0.1, 93.9+rng.Float64(), -36+rng.NormFloat64(), euribor, 5191+rng.NormFloat64()*10, y)
	}
	path := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestModelsCommand(t *testing.T) {
	out, err := execute(t, "models")
	require.NoError(t, err)
	for _, id := range []string{"logistic", "bernoulli_nb", "rbf_svm", "mlp", "ordinal", "minmax"} {
		assert.Contains(t, out, id)
	}
}

func TestExploreCommand(t *testing.T) {
	data := writeBankCSV(t, 200)
	outDir := t.TempDir()
	out, err := execute(t, "explore", "--data", data, "--output-dir", outDir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 200")
	assert.Contains(t, out, "chi-squared vs y")
	assert.Contains(t, out, "euribor3m")
	// duration は既定で除外される
	assert.NotContains(t, out, "duration")

	assert.FileExists(t, filepath.Join(outDir, "plots", "age.png"))
	assert.FileExists(t, filepath.Join(outDir, "plots", "job.png"))
}

func TestEvaluateCommand(t *testing.T) {
	data := writeBankCSV(t, 240)
	outDir := t.TempDir()
	out, err := execute(t, "evaluate",
		"--data", data,
		"--output-dir", outDir,
		"--models", "logistic,gaussian_nb,cart_gini",
		"--metric", "accuracy",
		"--log-format", "json",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "best by accuracy:")

	raw, err := os.ReadFile(filepath.Join(outDir, "results.json"))
	require.NoError(t, err)
	var report struct {
		RunID   string `json:"run_id"`
		Results []struct {
			Name     string  `json:"name"`
			Accuracy float64 `json:"accuracy"`
			AUC      float64 `json:"auc"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Results, 3)
	for i, r := range report.Results {
		assert.True(t, r.Accuracy >= 0 && r.Accuracy <= 1)
		assert.True(t, r.AUC >= 0 && r.AUC <= 1)
		if i > 0 {
			assert.LessOrEqual(t, r.Accuracy, report.Results[i-1].Accuracy)
		}
	}
	assert.FileExists(t, filepath.Join(outDir, "roc.png"))
	assert.FileExists(t, filepath.Join(outDir, "comparison_accuracy.png"))
}

func TestRunCommandWithoutPlots(t *testing.T) {
	data := writeBankCSV(t, 200)
	outDir := t.TempDir()
	out, err := execute(t, "run", "--data", data, "--output-dir", outDir, "--models", "lda", "--plots=false")
	require.NoError(t, err)
	assert.Contains(t, out, "numeric columns")
	assert.Contains(t, out, "lda")
	assert.FileExists(t, filepath.Join(outDir, "results.json"))
	assert.NoFileExists(t, filepath.Join(outDir, "roc.png"))
	assert.NoDirExists(t, filepath.Join(outDir, "plots"))
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown model", []string{"evaluate", "--models", "xgboost"}},
		{"missing data file", []string{"explore", "--data", "/nonexistent/bank.csv"}},
		{"bad log level", []string{"models", "--log-level", "loud"}},
		{"bad metric", []string{"evaluate", "--metric", "speed"}},
		{"missing config", []string{"models", "--config", "/nonexistent/termdeposit.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

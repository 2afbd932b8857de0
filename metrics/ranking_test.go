package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect ranking",
			yTrue: []float64{1, 1, 1, 0, 0},
			yPred: []float64{5, 4, 3, 2, 1},
			want:  1.0,
		},
		{
			name:  "Worst ranking",
			yTrue: []float64{1, 1, 1, 0, 0},
			yPred: []float64{1, 2, 3, 4, 5},
			want:  0.478, // Corrected: (1/3 + 2/4 + 3/5) / 3
		},
		{
			name:  "Mixed ranking",
			yTrue: []float64{1, 0, 1, 0, 1},
			yPred: []float64{0.9, 0.8, 0.7, 0.6, 0.5},
			want:  0.756, // Corrected: (1/1 + 2/3 + 3/5) / 3
		},
		{
			name:  "Single relevant",
			yTrue: []float64{0, 0, 1, 0, 0},
			yPred: []float64{0.1, 0.2, 0.3, 0.4, 0.5},
			want:  0.333, // 1/3
		},
		{
			name:  "No relevant items",
			yTrue: []float64{0, 0, 0, 0},
			yPred: []float64{1, 2, 3, 4},
			want:  0.0,
		},
		{
			name:  "All relevant",
			yTrue: []float64{1, 1, 1},
			yPred: []float64{3, 2, 1},
			want:  1.0,
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{1, 2, 3},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := AveragePrecision(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AveragePrecision() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 0.01 {
				t.Errorf("AveragePrecision() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Benchmark tests
func BenchmarkAveragePrecision(b *testing.B) {
	// Create test data
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			yTrue[i] = 1
		}
		yPred[i] = float64(i) / float64(n)
	}
	yTrueVec := mat.NewVecDense(n, yTrue)
	yPredVec := mat.NewVecDense(n, yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AveragePrecision(yTrueVec, yPredVec)
	}
}

func TestLiftAt(t *testing.T) {
	yTrue := mat.NewVecDense(10, []float64{1, 1, 0, 0, 0, 0, 0, 0, 0, 0})
	yScore := mat.NewVecDense(10, []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1, 0.0})

	// 上位20%は全て陽性、全体の陽性率は20%
	got, err := LiftAt(yTrue, yScore, 0.2)
	if err != nil {
		t.Fatalf("LiftAt() error = %v", err)
	}
	if math.Abs(got-5.0) > 1e-9 {
		t.Errorf("LiftAt() = %v, want 5", got)
	}

	got, err = LiftAt(yTrue, yScore, 1.0)
	if err != nil {
		t.Fatalf("LiftAt() error = %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("LiftAt(1.0) = %v, want 1", got)
	}

	if _, err := LiftAt(yTrue, yScore, 0); err == nil {
		t.Error("LiftAt(0) expected error")
	}
}

// Package preprocessing holds the feature scalers applied before the
// distance and gradient based classifiers (kNN, SVM, MLP, logistic).
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// constantScaleEps 以下の幅しかない列は定数列とみなし、スケール1を使う
const constantScaleEps = 1e-8

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

// StandardScaler は各列を平均0・標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	withMean bool
	withStd  bool

	// 学習済みパラメータ
	mean_  []float64
	scale_ []float64
}

// StandardScalerOption configures a StandardScaler.
type StandardScalerOption func(*StandardScaler)

// WithCentering toggles mean removal (default true).
func WithCentering(on bool) StandardScalerOption {
	return func(s *StandardScaler) { s.withMean = on }
}

// WithScaling toggles division by the population standard deviation (default true).
func WithScaling(on bool) StandardScalerOption {
	return func(s *StandardScaler) { s.withStd = on }
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler()
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(opts ...StandardScalerOption) *StandardScaler {
	s := &StandardScaler{
		state:    model.NewStateManager(),
		withMean: true,
		withStd:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit は各列の平均と標準偏差を学習する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.mean_ = make([]float64, c)
	s.scale_ = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		if s.withMean {
			s.mean_[j] = mean
		}
		s.scale_[j] = 1
		if s.withStd {
			if sd := math.Sqrt(variance); sd > constantScaleEps {
				s.scale_[j] = sd
			}
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は (x - mean) / scale を適用する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.mean_[j]) / s.scale_[j]
	}, X)
	return out, nil
}

// FitTransform は Fit と Transform を続けて実行する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.scale_[j] + s.mean_[j]
	}, X)
	return out, nil
}

// Mean returns the learned column means (zeros when centering is off).
func (s *StandardScaler) Mean() []float64 { return append([]float64(nil), s.mean_...) }

// Scale returns the learned column scales.
func (s *StandardScaler) Scale() []float64 { return append([]float64(nil), s.scale_...) }

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.withMean,
		"with_std":  s.withStd,
	}
}

func (s *StandardScaler) String() string {
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.withMean, s.withStd, nFeatures)
}

// MinMaxScaler は各列を featureRange（デフォルト[0,1]）に線形変換する
type MinMaxScaler struct {
	state *model.StateManager

	featureRange [2]float64

	dataMin_ []float64
	scale_   []float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する。lo >= hi は ValidationError。
func NewMinMaxScaler(lo, hi float64) (*MinMaxScaler, error) {
	if lo >= hi {
		return nil, errors.NewValidationError("feature_range", "lower bound must be below upper bound", [2]float64{lo, hi})
	}
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		featureRange: [2]float64{lo, hi},
	}, nil
}

// Fit は各列の最小値と幅を学習する。定数列の幅は1として扱う。
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	m.dataMin_ = make([]float64, c)
	m.scale_ = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.dataMin_[j] = lo
		m.scale_[j] = 1
		if hi-lo > constantScaleEps {
			m.scale_[j] = hi - lo
		}
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform は学習済みの範囲でデータをスケーリングする。範囲外の値はクリップしない。
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.Transform", c); err != nil {
		return nil, err
	}

	width := m.featureRange[1] - m.featureRange[0]
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v-m.dataMin_[j])/m.scale_[j]*width + m.featureRange[0]
	}, X)
	return out, nil
}

// FitTransform は Fit と Transform を続けて実行する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	width := m.featureRange[1] - m.featureRange[0]
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v-m.featureRange[0])/width*m.scale_[j] + m.dataMin_[j]
	}, X)
	return out, nil
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.featureRange,
	}
}

func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g])", m.featureRange[0], m.featureRange[1])
}

package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデル。y は n×1 のクラスラベル列。
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor はクラスラベルを n×1 の列で返す。
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer は (X, y) に対する平均正解率を返す。
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Transformer はスケーラなど、特徴量行列を変換する前処理。
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

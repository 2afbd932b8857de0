package benchmark

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/termdeposit/core/model"
	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/preprocessing"
)

// Data is an encoded partition: the design matrix, the 0/1 label column and
// the design-matrix column names.
type Data struct {
	X        *mat.Dense
	Y        *mat.VecDense
	Features []string
}

// Prepare fits an encoder on train and encodes both partitions with it.
func Prepare(train, valid *dataset.Frame, label string, encoding dataset.Encoding) (Data, Data, error) {
	enc := dataset.NewEncoder(encoding, label)
	if err := enc.Fit(train); err != nil {
		return Data{}, Data{}, errors.Wrap(err, "fit encoder")
	}
	Xtr, ytr, err := enc.Transform(train)
	if err != nil {
		return Data{}, Data{}, errors.Wrap(err, "encode training rows")
	}
	Xva, yva, err := enc.Transform(valid)
	if err != nil {
		return Data{}, Data{}, errors.Wrap(err, "encode validation rows")
	}
	names := enc.FeatureNames()
	return Data{X: Xtr, Y: ytr, Features: names}, Data{X: Xva, Y: yva, Features: names}, nil
}

// scale fits the requested scaler on the training matrix and applies it to
// both matrices.
func scale(s Scale, train, valid mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	var sc model.Transformer
	switch s {
	case NoScaling:
		return train, valid, nil
	case Standard:
		sc = preprocessing.NewStandardScaler()
	case MinMax:
		mm, err := preprocessing.NewMinMaxScaler(0, 1)
		if err != nil {
			return nil, nil, err
		}
		sc = mm
	default:
		return nil, nil, errors.NewValidationError("scale", "unknown scaling", int(s))
	}
	Xtr, err := sc.FitTransform(train)
	if err != nil {
		return nil, nil, err
	}
	Xva, err := sc.Transform(valid)
	if err != nil {
		return nil, nil, err
	}
	return Xtr, Xva, nil
}

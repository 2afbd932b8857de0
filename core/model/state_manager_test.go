package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()

	err := s.RequireFitted("GaussianNB", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "GaussianNB", nf.ModelName)
	assert.Equal(t, "Predict", nf.Method)

	s.SetDimensions(12, 300)
	s.SetFitted()
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("GaussianNB", "Predict"))
	assert.NoError(t, s.RequireFeatures("Predict", 12))

	err = s.RequireFeatures("Predict", 11)
	var dim *errors.DimensionError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 12, dim.Expected)
	assert.Equal(t, 11, dim.Got)

	s.Reset()
	assert.False(t, s.IsFitted())
	f, n := s.GetDimensions()
	assert.Zero(t, f)
	assert.Zero(t, n)
}

// Package prediction provides the 7-day return models and the artifacts they are loaded from.
package prediction

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when a feature vector has the wrong length
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	// ErrInvalidArtifact is returned when a model artifact cannot be turned into a model
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

// Model predicts a scalar return from an ordered feature vector
type Model interface {
	Name() string
	Predict(features []float64) (float64, error)
}

// PredictBatch runs the model over each row, stopping at the first failure
func PredictBatch(m Model, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		y, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("row %d: model %s produced non-finite output", i, m.Name())
		}
		out[i] = y
	}
	return out, nil
}

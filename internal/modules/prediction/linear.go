package prediction

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearModel is y = intercept + coefficients · x
type LinearModel struct {
	name         string
	Intercept    float64
	Coefficients []float64
}

// NewLinearModel creates a linear model
func NewLinearModel(name string, intercept float64, coefficients []float64) *LinearModel {
	if name == "" {
		name = "linear"
	}
	return &LinearModel{name: name, Intercept: intercept, Coefficients: coefficients}
}

// Name returns the model name
func (m *LinearModel) Name() string {
	return m.name
}

// Predict evaluates the model on features
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: model %s expects %d features, got %d",
			ErrDimensionMismatch, m.name, len(m.Coefficients), len(features))
	}
	return m.Intercept + floats.Dot(m.Coefficients, features), nil
}

// FitLinear fits an ordinary least squares model with an intercept.
// Each row of x is one observation; y holds the targets.
func FitLinear(name string, x [][]float64, y []float64) (*LinearModel, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, n, len(y))
	}

	p := len(x[0])
	if n < p+1 {
		return nil, fmt.Errorf("need at least %d rows to fit %d features, got %d", p+1, p, n)
	}

	// Design matrix with a leading column of ones for the intercept
	design := mat.NewDense(n, p+1, nil)
	for i, row := range x {
		if len(row) != p {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", ErrDimensionMismatch, i, len(row), p)
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("least squares solve failed: %w", err)
	}

	coefficients := make([]float64, p)
	for j := range coefficients {
		coefficients[j] = beta.AtVec(j + 1)
	}

	return NewLinearModel(name, beta.AtVec(0), coefficients), nil
}

// Package redistribution converts predicted token returns into normalized portfolio weights.
package redistribution

import (
	"errors"
	"fmt"
)

// Strategy is a named policy determining how predicted returns become weights
type Strategy string

const (
	// Preservation overweights tokens with the lowest predicted return (score = -return)
	Preservation Strategy = "Preservation"
	// Balanced squashes returns through a steep logistic curve (score = sigmoid(100 * return))
	Balanced Strategy = "Balanced"
	// Growth shifts returns so the worst token sits just above zero (score = return - min + epsilon)
	Growth Strategy = "Growth"

	// DefaultStrategy is used when a caller does not name one
	DefaultStrategy = Balanced
)

var (
	// ErrInvalidStrategy is returned for any strategy outside the supported set
	ErrInvalidStrategy = errors.New("invalid strategy")
	// ErrEmptyInput is returned when there are no predictions to weight
	ErrEmptyInput = errors.New("no predictions supplied")
	// ErrInvalidReturn is returned when a predicted return is NaN or infinite
	ErrInvalidReturn = errors.New("predicted return is not finite")
)

// StrategyInfo describes a strategy for API listings
type StrategyInfo struct {
	Name        Strategy `json:"name"`
	Description string   `json:"description"`
}

var strategies = []StrategyInfo{
	{
		Name:        Preservation,
		Description: "Favors tokens with the lowest predicted 7-day return; tokens predicted to rise get no weight",
	},
	{
		Name:        Balanced,
		Description: "Logistic weighting of predicted returns; every token keeps some weight, gainers get more",
	},
	{
		Name:        Growth,
		Description: "Weights proportional to predicted return above the worst token",
	},
}

// Strategies returns every supported strategy in presentation order
func Strategies() []StrategyInfo {
	out := make([]StrategyInfo, len(strategies))
	copy(out, strategies)
	return out
}

// ParseStrategy maps a wire name onto a Strategy. Names are case-sensitive.
// An empty name yields DefaultStrategy.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return DefaultStrategy, nil
	}

	s := Strategy(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
	}
	return s, nil
}

// Valid reports whether s is one of the supported strategies
func (s Strategy) Valid() bool {
	switch s {
	case Preservation, Balanced, Growth:
		return true
	}
	return false
}

func (s Strategy) String() string {
	return string(s)
}

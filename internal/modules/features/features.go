// Package features provides the per-token feature table consumed by the return model.
package features

import (
	"context"
	"errors"
)

// ErrTokenNotFound is returned when a token has no stored features
var ErrTokenNotFound = errors.New("no features found for token")

// TokenError names the token a lookup failed for. It matches ErrTokenNotFound.
type TokenError struct {
	Token string
}

func (e *TokenError) Error() string {
	return ErrTokenNotFound.Error() + ": " + e.Token
}

// Is reports ErrTokenNotFound as the cause
func (e *TokenError) Is(target error) bool {
	return target == ErrTokenNotFound
}

// Names lists the model inputs in the order Vector.Values emits them.
// Trained model artifacts must use the same order.
var Names = []string{
	"open", "high", "low", "close", "volume", "rsi",
	"macd", "macd_signal", "macd_diff",
	"bb_mavg", "bb_high", "bb_low", "bb_width",
}

// Vector holds the precomputed market features for one token.
// Return7d is the trailing 7-day return and is not a model input.
type Vector struct {
	Token      string  `json:"token"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	Return7d   float64 `json:"return_7d"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDDiff   float64 `json:"macd_diff"`
	BBMavg     float64 `json:"bb_mavg"`
	BBHigh     float64 `json:"bb_high"`
	BBLow      float64 `json:"bb_low"`
	BBWidth    float64 `json:"bb_width"`
}

// Values returns the model inputs ordered as Names
func (v Vector) Values() []float64 {
	return []float64{
		v.Open, v.High, v.Low, v.Close, v.Volume, v.RSI,
		v.MACD, v.MACDSignal, v.MACDDiff,
		v.BBMavg, v.BBHigh, v.BBLow, v.BBWidth,
	}
}

// Lookup resolves tokens to their feature vectors
type Lookup interface {
	Get(ctx context.Context, token string) (Vector, error)
	List(ctx context.Context) ([]Vector, error)
}

// Store is a Lookup that also accepts writes
type Store interface {
	Lookup
	Upsert(ctx context.Context, v Vector) error
	Delete(ctx context.Context, token string) error
}

package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

// Indicator windows match the settings the reference feature table was built with
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	BollingerPeriod  = 20
	BollingerStdDev  = 2.0
	ReturnHorizon    = 7

	// MinCandles is the shortest history that yields a defined value for every indicator
	MinCandles = MACDSlowPeriod + MACDSignalPeriod
)

// ErrInsufficientHistory is returned when too few candles are supplied
var ErrInsufficientHistory = errors.New("insufficient candle history")

// Candle is one OHLCV bar, oldest first when passed in a slice
type Candle struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// FromCandles computes a feature vector from daily candles ordered oldest first.
// OHLCV fields come from the most recent candle.
func FromCandles(token string, candles []Candle) (Vector, error) {
	if len(candles) < MinCandles {
		return Vector{}, fmt.Errorf("%w: need %d candles, got %d", ErrInsufficientHistory, MinCandles, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		if c.Close <= 0 || math.IsNaN(c.Close) || math.IsInf(c.Close, 0) {
			return Vector{}, fmt.Errorf("candle %d has invalid close %v", i, c.Close)
		}
		closes[i] = c.Close
	}

	last := len(closes) - 1
	rsi := talib.Rsi(closes, RSIPeriod)
	macd, signal, hist := talib.Macd(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
	upper, middle, lower := talib.BBands(closes, BollingerPeriod, BollingerStdDev, BollingerStdDev, talib.SMA)

	latest := candles[last]
	return Vector{
		Token:      token,
		Open:       latest.Open,
		High:       latest.High,
		Low:        latest.Low,
		Close:      latest.Close,
		Volume:     latest.Volume,
		Return7d:   closes[last]/closes[last-ReturnHorizon] - 1,
		RSI:        rsi[last],
		MACD:       macd[last],
		MACDSignal: signal[last],
		MACDDiff:   hist[last],
		BBMavg:     middle[last],
		BBHigh:     upper[last],
		BBLow:      lower[last],
		BBWidth:    upper[last] - lower[last],
	}, nil
}

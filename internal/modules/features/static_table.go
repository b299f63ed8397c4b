package features

import (
	"context"
	"sort"
)

// StaticTable is an immutable in-memory Lookup
type StaticTable struct {
	rows map[string]Vector
}

// NewStaticTable builds a table from the given vectors. Later vectors replace
// earlier ones with the same token.
func NewStaticTable(vectors ...Vector) *StaticTable {
	rows := make(map[string]Vector, len(vectors))
	for _, v := range vectors {
		rows[v.Token] = v
	}
	return &StaticTable{rows: rows}
}

// DefaultTable returns the reference snapshot for the supported BSC tokens
func DefaultTable() *StaticTable {
	return NewStaticTable(DefaultVectors()...)
}

// DefaultVectors returns the reference feature snapshot
func DefaultVectors() []Vector {
	return []Vector{
		{
			Token:      "WBNB",
			Open:       2.104,
			High:       2.144,
			Low:        2.084,
			Close:      2.128,
			Volume:     1754977.29,
			Return7d:   -0.148966165,
			RSI:        34.40640606,
			MACD:       -71.14468172,
			MACDSignal: -92.55785653,
			MACDDiff:   21.41317481,
			BBMavg:     2.25565,
			BBHigh:     2.535915067,
			BBLow:      1.975384933,
			BBWidth:    0.560530133,
		},
		{
			Token:      "CAKE",
			Open:       3059.7,
			High:       3110,
			Low:        2810,
			Close:      2981.78,
			Volume:     886994.3753,
			Return7d:   0.0510098,
			RSI:        23.28855242,
			MACD:       231.2758832,
			MACDSignal: 384.0359463,
			MACDDiff:   -152.7600631,
			BBMavg:     3404.759,
			BBHigh:     3702.510651,
			BBLow:      3107.007349,
			BBWidth:    595.5033025,
		},
		{
			Token:      "BUSD",
			Open:       0.4779,
			High:       0.5148,
			Low:        0.46,
			Close:      0.5018,
			Volume:     90601152.6,
			Return7d:   0.093264249,
			RSI:        38.27178987,
			MACD:       -1.121702073,
			MACDSignal: -1.516297356,
			MACDDiff:   0.394595283,
			BBMavg:     0.543485,
			BBHigh:     0.61100755,
			BBLow:      0.47596245,
			BBWidth:    0.1350451,
		},
	}
}

// Get returns the vector for token
func (t *StaticTable) Get(_ context.Context, token string) (Vector, error) {
	v, ok := t.rows[token]
	if !ok {
		return Vector{}, &TokenError{Token: token}
	}
	return v, nil
}

// List returns all vectors sorted by token
func (t *StaticTable) List(_ context.Context) ([]Vector, error) {
	out := make([]Vector, 0, len(t.rows))
	for _, v := range t.rows {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

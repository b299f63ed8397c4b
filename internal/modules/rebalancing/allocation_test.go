package rebalancing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocation_UnmarshalKeepsOrder(t *testing.T) {
	var a Allocation
	require.NoError(t, json.Unmarshal([]byte(`{"CAKE": 0.2, "WBNB": 0.5, "BUSD": 0.3}`), &a))

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, []string{"CAKE", "WBNB", "BUSD"}, a.Tokens())
	assert.Equal(t, AllocationEntry{Token: "WBNB", Weight: 0.5}, a.Entries()[1])
}

func TestAllocation_UnmarshalInRequest(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"strategy": "Growth", "allocation": {"Z": 1, "A": 0}}`), &req))

	assert.Equal(t, "Growth", req.Strategy)
	assert.Equal(t, []string{"Z", "A"}, req.Allocation.Tokens())
}

func TestAllocation_UnmarshalErrors(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected error
	}{
		{"array", `["A", "B"]`, ErrInvalidAllocation},
		{"string", `"A"`, ErrInvalidAllocation},
		{"non-number weight", `{"A": "half"}`, ErrInvalidAllocation},
		{"empty token", `{"": 1}`, ErrInvalidAllocation},
		{"duplicate token", `{"A": 0.5, "A": 0.5}`, ErrDuplicateToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var a Allocation
			err := json.Unmarshal([]byte(tc.body), &a)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestAllocation_NullAndEmpty(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"allocation": null}`), &req))
	assert.Zero(t, req.Allocation.Len())

	var a Allocation
	require.NoError(t, json.Unmarshal([]byte(`{}`), &a))
	assert.Zero(t, a.Len())
}

func TestAllocation_MarshalJSON(t *testing.T) {
	a, err := NewAllocation(
		AllocationEntry{Token: "CAKE", Weight: 0.25},
		AllocationEntry{Token: "BUSD", Weight: 0.75},
	)
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `{"CAKE":0.25,"BUSD":0.75}`, string(data))

	empty, err := json.Marshal(Allocation{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestNewAllocation_Errors(t *testing.T) {
	_, err := NewAllocation(AllocationEntry{Token: ""})
	assert.ErrorIs(t, err, ErrInvalidAllocation)

	_, err = NewAllocation(AllocationEntry{Token: "A"}, AllocationEntry{Token: "A"})
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

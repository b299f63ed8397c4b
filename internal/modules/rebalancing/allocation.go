package rebalancing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AllocationEntry is one token and its current weight
type AllocationEntry struct {
	Token  string
	Weight float64
}

// Allocation is a token to weight mapping that remembers key order.
// The JSON form is an object; keys keep the order they were sent in.
type Allocation struct {
	entries []AllocationEntry
}

// NewAllocation builds an allocation from ordered entries
func NewAllocation(entries ...AllocationEntry) (Allocation, error) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Token == "" {
			return Allocation{}, fmt.Errorf("%w: empty token", ErrInvalidAllocation)
		}
		if seen[e.Token] {
			return Allocation{}, fmt.Errorf("%w: %s", ErrDuplicateToken, e.Token)
		}
		seen[e.Token] = true
	}
	return Allocation{entries: entries}, nil
}

// Len returns the number of tokens
func (a Allocation) Len() int {
	return len(a.entries)
}

// Entries returns the entries in order
func (a Allocation) Entries() []AllocationEntry {
	out := make([]AllocationEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Tokens returns the tokens in order
func (a Allocation) Tokens() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Token
	}
	return out
}

// UnmarshalJSON decodes a JSON object while keeping key order
func (a *Allocation) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		a.entries = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAllocation, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected an object of token weights", ErrInvalidAllocation)
	}

	var entries []AllocationEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAllocation, err)
		}
		token, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: malformed key", ErrInvalidAllocation)
		}

		var weight float64
		if err := dec.Decode(&weight); err != nil {
			return fmt.Errorf("%w: weight for %s must be a number", ErrInvalidAllocation, token)
		}
		entries = append(entries, AllocationEntry{Token: token, Weight: weight})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAllocation, err)
	}

	parsed, err := NewAllocation(entries...)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the allocation as an object in entry order
func (a Allocation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range a.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Token)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Weight)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

package prover

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// byteList is a binary receipt field. The relay serializes receipts with
// serde, so byte vectors arrive as JSON arrays of integers in [0, 255].
type byteList []byte

func (b *byteList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = nil
		return nil
	}
	var vals []int64
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("expected an array of byte values: %w", err)
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 0xff {
			return fmt.Errorf("element %d: %d is not a byte value", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// MarshalJSON writes the same integer array the relay sends, never base64.
func (b byteList) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	vals := make([]uint16, len(b))
	for i, v := range b {
		vals[i] = uint16(v)
	}
	return json.Marshal(vals)
}

func (b byteList) clone() []byte {
	if len(b) == 0 {
		return nil
	}
	return bytes.Clone(b)
}

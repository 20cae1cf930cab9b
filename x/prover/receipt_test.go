package prover

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteList_DecodesRelayArrays(t *testing.T) {
	var r receipt
	require.NoError(t, json.Unmarshal([]byte(
		`{"inner":{"Groth16":{"seal":[49, 15, 229, 152]}},"journal":{"bytes":[0, 255]}}`), &r))

	resp := proveResponse{Receipt: &r}
	require.Equal(t, []byte{0x31, 0x0f, 0xe5, 0x98}, resp.seal())
	require.Equal(t, []byte{0x00, 0xff}, resp.journal())
}

func TestByteList_RejectsOtherShapes(t *testing.T) {
	cases := map[string]string{
		"hex string":    `"0xdeadbeef"`,
		"base64 string": `"AQI="`,
		"negative":      `[-1]`,
		"overflow":      `[256]`,
		"fraction":      `[1.5]`,
		"object":        `{"0":1}`,
		"nested":        `[[1]]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var b byteList
			require.Error(t, json.Unmarshal([]byte(raw), &b))
		})
	}
}

func TestByteList_NullAndEmpty(t *testing.T) {
	var b byteList
	require.NoError(t, json.Unmarshal([]byte(`null`), &b))
	require.Nil(t, b)
	require.Nil(t, b.clone())

	require.NoError(t, json.Unmarshal([]byte(`[]`), &b))
	require.Empty(t, b)
	require.Nil(t, b.clone())
}

func TestByteList_EncodesAsArray(t *testing.T) {
	out, err := json.Marshal(groth16Receipt{Seal: byteList{1, 2, 255}})
	require.NoError(t, err)
	require.JSONEq(t, `{"seal":[1,2,255]}`, string(out))

	var back groth16Receipt
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, byteList{1, 2, 255}, back.Seal)
}

func TestByteList_CloneIsIndependent(t *testing.T) {
	b := byteList{1, 2, 3}
	c := b.clone()
	c[0] = 9
	require.Equal(t, byte(1), b[0])
}

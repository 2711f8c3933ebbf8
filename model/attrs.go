package model

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Attributes is a component's or account's dynamic attribute set: a name to an
// absolute, big-endian encoded integer value. Values marshal as lowercase
// 0x-prefixed hex, matching hexutil.Bytes, which this type delegates to directly.
type Attributes map[string][]byte

func (a Attributes) MarshalJSON() ([]byte, error) {
	out := make(map[string]hexutil.Bytes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return json.Marshal(out)
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var in map[string]hexutil.Bytes
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Attributes, len(in))
	for k, v := range in {
		out[k] = []byte(v)
	}
	*a = out
	return nil
}

// BigEndian encodes v as a minimal big-endian byte string, the encoding every
// integer attribute value uses unless a protocol specifies otherwise.
func BigEndian(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

// FromBigEndian decodes a big-endian attribute value back into an integer.
func FromBigEndian(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

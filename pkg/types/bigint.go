package types

import (
	"encoding/json"
	"math/big"
	"reflect"
)

// BigInt is a wrapper around *big.Int that provides custom JSON marshaling/unmarshaling
type BigInt struct {
	*big.Int
}

// NewBigInt creates a new BigInt from a *big.Int
func NewBigInt(i *big.Int) *BigInt {
	if i == nil {
		return nil
	}
	return &BigInt{Int: i}
}

// MarshalJSON implements json.Marshaler interface
func (b *BigInt) MarshalJSON() ([]byte, error) {
	if b == nil || b.Int == nil {
		return []byte("null"), nil
	}
	// Marshal as string to avoid scientific notation
	return json.Marshal(b.Int.String())
}

// UnmarshalJSON implements json.Unmarshaler interface
func (b *BigInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		b.Int = nil
		return nil
	}

	// Only accept string format for 256-bit integers
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return &json.UnmarshalTypeError{
			Value:  string(data),
			Type:   reflect.TypeOf(""),
			Struct: "BigInt",
			Field:  "Int",
		}
	}

	i, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return &json.UnmarshalTypeError{
			Value:  "string",
			Type:   reflect.TypeOf(big.Int{}),
			Struct: "BigInt",
			Field:  "Int",
		}
	}
	b.Int = i
	return nil
}

// ToBigInt converts BigInt to *big.Int
func (b *BigInt) ToBigInt() *big.Int {
	if b == nil {
		return nil
	}
	return b.Int
}

package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
)

// BigInt stores an arbitrary precision integer in a numeric column.
// A nil Int is stored as NULL.
type BigInt struct {
	Int *big.Int
}

func NewBigInt(v *big.Int) BigInt {
	if v == nil {
		return BigInt{}
	}
	return BigInt{Int: new(big.Int).Set(v)}
}

func (b BigInt) Value() (driver.Value, error) {
	if b.Int == nil {
		return nil, nil
	}
	return b.Int.String(), nil
}

func (b *BigInt) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		b.Int = nil
		return nil
	case int64:
		b.Int = big.NewInt(v)
		return nil
	case float64:
		return b.setString(strconv.FormatFloat(v, 'f', -1, 64))
	case []byte:
		return b.setString(string(v))
	case string:
		return b.setString(v)
	default:
		return fmt.Errorf("cannot scan %T into BigInt", src)
	}
}

func (b *BigInt) setString(s string) error {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", s)
	}
	b.Int = v
	return nil
}

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountBits is the width of the unsigned integer backing an Amount.
const AmountBits = 512

// Amount errors.
var (
	ErrAmountOverflow  = errors.New("types: amount overflow")
	ErrAmountUnderflow = errors.New("types: amount underflow")
	ErrAmountInvalid   = errors.New("types: invalid amount")
)

var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), AmountBits), big.NewInt(1))

// Amount is a non-negative quantity of the native asset in its smallest unit.
// It is bounded to AmountBits bits; arithmetic fails instead of wrapping.
// The zero value is 0 and Amounts are immutable.
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for UnmarshalText/Scan.
type Amount struct {
	v *big.Int
}

// NewAmount returns an Amount holding n.
func NewAmount(n uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(n)}
}

// AmountFromBig copies b into an Amount. Negative or oversized values fail.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: negative value %s", ErrAmountInvalid, b)
	}
	if b.Cmp(maxAmount) > 0 {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{v: new(big.Int).Set(b)}, nil
}

// ParseAmount parses a base-10 string. The empty string parses as zero.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, nil
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrAmountInvalid, s)
	}
	return AmountFromBig(b)
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MaxAmount returns the largest representable Amount (2^512 - 1).
func MaxAmount() Amount {
	return Amount{v: new(big.Int).Set(maxAmount)}
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int { return new(big.Int).Set(a.big()) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v == nil || a.v.Sign() == 0 }

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// Add returns a + b, or ErrAmountOverflow if the sum exceeds MaxAmount.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := new(big.Int).Add(a.big(), b.big())
	if sum.Cmp(maxAmount) > 0 {
		return a, ErrAmountOverflow
	}
	return Amount{v: sum}, nil
}

// Sub returns a - b, or ErrAmountUnderflow if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.LessThan(b) {
		return a, ErrAmountUnderflow
	}
	return Amount{v: new(big.Int).Sub(a.big(), b.big())}, nil
}

// MulUint64 returns a * n, or ErrAmountOverflow.
func (a Amount) MulUint64(n uint64) (Amount, error) {
	p := new(big.Int).Mul(a.big(), new(big.Int).SetUint64(n))
	if p.Cmp(maxAmount) > 0 {
		return a, ErrAmountOverflow
	}
	return Amount{v: p}, nil
}

// String returns the base-10 representation.
func (a Amount) String() string { return a.big().String() }

// Format renders the amount in major units given the number of decimal
// places of the asset, e.g. Format(9) renders motes as CSPR.
func (a Amount) Format(decimals int32) string {
	return decimal.NewFromBigInt(a.big(), -decimals).String()
}

// Float64 returns the nearest float64, for metrics only.
func (a Amount) Float64() float64 {
	return decimal.NewFromBigInt(a.big(), 0).InexactFloat64()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer. Amounts are stored as base-10 text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: negative value %d", ErrAmountInvalid, v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}

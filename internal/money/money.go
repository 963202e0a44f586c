// Package money provides an exact currency amount counted in minor units.
//
// All arithmetic stays on integers. Scaling by a ratio goes through
// math/big so that no floating point value ever decides a rounded cent.
package money

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest currency unit (cents, pence, yen).
type Money int64

var (
	// ErrTooPrecise is returned by Parse when the input has more fractional
	// digits than the currency's minor unit allows.
	ErrTooPrecise = errors.New("money: more fractional digits than the currency allows")
	// ErrOverflow is returned when a value does not fit in 63 bits of minor units.
	ErrOverflow = errors.New("money: amount out of range")
)

// Add returns m + o.
func (m Money) Add(o Money) Money { return m + o }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return m - o }

// Neg returns -m.
func (m Money) Neg() Money { return -m }

// Abs returns |m|.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Sign returns -1, 0 or 1.
func (m Money) Sign() int {
	switch {
	case m < 0:
		return -1
	case m > 0:
		return 1
	}
	return 0
}

// IsZero reports whether m is zero.
func (m Money) IsZero() bool { return m == 0 }

// Equal reports whether m and o are the same amount.
func (m Money) Equal(o Money) bool { return m == o }

// Int64 returns the raw minor-unit count.
func (m Money) Int64() int64 { return int64(m) }

// String returns the minor-unit count in base 10.
func (m Money) String() string { return strconv.FormatInt(int64(m), 10) }

// Scale returns m*r rounded to the nearest minor unit, halves away from zero.
func (m Money) Scale(r *big.Rat) Money {
	num := new(big.Int).Mul(big.NewInt(int64(m)), r.Num())
	return Money(divRound(num, r.Denom()))
}

// Ratio returns the exact fraction a/b. It panics if b is zero.
func Ratio(a, b Money) *big.Rat {
	return big.NewRat(int64(a), int64(b))
}

// Sum adds all values.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total += v
	}
	return total
}

// divRound divides num by den and rounds half away from zero.
func divRound(num, den *big.Int) int64 {
	if den.Sign() < 0 {
		num = new(big.Int).Neg(num)
		den = new(big.Int).Neg(den)
	}
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	twice := new(big.Int).Abs(r)
	twice.Lsh(twice, 1)
	if twice.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	if !q.IsInt64() {
		panic(ErrOverflow)
	}
	return q.Int64()
}

// Decimals returns the number of minor-unit digits for an ISO 4217 code.
func Decimals(currency string) int32 {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "vnd", "clp", "pyg", "idr", "isk", "xof", "xaf":
		return 0
	case "bhd", "kwd", "omr", "tnd", "jod":
		return 3
	}
	return 2
}

// Parse converts a major-unit string ("12.50") into minor units.
func Parse(s string, decimals int32) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("parsing amount %q: %w", s, ErrTooPrecise)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("parsing amount %q: %w", s, ErrOverflow)
	}
	return Money(shifted.IntPart()), nil
}

// Decimal returns m in major units.
func (m Money) Decimal(decimals int32) decimal.Decimal {
	return decimal.New(int64(m), -decimals)
}

// Format renders m in major units with exactly decimals fractional digits.
func (m Money) Format(decimals int32) string {
	return m.Decimal(decimals).StringFixed(decimals)
}

// Package amount centralizes the arbitrary-precision money type used across
// the execution engine: parsing/encoding of the 32-char zero-padded wire
// format, arithmetic, comparison, and percent-of-basis-points helpers.
// Every public monetary input crosses the account/handler boundary through
// this type exactly once (see DESIGN.md, "Unified big-integer policy").
package amount

import (
	"fmt"
	"math/big"
	"strings"
)

// WireWidth is the fixed width of the persisted zero-padded decimal string.
// Values (including the '-' sign for negatives) must fit within it.
const WireWidth = 32

// Amount is a signed arbitrary-precision integer in a token's raw (smallest)
// unit. Display/human values are derived by dividing by 10^decimals.
type Amount struct {
	v *big.Int
}

// Zero is the additive identity.
func Zero() *Amount { return &Amount{v: big.NewInt(0)} }

// FromInt64 builds an Amount from a native integer (tests, constants).
func FromInt64(n int64) *Amount { return &Amount{v: big.NewInt(n)} }

// FromBigInt takes ownership of a copy of v.
func FromBigInt(v *big.Int) *Amount { return &Amount{v: new(big.Int).Set(v)} }

// Parse decodes the 32-char zero-padded wire format (optionally '-' prefixed)
// into an Amount. Whitespace is not tolerated; malformed input is an error.
func Parse(s string) (*Amount, error) {
	if s == "" {
		return nil, fmt.Errorf("amount: empty string")
	}
	neg := false
	digits := s
	if strings.HasPrefix(s, "-") {
		neg = true
		digits = s[1:]
	}
	if len(digits) == 0 {
		return nil, fmt.Errorf("amount: no digits in %q", s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("amount: non-digit rune in %q", s)
		}
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("amount: cannot parse %q", s)
	}
	if neg {
		v.Neg(v)
	}
	return &Amount{v: v}, nil
}

// Encode renders the amount as a zero-padded 32-char decimal string.
// Returns an error if the unsigned digit count exceeds WireWidth (minus the
// sign character for negatives) -- the wire format rejects oversized writes.
func (a *Amount) Encode() (string, error) {
	digits := new(big.Int).Abs(a.v).String()
	width := WireWidth
	sign := ""
	if a.v.Sign() < 0 {
		sign = "-"
		width--
	}
	if len(digits) > width {
		return "", fmt.Errorf("amount: %s exceeds %d-digit wire width", a.v.String(), width)
	}
	return sign + strings.Repeat("0", width-len(digits)) + digits, nil
}

// MustEncode panics on overflow; used where the caller has already bounds
// checked (tests, internal bookkeeping paths that cannot overflow).
func (a *Amount) MustEncode() string {
	s, err := a.Encode()
	if err != nil {
		panic(err)
	}
	return s
}

func (a *Amount) Big() *big.Int { return new(big.Int).Set(a.v) }

func (a *Amount) Add(b *Amount) *Amount { return &Amount{v: new(big.Int).Add(a.v, b.v)} }
func (a *Amount) Sub(b *Amount) *Amount { return &Amount{v: new(big.Int).Sub(a.v, b.v)} }
func (a *Amount) Neg() *Amount          { return &Amount{v: new(big.Int).Neg(a.v)} }

// Mul multiplies two raw amounts (used internally by formulas that already
// track decimal scaling explicitly; most callers want MulDiv).
func (a *Amount) Mul(b *Amount) *Amount { return &Amount{v: new(big.Int).Mul(a.v, b.v)} }

// MulDiv computes floor(a * num / den) using full big-int precision,
// avoiding the double-truncation error of separate Mul then Div calls.
func (a *Amount) MulDiv(num, den int64) *Amount {
	t := new(big.Int).Mul(a.v, big.NewInt(num))
	t.Quo(t, big.NewInt(den))
	return &Amount{v: t}
}

// Div performs truncating integer division (toward zero), matching the
// source's integer-division semantics for swap/fee math.
func (a *Amount) Div(b *Amount) *Amount { return &Amount{v: new(big.Int).Quo(a.v, b.v)} }

// PercentOf returns floor(a * bps / 10000).
func (a *Amount) PercentOf(bps int64) *Amount { return a.MulDiv(bps, 10000) }

func (a *Amount) Cmp(b *Amount) int  { return a.v.Cmp(b.v) }
func (a *Amount) IsZero() bool       { return a.v.Sign() == 0 }
func (a *Amount) IsNeg() bool        { return a.v.Sign() < 0 }
func (a *Amount) IsPositive() bool   { return a.v.Sign() > 0 }
func (a *Amount) GT(b *Amount) bool  { return a.Cmp(b) > 0 }
func (a *Amount) GTE(b *Amount) bool { return a.Cmp(b) >= 0 }
func (a *Amount) LT(b *Amount) bool  { return a.Cmp(b) < 0 }
func (a *Amount) LTE(b *Amount) bool { return a.Cmp(b) <= 0 }

// Min returns the smaller of the two amounts.
func Min(a, b *Amount) *Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Sqrt computes the integer square root (used for first-deposit LP minting).
func (a *Amount) Sqrt() *Amount { return &Amount{v: new(big.Int).Sqrt(a.v)} }

// String returns the plain (unpadded) decimal representation.
func (a *Amount) String() string { return a.v.String() }

// Human divides by 10^decimals and formats with that many fractional digits,
// trimming trailing zeros (but keeping at least one digit after the point
// when the value isn't a whole number).
func (a *Amount) Human(decimals int) string {
	if decimals <= 0 {
		return a.v.String()
	}
	neg := a.v.Sign() < 0
	digits := new(big.Int).Abs(a.v).String()
	for len(digits) <= decimals {
		digits = "0" + digits
	}
	intPart := digits[:len(digits)-decimals]
	fracPart := strings.TrimRight(digits[len(digits)-decimals:], "0")
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fullmath implements overflow-safe fixed-point arithmetic for
// fee-growth delta accounting. Fee growth is tracked as a Q128.128
// accumulator; the delta earned since a stored checkpoint is the
// modular difference of two accumulator readings, scaled by position
// liquidity and divided back down by 2^128. The intermediate product
// can exceed 256 bits, so the multiply-divide is widened to 512 bits
// before the result is narrowed back.
package fullmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Q128 is the fixed-point scale (2^128) used for fee-growth checkpoints.
var Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

var (
	ErrDivisionByZero = errors.New("fullmath: division by zero")
	ErrMulDivOverflow = errors.New("fullmath: muldiv result exceeds 256 bits")
)

// MulDiv computes floor(a*b/denominator) with full intermediate
// precision. The product a*b may exceed 256 bits as long as the final
// quotient fits; a quotient that does not fit is an error, never a
// silent truncation.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a.ToBig(), b.ToBig())
	product.Div(product, denominator.ToBig())
	result, overflow := uint256.FromBig(product)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	return result, nil
}

// SubIn256 returns a-b modulo 2^256. Fee-growth accumulators are
// allowed to wrap; the delta since a stored checkpoint stays exact
// under modular subtraction even after the accumulator overflows, so
// this must never be computed as a signed difference.
func SubIn256(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(a, b)
}

// Min returns the smaller of a and b without aliasing either input.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) <= 0 {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

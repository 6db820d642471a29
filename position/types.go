// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package position implements the liquidity-position subtype of the
// asset ledger: each token wraps a pool position with checkpointed
// fee accrual, min-capped collection, and a single operator slot in
// place of the generic unbounded operator set.
package position

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	ErrInvalidTickRange      = errors.New("position: invalid tick range")
	ErrInsufficientLiquidity = errors.New("position: removal exceeds current liquidity")
	ErrPositionNotCleared    = errors.New("position: liquidity or owed amounts not zero")
	ErrDuplicateOperator     = errors.New("position: operator already set to this account")
	ErrOperatorMismatch      = errors.New("position: operator does not match current slot")
	ErrUnknownPool           = errors.New("position: pool key not cached")
)

// PoolKey uniquely identifies a pool. Token addresses are sorted
// (Token0 < Token1) by convention of the pool collaborator.
type PoolKey struct {
	Token0 common.Address
	Token1 common.Address
	Fee    uint32
}

// ID computes the unique pool identifier.
func (pk PoolKey) ID() common.Hash {
	h := blake3.New()
	h.Write(pk.Token0.Bytes())
	h.Write(pk.Token1.Bytes())

	var feeBytes [4]byte
	binary.BigEndian.PutUint32(feeBytes[:], pk.Fee)
	h.Write(feeBytes[:])

	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

// FeeSnapshot is the pool's view of a position's range at query time.
// Fee growth values are Q128.128 and wrap modulo 2^256.
type FeeSnapshot struct {
	Liquidity            uint256.Int
	FeeGrowthInside0X128 uint256.Int
	FeeGrowthInside1X128 uint256.Int
	TokensOwed0          uint256.Int
	TokensOwed1          uint256.Int
}

// Pool is the liquidity pool collaborator. Consumed, never implemented
// here; the manager trusts its accounting.
type Pool interface {
	// Positions returns the pool-side state of the range position.
	Positions(key PoolKey, tickLower, tickUpper int32) (FeeSnapshot, error)
	// Burn removes liquidity from the range and returns the principal
	// amounts released.
	Burn(key PoolKey, tickLower, tickUpper int32, liquidity *uint256.Int) (amount0, amount1 *uint256.Int, err error)
	// Collect pays out up to the requested amounts to recipient and
	// returns what was actually paid.
	Collect(key PoolKey, recipient common.Address, tickLower, tickUpper int32, amount0Max, amount1Max *uint256.Int) (amount0, amount1 *uint256.Int, err error)
}

// Position is the per-token fee-accounting record. All numeric fields
// are value types so a whole-struct copy is a complete snapshot.
type Position struct {
	PoolID    uint16
	TickLower int32
	TickUpper int32

	Liquidity uint256.Int

	// Fee growth checkpoints, advanced on every accrual pass.
	FeeGrowthInside0Last uint256.Int
	FeeGrowthInside1Last uint256.Int

	// Fees owed to the owner, decremented only by collect.
	TokensOwed0 uint256.Int
	TokensOwed1 uint256.Int
}

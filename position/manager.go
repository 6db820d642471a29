// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/Universal-Swaps/protocol-contracts/fullmath"
	"github.com/Universal-Swaps/protocol-contracts/ledger"
	"github.com/Universal-Swaps/protocol-contracts/receiver"
	"github.com/Universal-Swaps/protocol-contracts/token"
)

// Manager is the position fee-accounting engine. It layers position
// records over the token ledger, sharing one journal so a failure
// anywhere in an operation reverts both the position record and the
// ownership state.
//
// Pool mutations (Burn, Collect) are issued only after all fallible
// local checks pass; ledger mutations with notification callbacks run
// last, so their buffered audit records never outlive a revert.
type Manager struct {
	nft     *token.Token
	pool    Pool
	journal *ledger.Journal
	slot    *operatorSlot
	sink    token.LogSink
	log     log.Logger

	positions map[ledger.TokenID]*Position
	nextToken uint64

	keys      map[uint16]PoolKey
	keyIDs    map[common.Hash]uint16
	nextKeyID uint16
}

func NewManager(pool Pool, reg *receiver.Registry, sink token.LogSink, logger log.Logger) *Manager {
	journal := ledger.NewJournal()
	slot := newOperatorSlot(journal)
	return &Manager{
		nft:       token.NewWithBook(PositionManagerAddress, journal, slot, reg, sink, logger),
		pool:      pool,
		journal:   journal,
		slot:      slot,
		sink:      sink,
		log:       logger,
		positions: make(map[ledger.TokenID]*Position),
		nextToken: 1,
		keys:      make(map[uint16]PoolKey),
		keyIDs:    make(map[common.Hash]uint16),
		nextKeyID: 1,
	}
}

// NFT exposes the underlying token ledger: ownership views, transfer,
// and the single-slot authorize/revoke entry points.
func (m *Manager) NFT() *token.Token { return m.nft }

// PositionOf returns a copy of the token's position record.
func (m *Manager) PositionOf(id ledger.TokenID) (Position, error) {
	p, ok := m.positions[id]
	if !ok {
		return Position{}, ledger.ErrNotFound
	}
	return *p, nil
}

// PoolKeyOf returns the pool key the token's position belongs to.
func (m *Manager) PoolKeyOf(id ledger.TokenID) (PoolKey, error) {
	p, ok := m.positions[id]
	if !ok {
		return PoolKey{}, ledger.ErrNotFound
	}
	key, ok := m.keys[p.PoolID]
	if !ok {
		return PoolKey{}, ErrUnknownPool
	}
	return key, nil
}

// OperatorOf returns the token's operator slot, zero when empty.
func (m *Manager) OperatorOf(id ledger.TokenID) common.Address {
	ops := m.slot.OperatorsOf(id)
	if len(ops) == 0 {
		return common.Address{}
	}
	return ops[0]
}

// CachePoolKey maps key to a small pool ID, assigning one on first
// use. Idempotent: the same key always yields the same ID.
func (m *Manager) CachePoolKey(key PoolKey) uint16 {
	m.journal.Begin()
	defer m.journal.End()
	return m.cachePoolKey(key)
}

// MintPosition creates a position token owned by to against the given
// pool range. The fee growth checkpoints are initialized to the pool's
// current values so no pre-mint fees are attributed to the position.
func (m *Manager) MintPosition(caller, to common.Address, key PoolKey, tickLower, tickUpper int32, liquidity *uint256.Int, data []byte, force bool) (ledger.TokenID, error) {
	if tickLower >= tickUpper {
		return ledger.TokenID{}, ErrInvalidTickRange
	}
	rev := m.journal.Begin()
	defer m.journal.End()

	snap, err := m.pool.Positions(key, tickLower, tickUpper)
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return ledger.TokenID{}, err
	}

	poolID := m.cachePoolKey(key)
	id := m.allocTokenID()
	p := &Position{
		PoolID:               poolID,
		TickLower:            tickLower,
		TickUpper:            tickUpper,
		Liquidity:            *liquidity,
		FeeGrowthInside0Last: snap.FeeGrowthInside0X128,
		FeeGrowthInside1Last: snap.FeeGrowthInside1X128,
	}
	m.positions[id] = p
	m.journal.Record(func() { delete(m.positions, id) })

	logs, err := m.packLog("LiquidityIncreased", common.Hash(id), caller, liquidity.ToBig())
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return ledger.TokenID{}, err
	}
	if err := m.nft.Mint(caller, to, id, data, force); err != nil {
		m.journal.RevertToSnapshot(rev)
		return ledger.TokenID{}, err
	}
	m.flush(logs)
	if m.log != nil {
		m.log.Debug("minted position", "id", id.Hex(), "owner", to.Hex(), "pool", poolID)
	}
	return id, nil
}

// IncreaseLiquidity accrues fees owed since the last checkpoint using
// the pre-change liquidity, then adds delta. A zero delta is a pure
// accrual pass.
func (m *Manager) IncreaseLiquidity(caller common.Address, id ledger.TokenID, delta *uint256.Int) error {
	rev := m.journal.Begin()
	defer m.journal.End()

	p, key, err := m.authorized(caller, id)
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	m.touch(p)
	if err := m.accrue(p, key); err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	p.Liquidity.Add(&p.Liquidity, delta)

	logs, err := m.packLog("LiquidityIncreased", common.Hash(id), caller, delta.ToBig())
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	m.flush(logs)
	return nil
}

// DecreaseLiquidity accrues fees using the pre-removal liquidity,
// burns delta liquidity from the pool, and credits the released
// principal to the owed accumulators.
func (m *Manager) DecreaseLiquidity(caller common.Address, id ledger.TokenID, delta *uint256.Int) error {
	rev := m.journal.Begin()
	defer m.journal.End()

	p, key, err := m.authorized(caller, id)
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	if p.Liquidity.IsZero() || delta.Gt(&p.Liquidity) {
		m.journal.RevertToSnapshot(rev)
		return ErrInsufficientLiquidity
	}
	m.touch(p)
	if err := m.accrue(p, key); err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	amount0, amount1, err := m.pool.Burn(key, p.TickLower, p.TickUpper, delta)
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	p.Liquidity.Sub(&p.Liquidity, delta)
	p.TokensOwed0.Add(&p.TokensOwed0, amount0)
	p.TokensOwed1.Add(&p.TokensOwed1, amount1)

	logs, err := m.packLog("LiquidityDecreased", common.Hash(id), caller, delta.ToBig(), amount0.ToBig(), amount1.ToBig())
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	m.flush(logs)
	return nil
}

// Collect pays owed fees out to recipient, capped per side at the
// requested maximum and at the owed amount. When the position still
// has liquidity, a zero-delta accrual pass runs first so fees earned
// since the last touch are included.
func (m *Manager) Collect(caller common.Address, id ledger.TokenID, recipient common.Address, amount0Max, amount1Max *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	rev := m.journal.Begin()
	defer m.journal.End()

	p, key, err := m.authorized(caller, id)
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return nil, nil, err
	}
	m.touch(p)
	if !p.Liquidity.IsZero() {
		if err := m.accrue(p, key); err != nil {
			m.journal.RevertToSnapshot(rev)
			return nil, nil, err
		}
	}
	want0 := fullmath.Min(amount0Max, &p.TokensOwed0)
	want1 := fullmath.Min(amount1Max, &p.TokensOwed1)

	got0, got1, err := m.pool.Collect(key, recipient, p.TickLower, p.TickUpper, want0, want1)
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return nil, nil, err
	}
	got0 = fullmath.Min(got0, want0)
	got1 = fullmath.Min(got1, want1)
	p.TokensOwed0.Sub(&p.TokensOwed0, got0)
	p.TokensOwed1.Sub(&p.TokensOwed1, got1)

	logs, err := m.packLog("FeesCollected", common.Hash(id), recipient, got0.ToBig(), got1.ToBig())
	if err != nil {
		m.journal.RevertToSnapshot(rev)
		return nil, nil, err
	}
	m.flush(logs)
	return got0, got1, nil
}

// BurnPosition destroys the token and its position record. The record
// must be fully cleared first: zero liquidity and zero owed amounts.
// The record is deleted before the ledger burn so the former owner's
// notification callback never sees a record outliving its token.
func (m *Manager) BurnPosition(caller common.Address, id ledger.TokenID, data []byte) error {
	rev := m.journal.Begin()
	defer m.journal.End()

	p, ok := m.positions[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if !p.Liquidity.IsZero() || !p.TokensOwed0.IsZero() || !p.TokensOwed1.IsZero() {
		return ErrPositionNotCleared
	}
	delete(m.positions, id)
	m.journal.Record(func() { m.positions[id] = p })
	if err := m.nft.Burn(caller, id, data); err != nil {
		m.journal.RevertToSnapshot(rev)
		return err
	}
	if m.log != nil {
		m.log.Debug("burned position", "id", id.Hex())
	}
	return nil
}

// accrue pulls the pool's current fee growth and credits the owed
// accumulators with the checkpoint delta scaled by current liquidity.
// The subtraction wraps modulo 2^256, matching the pool's growth
// counters; the multiply widens through 512 bits before the divide.
func (m *Manager) accrue(p *Position, key PoolKey) error {
	snap, err := m.pool.Positions(key, p.TickLower, p.TickUpper)
	if err != nil {
		return err
	}
	fees0, err := fullmath.MulDiv(fullmath.SubIn256(&snap.FeeGrowthInside0X128, &p.FeeGrowthInside0Last), &p.Liquidity, fullmath.Q128)
	if err != nil {
		return err
	}
	fees1, err := fullmath.MulDiv(fullmath.SubIn256(&snap.FeeGrowthInside1X128, &p.FeeGrowthInside1Last), &p.Liquidity, fullmath.Q128)
	if err != nil {
		return err
	}
	p.TokensOwed0.Add(&p.TokensOwed0, fees0)
	p.TokensOwed1.Add(&p.TokensOwed1, fees1)
	p.FeeGrowthInside0Last = snap.FeeGrowthInside0X128
	p.FeeGrowthInside1Last = snap.FeeGrowthInside1X128
	return nil
}

// authorized loads the position and its pool key after checking that
// caller is the owner or the slot operator.
func (m *Manager) authorized(caller common.Address, id ledger.TokenID) (*Position, PoolKey, error) {
	owner, err := m.nft.OwnerOf(id)
	if err != nil {
		return nil, PoolKey{}, err
	}
	if caller != owner && !m.slot.IsOperator(caller, id) {
		return nil, PoolKey{}, token.ErrNotAuthorized
	}
	p, ok := m.positions[id]
	if !ok {
		return nil, PoolKey{}, ledger.ErrNotFound
	}
	key, ok := m.keys[p.PoolID]
	if !ok {
		return nil, PoolKey{}, ErrUnknownPool
	}
	return p, key, nil
}

// touch snapshots the position record so a later revert restores it.
func (m *Manager) touch(p *Position) {
	prev := *p
	m.journal.Record(func() { *p = prev })
}

func (m *Manager) cachePoolKey(key PoolKey) uint16 {
	h := key.ID()
	if id, ok := m.keyIDs[h]; ok {
		return id
	}
	id := m.nextKeyID
	m.nextKeyID++
	m.keyIDs[h] = id
	m.keys[id] = key
	m.journal.Record(func() {
		m.nextKeyID = id
		delete(m.keyIDs, h)
		delete(m.keys, id)
	})
	return id
}

// allocTokenID reinterprets the sequential counter as a token ID.
func (m *Manager) allocTokenID() ledger.TokenID {
	n := m.nextToken
	m.nextToken++
	m.journal.Record(func() { m.nextToken = n })
	var id ledger.TokenID
	binary.BigEndian.PutUint64(id[24:], n)
	return id
}

func (m *Manager) packLog(event string, args ...interface{}) ([]*ethtypes.Log, error) {
	topics, data, err := ManagerABI.PackEvent(event, args...)
	if err != nil {
		return nil, err
	}
	return []*ethtypes.Log{{
		Address: PositionManagerAddress,
		Topics:  topics,
		Data:    data,
	}}, nil
}

func (m *Manager) flush(logs []*ethtypes.Log) {
	for _, l := range logs {
		m.sink.AddLog(l)
	}
}

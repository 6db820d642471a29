// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the asset ownership ledger: unique-ID
// token custody, the reverse owner index, and per-token delegated
// operator authorization. The ledger is the single source of truth
// for "who owns asset X"; every mutation is journaled so a failed
// notification can revert the whole operation atomically.
package ledger

import (
	"bytes"
	"errors"
	"sort"

	"github.com/luxfi/geth/common"
)

// TokenID identifies an asset. The value is opaque 32 bytes; position
// tokens use a sequential counter value reinterpreted as an ID.
type TokenID = common.Hash

// Errors - ownership
var (
	ErrNotFound      = errors.New("ledger: token does not exist")
	ErrAlreadyExists = errors.New("ledger: token already exists")
	ErrZeroOwner     = errors.New("ledger: owner is the zero address")
	ErrWrongOwner    = errors.New("ledger: from is not the current owner")
)

// Errors - operator authorization
var (
	ErrNotOwner              = errors.New("ledger: caller is not the token owner")
	ErrZeroOperator          = errors.New("ledger: operator is the zero address")
	ErrSelfAuthorization     = errors.New("ledger: owner cannot be its own operator")
	ErrAlreadyAuthorized     = errors.New("ledger: operator already authorized")
	ErrNotAuthorizedOperator = errors.New("ledger: operator not authorized for token")
)

// OperatorBook is the per-token delegated-authorization store. The
// generic ledger uses the unbounded OperatorSet; position tokens
// substitute a single-slot book with stricter duplicate/mismatch
// semantics. Clear returns the operators that were removed so the
// caller can emit revocation audit records for them.
type OperatorBook interface {
	Authorize(owner, operator common.Address, id TokenID) error
	Revoke(owner, operator common.Address, id TokenID) error
	IsOperator(operator common.Address, id TokenID) bool
	OperatorsOf(id TokenID) []common.Address
	OperatorCount(id TokenID) int
	Clear(id TokenID) []common.Address
}

// Ledger tracks token custody. The owners map and the reverse owner
// index are maintained incrementally and never recomputed; the token
// counter always equals the cardinality of the owners map.
type Ledger struct {
	journal *Journal
	book    OperatorBook

	owners map[TokenID]common.Address
	owned  map[common.Address]map[TokenID]struct{}
	count  uint64
}

func New(journal *Journal, book OperatorBook) *Ledger {
	return &Ledger{
		journal: journal,
		book:    book,
		owners:  make(map[TokenID]common.Address),
		owned:   make(map[common.Address]map[TokenID]struct{}),
	}
}

// Exists reports whether id is currently owned. A token exists iff its
// owner is a non-zero address.
func (l *Ledger) Exists(id TokenID) bool {
	return l.owners[id] != (common.Address{})
}

// OwnerOf returns the current owner of id.
func (l *Ledger) OwnerOf(id TokenID) (common.Address, error) {
	owner, ok := l.owners[id]
	if !ok {
		return common.Address{}, ErrNotFound
	}
	return owner, nil
}

// BalanceOf returns the number of tokens owned by owner.
func (l *Ledger) BalanceOf(owner common.Address) uint64 {
	return uint64(len(l.owned[owner]))
}

// TokensOf returns the IDs owned by owner in byte order.
func (l *Ledger) TokensOf(owner common.Address) []TokenID {
	set := l.owned[owner]
	if len(set) == 0 {
		return nil
	}
	ids := make([]TokenID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// Count returns the number of existing tokens.
func (l *Ledger) Count() uint64 {
	return l.count
}

// Mint assigns id to owner and updates the reverse index and counter.
func (l *Ledger) Mint(owner common.Address, id TokenID) error {
	if owner == (common.Address{}) {
		return ErrZeroOwner
	}
	if l.Exists(id) {
		return ErrAlreadyExists
	}
	l.setOwner(id, owner)
	l.indexAdd(owner, id)
	l.countAdd(1)
	return nil
}

// Transfer reassigns id from from to to. The token's operator book is
// fully cleared before the index mutation completes; the cleared
// operators are returned for revocation audit records. Clearing cost
// is proportional to the operator count: owners who accumulate many
// operators pay for their removal here.
func (l *Ledger) Transfer(from, to common.Address, id TokenID) ([]common.Address, error) {
	if to == (common.Address{}) {
		return nil, ErrZeroOwner
	}
	if l.owners[id] != from || from == (common.Address{}) {
		return nil, ErrWrongOwner
	}
	cleared := l.book.Clear(id)
	l.indexRemove(from, id)
	l.setOwner(id, to)
	l.indexAdd(to, id)
	return cleared, nil
}

// Burn removes id from the ledger entirely. Returns the cleared
// operators and the former owner.
func (l *Ledger) Burn(id TokenID) ([]common.Address, common.Address, error) {
	owner, ok := l.owners[id]
	if !ok {
		return nil, common.Address{}, ErrNotFound
	}
	cleared := l.book.Clear(id)
	l.indexRemove(owner, id)
	l.clearOwner(id)
	l.countSub(1)
	return cleared, owner, nil
}

// Journaled primitives. Each applies one mutation and records its
// exact inverse.

func (l *Ledger) setOwner(id TokenID, owner common.Address) {
	prev, had := l.owners[id]
	l.owners[id] = owner
	l.journal.Record(func() {
		if had {
			l.owners[id] = prev
		} else {
			delete(l.owners, id)
		}
	})
}

func (l *Ledger) clearOwner(id TokenID) {
	prev := l.owners[id]
	delete(l.owners, id)
	l.journal.Record(func() { l.owners[id] = prev })
}

func (l *Ledger) indexAdd(owner common.Address, id TokenID) {
	set := l.owned[owner]
	if set == nil {
		set = make(map[TokenID]struct{})
		l.owned[owner] = set
	}
	set[id] = struct{}{}
	l.journal.Record(func() { delete(l.owned[owner], id) })
}

func (l *Ledger) indexRemove(owner common.Address, id TokenID) {
	delete(l.owned[owner], id)
	l.journal.Record(func() { l.owned[owner][id] = struct{}{} })
}

func (l *Ledger) countAdd(n uint64) {
	l.count += n
	l.journal.Record(func() { l.count -= n })
}

func (l *Ledger) countSub(n uint64) {
	l.count -= n
	l.journal.Record(func() { l.count += n })
}

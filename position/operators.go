// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"github.com/luxfi/geth/common"

	"github.com/Universal-Swaps/protocol-contracts/ledger"
)

// operatorSlot is the position operator book: at most one operator per
// token, stored in a single overwritable slot. Authorize overwrites
// only when the new operator differs from the current one, and revoke
// must name the current slot value exactly. Revoking the zero operator
// while the slot is empty is a guaranteed no-op so burn and transfer
// flows need no special casing.
type operatorSlot struct {
	journal *ledger.Journal
	slots   map[ledger.TokenID]common.Address
}

var _ ledger.OperatorBook = (*operatorSlot)(nil)

func newOperatorSlot(journal *ledger.Journal) *operatorSlot {
	return &operatorSlot{
		journal: journal,
		slots:   make(map[ledger.TokenID]common.Address),
	}
}

func (s *operatorSlot) Authorize(owner, operator common.Address, id ledger.TokenID) error {
	if operator == (common.Address{}) {
		return ledger.ErrZeroOperator
	}
	if operator == owner {
		return ledger.ErrSelfAuthorization
	}
	if s.slots[id] == operator {
		return ErrDuplicateOperator
	}
	s.set(id, operator)
	return nil
}

func (s *operatorSlot) Revoke(owner, operator common.Address, id ledger.TokenID) error {
	cur := s.slots[id]
	if operator != cur {
		return ErrOperatorMismatch
	}
	if cur == (common.Address{}) {
		return nil
	}
	s.set(id, common.Address{})
	return nil
}

func (s *operatorSlot) IsOperator(operator common.Address, id ledger.TokenID) bool {
	return operator != (common.Address{}) && s.slots[id] == operator
}

func (s *operatorSlot) OperatorsOf(id ledger.TokenID) []common.Address {
	cur := s.slots[id]
	if cur == (common.Address{}) {
		return nil
	}
	return []common.Address{cur}
}

func (s *operatorSlot) OperatorCount(id ledger.TokenID) int {
	if _, ok := s.slots[id]; ok {
		return 1
	}
	return 0
}

func (s *operatorSlot) Clear(id ledger.TokenID) []common.Address {
	cur := s.slots[id]
	if cur == (common.Address{}) {
		return nil
	}
	s.set(id, common.Address{})
	return []common.Address{cur}
}

// set journals the slot write; the zero address empties the slot.
func (s *operatorSlot) set(id ledger.TokenID, operator common.Address) {
	prev, had := s.slots[id]
	if operator == (common.Address{}) {
		delete(s.slots, id)
	} else {
		s.slots[id] = operator
	}
	s.journal.Record(func() {
		if had {
			s.slots[id] = prev
		} else {
			delete(s.slots, id)
		}
	})
}

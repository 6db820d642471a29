// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/luxfi/geth/common"
)

// OperatorSet is the generic per-token operator book: an unbounded,
// insertion-ordered list of accounts authorized by the owner to act on
// a token. The set is cleared in full whenever the token changes hands
// or is burned; the clearing cost grows with the set size, which is a
// deliberate bounded-resource contract rather than a bug. OperatorCount
// exposes that cost so callers can revoke down before transferring.
type OperatorSet struct {
	journal *Journal
	byToken map[TokenID][]common.Address
}

var _ OperatorBook = (*OperatorSet)(nil)

func NewOperatorSet(journal *Journal) *OperatorSet {
	return &OperatorSet{
		journal: journal,
		byToken: make(map[TokenID][]common.Address),
	}
}

// Authorize appends operator to the token's set.
func (s *OperatorSet) Authorize(owner, operator common.Address, id TokenID) error {
	if operator == (common.Address{}) {
		return ErrZeroOperator
	}
	if operator == owner {
		return ErrSelfAuthorization
	}
	if s.indexOf(id, operator) >= 0 {
		return ErrAlreadyAuthorized
	}
	s.byToken[id] = append(s.byToken[id], operator)
	s.journal.Record(func() {
		ops := s.byToken[id]
		s.byToken[id] = ops[:len(ops)-1]
	})
	return nil
}

// Revoke removes operator from the token's set.
func (s *OperatorSet) Revoke(owner, operator common.Address, id TokenID) error {
	if operator == (common.Address{}) {
		return ErrZeroOperator
	}
	if operator == owner {
		return ErrSelfAuthorization
	}
	i := s.indexOf(id, operator)
	if i < 0 {
		return ErrNotAuthorizedOperator
	}
	ops := s.byToken[id]
	s.byToken[id] = append(ops[:i:i], ops[i+1:]...)
	s.journal.Record(func() {
		restored := make([]common.Address, 0, len(s.byToken[id])+1)
		restored = append(restored, s.byToken[id][:i]...)
		restored = append(restored, operator)
		restored = append(restored, s.byToken[id][i:]...)
		s.byToken[id] = restored
	})
	return nil
}

// IsOperator reports whether operator is authorized for id.
func (s *OperatorSet) IsOperator(operator common.Address, id TokenID) bool {
	return s.indexOf(id, operator) >= 0
}

// OperatorsOf returns a copy of the token's operator list in
// authorization order.
func (s *OperatorSet) OperatorsOf(id TokenID) []common.Address {
	ops := s.byToken[id]
	if len(ops) == 0 {
		return nil
	}
	out := make([]common.Address, len(ops))
	copy(out, ops)
	return out
}

// OperatorCount returns the size of the token's operator set, which is
// also the clearing cost paid on transfer or burn.
func (s *OperatorSet) OperatorCount(id TokenID) int {
	return len(s.byToken[id])
}

// Clear removes every operator for id and returns them.
func (s *OperatorSet) Clear(id TokenID) []common.Address {
	ops := s.byToken[id]
	if len(ops) == 0 {
		return nil
	}
	cleared := make([]common.Address, len(ops))
	copy(cleared, ops)
	delete(s.byToken, id)
	s.journal.Record(func() { s.byToken[id] = cleared })
	return cleared
}

func (s *OperatorSet) indexOf(id TokenID, operator common.Address) int {
	for i, op := range s.byToken[id] {
		if op == operator {
			return i
		}
	}
	return -1
}

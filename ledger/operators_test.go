// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestOperatorSetAuthorize(t *testing.T) {
	journal := NewJournal()
	s := NewOperatorSet(journal)
	owner := addr(1)
	id := tokenID(1)

	tests := []struct {
		name     string
		operator common.Address
		err      error
	}{
		{name: "first operator", operator: addr(2)},
		{name: "second operator", operator: addr(3)},
		{name: "zero operator", operator: common.Address{}, err: ErrZeroOperator},
		{name: "self authorization", operator: owner, err: ErrSelfAuthorization},
		{name: "duplicate", operator: addr(2), err: ErrAlreadyAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Authorize(owner, tt.operator, id)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.True(t, s.IsOperator(tt.operator, id))
		})
	}

	// insertion order preserved
	require.Equal(t, []common.Address{addr(2), addr(3)}, s.OperatorsOf(id))
	require.Equal(t, 2, s.OperatorCount(id))
}

func TestOperatorSetRevoke(t *testing.T) {
	journal := NewJournal()
	s := NewOperatorSet(journal)
	owner := addr(1)
	id := tokenID(1)

	for _, op := range []common.Address{addr(2), addr(3), addr(4)} {
		require.NoError(t, s.Authorize(owner, op, id))
	}

	t.Run("unknown operator", func(t *testing.T) {
		require.ErrorIs(t, s.Revoke(owner, addr(9), id), ErrNotAuthorizedOperator)
	})

	t.Run("middle removal keeps order", func(t *testing.T) {
		require.NoError(t, s.Revoke(owner, addr(3), id))
		require.Equal(t, []common.Address{addr(2), addr(4)}, s.OperatorsOf(id))
	})

	t.Run("revoked operator loses authorization", func(t *testing.T) {
		require.False(t, s.IsOperator(addr(3), id))
		require.ErrorIs(t, s.Revoke(owner, addr(3), id), ErrNotAuthorizedOperator)
	})
}

func TestOperatorSetClear(t *testing.T) {
	journal := NewJournal()
	s := NewOperatorSet(journal)
	owner := addr(1)
	id := tokenID(1)

	require.Nil(t, s.Clear(id))

	ops := []common.Address{addr(2), addr(3), addr(4)}
	for _, op := range ops {
		require.NoError(t, s.Authorize(owner, op, id))
	}

	cleared := s.Clear(id)
	require.Equal(t, ops, cleared)
	require.Empty(t, s.OperatorsOf(id))
	require.Equal(t, 0, s.OperatorCount(id))

	t.Run("reauthorize after clear", func(t *testing.T) {
		require.NoError(t, s.Authorize(owner, addr(2), id))
		require.Equal(t, 1, s.OperatorCount(id))
	})
}

func TestOperatorSetRevert(t *testing.T) {
	journal := NewJournal()
	s := NewOperatorSet(journal)
	owner := addr(1)
	id := tokenID(1)

	require.NoError(t, s.Authorize(owner, addr(2), id))

	t.Run("authorize rolled back", func(t *testing.T) {
		journal.Begin()
		rev := journal.Snapshot()
		require.NoError(t, s.Authorize(owner, addr(3), id))
		journal.RevertToSnapshot(rev)
		journal.End()
		require.Equal(t, []common.Address{addr(2)}, s.OperatorsOf(id))
	})

	t.Run("revoke rolled back in place", func(t *testing.T) {
		require.NoError(t, s.Authorize(owner, addr(3), id))
		require.NoError(t, s.Authorize(owner, addr(4), id))

		journal.Begin()
		rev := journal.Snapshot()
		require.NoError(t, s.Revoke(owner, addr(3), id))
		journal.RevertToSnapshot(rev)
		journal.End()

		require.Equal(t, []common.Address{addr(2), addr(3), addr(4)}, s.OperatorsOf(id))
	})

	t.Run("clear rolled back", func(t *testing.T) {
		journal.Begin()
		rev := journal.Snapshot()
		require.Len(t, s.Clear(id), 3)
		journal.RevertToSnapshot(rev)
		journal.End()
		require.Equal(t, 3, s.OperatorCount(id))
	})
}

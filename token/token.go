// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the asset transfer state machine on top of
// the ownership ledger: mint, transfer, burn, and operator management,
// each run as an atomic operation that mutates state first, then
// dispatches notifications, and reverts everything if any step fails.
// Audit records are buffered during the operation and only reach the
// sink on success, so observers never see records of reverted work.
package token

import (
	"errors"

	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/Universal-Swaps/protocol-contracts/ledger"
	"github.com/Universal-Swaps/protocol-contracts/receiver"
)

var (
	ErrZeroRecipient  = errors.New("token: recipient is the zero address")
	ErrNotAuthorized  = errors.New("token: caller is neither owner nor operator")
	ErrLengthMismatch = errors.New("token: batch argument lengths differ")
)

// LogSink receives committed audit records.
type LogSink interface {
	AddLog(*ethtypes.Log)
}

// Token is the transfer state machine. All mutating entry points take
// the calling account explicitly; there is no ambient caller.
type Token struct {
	addr    common.Address
	journal *ledger.Journal
	assets  *ledger.Ledger
	book    ledger.OperatorBook
	reg     *receiver.Registry
	sink    LogSink
	log     log.Logger
}

// New builds a token ledger with the default unbounded operator book.
func New(reg *receiver.Registry, sink LogSink, logger log.Logger) *Token {
	journal := ledger.NewJournal()
	return NewWithBook(TokenLedgerAddress, journal, ledger.NewOperatorSet(journal), reg, sink, logger)
}

// NewWithBook builds a token ledger around a caller-supplied operator
// book and journal, letting a subtype substitute stricter operator
// semantics while sharing one undo log.
func NewWithBook(addr common.Address, journal *ledger.Journal, book ledger.OperatorBook, reg *receiver.Registry, sink LogSink, logger log.Logger) *Token {
	return &Token{
		addr:    addr,
		journal: journal,
		assets:  ledger.New(journal, book),
		book:    book,
		reg:     reg,
		sink:    sink,
		log:     logger,
	}
}

// Journal exposes the shared undo log so subtypes can journal their own
// state alongside ledger mutations.
func (t *Token) Journal() *ledger.Journal { return t.journal }

// Views, delegated to the ledger.

func (t *Token) Exists(id ledger.TokenID) bool { return t.assets.Exists(id) }

func (t *Token) OwnerOf(id ledger.TokenID) (common.Address, error) { return t.assets.OwnerOf(id) }

func (t *Token) BalanceOf(owner common.Address) uint64 { return t.assets.BalanceOf(owner) }

func (t *Token) TokensOf(owner common.Address) []ledger.TokenID { return t.assets.TokensOf(owner) }

func (t *Token) Count() uint64 { return t.assets.Count() }

func (t *Token) IsOperator(op common.Address, id ledger.TokenID) bool {
	return t.book.IsOperator(op, id)
}

func (t *Token) OperatorsOf(id ledger.TokenID) []common.Address { return t.book.OperatorsOf(id) }

// OperatorCount returns the size of the token's operator book, which
// is also the clearing cost paid on transfer or burn.
func (t *Token) OperatorCount(id ledger.TokenID) int { return t.book.OperatorCount(id) }

// IsAuthorized reports whether caller may act on id: the current
// owner or an authorized operator.
func (t *Token) IsAuthorized(caller common.Address, id ledger.TokenID) bool {
	owner, err := t.assets.OwnerOf(id)
	if err != nil {
		return false
	}
	return caller == owner || t.book.IsOperator(caller, id)
}

// Mint creates id owned by to and notifies the recipient. force skips
// the notification for recipients that cannot receive one.
func (t *Token) Mint(caller, to common.Address, id ledger.TokenID, data []byte, force bool) error {
	return t.run(func() ([]*ethtypes.Log, error) {
		return t.mint(caller, to, id, data, force)
	})
}

// Transfer reassigns id from from to to. The caller must be the owner
// or an authorized operator. The sender is notified first, then the
// recipient; operator clearing happens before either notification runs.
func (t *Token) Transfer(caller, from, to common.Address, id ledger.TokenID, data []byte, force bool) error {
	return t.run(func() ([]*ethtypes.Log, error) {
		return t.transfer(caller, from, to, id, data, force)
	})
}

// Burn destroys id. The caller must be the owner or an authorized
// operator; the former owner is notified if it can receive.
func (t *Token) Burn(caller common.Address, id ledger.TokenID, data []byte) error {
	return t.run(func() ([]*ethtypes.Log, error) {
		return t.burn(caller, id, data)
	})
}

// Authorize grants operator delegated control over id. Only the owner
// may authorize; the operator is notified if it can receive.
func (t *Token) Authorize(caller, operator common.Address, id ledger.TokenID, note []byte) error {
	return t.run(func() ([]*ethtypes.Log, error) {
		return t.authorize(caller, operator, id, note)
	})
}

// Revoke withdraws operator's delegated control over id. notify
// controls whether the operator is told; the audit record carries
// whether a notification was actually delivered.
func (t *Token) Revoke(caller, operator common.Address, id ledger.TokenID, notify bool, note []byte) error {
	return t.run(func() ([]*ethtypes.Log, error) {
		return t.revoke(caller, operator, id, notify, note)
	})
}

// MintBatch creates ids[i] owned by tos[i] in order, atomically.
func (t *Token) MintBatch(caller common.Address, tos []common.Address, ids []ledger.TokenID, data []byte, force bool) error {
	if len(tos) != len(ids) {
		return ErrLengthMismatch
	}
	return t.run(func() ([]*ethtypes.Log, error) {
		var logs []*ethtypes.Log
		for i, id := range ids {
			part, err := t.mint(caller, tos[i], id, data, force)
			if err != nil {
				return nil, err
			}
			logs = append(logs, part...)
		}
		return logs, nil
	})
}

// TransferBatch reassigns ids[i] to tos[i] in order, atomically: a
// failure at any index reverts the whole batch.
func (t *Token) TransferBatch(caller, from common.Address, tos []common.Address, ids []ledger.TokenID, data []byte, force bool) error {
	if len(tos) != len(ids) {
		return ErrLengthMismatch
	}
	return t.run(func() ([]*ethtypes.Log, error) {
		var logs []*ethtypes.Log
		for i, id := range ids {
			part, err := t.transfer(caller, from, tos[i], id, data, force)
			if err != nil {
				return nil, err
			}
			logs = append(logs, part...)
		}
		return logs, nil
	})
}

// BurnBatch destroys every id in order, atomically.
func (t *Token) BurnBatch(caller common.Address, ids []ledger.TokenID, data []byte) error {
	return t.run(func() ([]*ethtypes.Log, error) {
		var logs []*ethtypes.Log
		for _, id := range ids {
			part, err := t.burn(caller, id, data)
			if err != nil {
				return nil, err
			}
			logs = append(logs, part...)
		}
		return logs, nil
	})
}

// run brackets op in the journal, reverts on failure, and flushes the
// buffered audit records on success.
func (t *Token) run(op func() ([]*ethtypes.Log, error)) error {
	rev := t.journal.Begin()
	defer t.journal.End()
	logs, err := op()
	if err != nil {
		t.journal.RevertToSnapshot(rev)
		return err
	}
	for _, l := range logs {
		t.sink.AddLog(l)
	}
	return nil
}

func (t *Token) mint(caller, to common.Address, id ledger.TokenID, data []byte, force bool) ([]*ethtypes.Log, error) {
	if to == (common.Address{}) {
		return nil, ErrZeroRecipient
	}
	if err := t.assets.Mint(to, id); err != nil {
		return nil, err
	}
	logs, err := t.appendLog(nil, "Transfer", common.Address{}, to, common.Hash(id), caller)
	if err != nil {
		return nil, err
	}
	env := receiver.Envelope{Caller: caller, To: to, TokenID: id, Data: data}
	if err := t.reg.Dispatch(receiver.TypeTokenReceived, to, env, force); err != nil {
		return nil, err
	}
	if t.log != nil {
		t.log.Debug("minted token", "id", id.Hex(), "owner", to.Hex())
	}
	return logs, nil
}

func (t *Token) transfer(caller, from, to common.Address, id ledger.TokenID, data []byte, force bool) ([]*ethtypes.Log, error) {
	if to == (common.Address{}) {
		return nil, ErrZeroRecipient
	}
	owner, err := t.assets.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if caller != owner && !t.book.IsOperator(caller, id) {
		return nil, ErrNotAuthorized
	}
	cleared, err := t.assets.Transfer(from, to, id)
	if err != nil {
		return nil, err
	}
	logs, err := t.revocationLogs(nil, from, id, cleared)
	if err != nil {
		return nil, err
	}
	logs, err = t.appendLog(logs, "Transfer", from, to, common.Hash(id), caller)
	if err != nil {
		return nil, err
	}
	env := receiver.Envelope{Caller: caller, From: from, To: to, TokenID: id, Data: data}
	if err := t.reg.Dispatch(receiver.TypeTokenSent, from, env, true); err != nil {
		return nil, err
	}
	if err := t.reg.Dispatch(receiver.TypeTokenReceived, to, env, force); err != nil {
		return nil, err
	}
	return logs, nil
}

func (t *Token) burn(caller common.Address, id ledger.TokenID, data []byte) ([]*ethtypes.Log, error) {
	owner, err := t.assets.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if caller != owner && !t.book.IsOperator(caller, id) {
		return nil, ErrNotAuthorized
	}
	cleared, _, err := t.assets.Burn(id)
	if err != nil {
		return nil, err
	}
	logs, err := t.revocationLogs(nil, owner, id, cleared)
	if err != nil {
		return nil, err
	}
	logs, err = t.appendLog(logs, "Transfer", owner, common.Address{}, common.Hash(id), caller)
	if err != nil {
		return nil, err
	}
	env := receiver.Envelope{Caller: caller, From: owner, TokenID: id, Data: data}
	if err := t.reg.Dispatch(receiver.TypeTokenSent, owner, env, true); err != nil {
		return nil, err
	}
	if t.log != nil {
		t.log.Debug("burned token", "id", id.Hex(), "owner", owner.Hex())
	}
	return logs, nil
}

func (t *Token) authorize(caller, operator common.Address, id ledger.TokenID, note []byte) ([]*ethtypes.Log, error) {
	owner, err := t.assets.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if caller != owner {
		return nil, ledger.ErrNotOwner
	}
	if err := t.book.Authorize(owner, operator, id); err != nil {
		return nil, err
	}
	logs, err := t.appendLog(nil, "OperatorAuthorized", owner, operator, common.Hash(id), note)
	if err != nil {
		return nil, err
	}
	env := receiver.Envelope{Caller: caller, From: owner, To: operator, TokenID: id, Data: note}
	if err := t.reg.Dispatch(receiver.TypeOperatorAuthorized, operator, env, true); err != nil {
		return nil, err
	}
	return logs, nil
}

func (t *Token) revoke(caller, operator common.Address, id ledger.TokenID, notify bool, note []byte) ([]*ethtypes.Log, error) {
	owner, err := t.assets.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if caller != owner {
		return nil, ledger.ErrNotOwner
	}
	if err := t.book.Revoke(owner, operator, id); err != nil {
		return nil, err
	}
	notified := notify && t.reg.Query(operator) == receiver.CapabilitySupported
	logs, err := t.appendLog(nil, "OperatorRevoked", owner, operator, common.Hash(id), notified, note)
	if err != nil {
		return nil, err
	}
	if notify {
		env := receiver.Envelope{Caller: caller, From: owner, To: operator, TokenID: id, Data: note}
		if err := t.reg.Dispatch(receiver.TypeOperatorRevoked, operator, env, true); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

// revocationLogs records the mechanical clearing of operators on
// transfer and burn. Cleared operators are not notified.
func (t *Token) revocationLogs(logs []*ethtypes.Log, owner common.Address, id ledger.TokenID, cleared []common.Address) ([]*ethtypes.Log, error) {
	var err error
	for _, op := range cleared {
		logs, err = t.appendLog(logs, "OperatorRevoked", owner, op, common.Hash(id), false, []byte(nil))
		if err != nil {
			return nil, err
		}
	}
	return logs, nil
}

func (t *Token) appendLog(logs []*ethtypes.Log, event string, args ...interface{}) ([]*ethtypes.Log, error) {
	topics, data, err := TokenABI.PackEvent(event, args...)
	if err != nil {
		return nil, err
	}
	return append(logs, &ethtypes.Log{
		Address: t.addr,
		Topics:  topics,
		Data:    data,
	}), nil
}

// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package receiver implements the notification dispatch protocol that
// runs as part of every ownership mutation. Before an account's
// notification entry point is called, its capability is probed through
// an explicit registry returning a tri-state answer; a silent
// call-and-catch probe is never used. Targets that declare support are
// notified unconditionally and their failure aborts the whole
// mutation; targets that do not are either skipped (force) or rejected
// with an error naming the remediation.
package receiver

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Notification type IDs. These four constants are the complete
// vocabulary: mint and transfer share the received kind.
var (
	TypeTokenReceived      = typeID("UniversalSwaps.TokenReceived")
	TypeTokenSent          = typeID("UniversalSwaps.TokenSent")
	TypeOperatorAuthorized = typeID("UniversalSwaps.OperatorAuthorized")
	TypeOperatorRevoked    = typeID("UniversalSwaps.OperatorRevoked")
)

func typeID(name string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(name)))
}

var (
	ErrRecipientRejected       = errors.New("receiver: recipient contract does not accept token notifications")
	ErrRecipientIsPlainAccount = errors.New("receiver: recipient has no code; resend with force")
	ErrTruncatedEnvelope       = errors.New("receiver: truncated envelope")
)

// Receiver is the notification entry point a target account exposes.
// The return value is ignored by the core; the error is not.
type Receiver interface {
	Receive(typeID common.Hash, data []byte) ([]byte, error)
}

// Capability is the tri-state result of a registry probe.
type Capability uint8

const (
	// CapabilityUnknown means no code is known at the address; the
	// target is treated as a plain account.
	CapabilityUnknown Capability = iota
	// CapabilityAbsent means the address is a known code-bearing
	// account that does not declare the receive capability.
	CapabilityAbsent
	// CapabilitySupported means the address declares the receive
	// capability.
	CapabilitySupported
)

// Registry is the capability registry consulted before every
// notification call.
type Registry struct {
	receivers map[common.Address]Receiver
	contracts map[common.Address]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		receivers: make(map[common.Address]Receiver),
		contracts: make(map[common.Address]struct{}),
	}
}

// SetReceiver declares that addr supports the receive capability and
// registers its entry point. Receivers are implicitly code-bearing.
func (r *Registry) SetReceiver(addr common.Address, recv Receiver) {
	r.receivers[addr] = recv
	r.contracts[addr] = struct{}{}
}

// SetContract declares that addr is a code-bearing account without
// registering a receiver for it.
func (r *Registry) SetContract(addr common.Address) {
	r.contracts[addr] = struct{}{}
}

// Query probes addr's capability. It never fails: an unregistered
// address is simply a plain account.
func (r *Registry) Query(addr common.Address) Capability {
	if _, ok := r.receivers[addr]; ok {
		return CapabilitySupported
	}
	if _, ok := r.contracts[addr]; ok {
		return CapabilityAbsent
	}
	return CapabilityUnknown
}

// Dispatch delivers a notification to target.
//
// If the target declares support the call is made unconditionally and
// any failure propagates. If it does not and force is true, the
// notification is skipped. Otherwise the dispatch fails, with the
// error distinguishing a contract that lacks the capability from a
// plain account, since the remediation differs.
func (r *Registry) Dispatch(typeID common.Hash, target common.Address, env Envelope, force bool) error {
	switch r.Query(target) {
	case CapabilitySupported:
		if _, err := r.receivers[target].Receive(typeID, env.Encode()); err != nil {
			return fmt.Errorf("receiver: notification rejected by %s: %w", target.Hex(), err)
		}
		return nil
	case CapabilityAbsent:
		if force {
			return nil
		}
		return ErrRecipientRejected
	default:
		if force {
			return nil
		}
		return ErrRecipientIsPlainAccount
	}
}

// Envelope is the structured notification payload. From and To are
// the zero address for mints and burns respectively.
type Envelope struct {
	Caller  common.Address
	From    common.Address
	To      common.Address
	TokenID common.Hash
	Data    []byte
}

const envelopeHeadWords = 5

// Encode packs the envelope as 32-byte words: caller, from, to, token
// ID, data length, then the data padded to a word boundary. Addresses
// occupy the low 20 bytes of their word.
func (e Envelope) Encode() []byte {
	padded := (len(e.Data) + 31) &^ 31
	out := make([]byte, envelopeHeadWords*32+padded)
	copy(out[12:32], e.Caller.Bytes())
	copy(out[44:64], e.From.Bytes())
	copy(out[76:96], e.To.Bytes())
	copy(out[96:128], e.TokenID.Bytes())
	binary.BigEndian.PutUint64(out[152:160], uint64(len(e.Data)))
	copy(out[160:], e.Data)
	return out
}

// DecodeEnvelope is the inverse of Encode.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) < envelopeHeadWords*32 {
		return Envelope{}, ErrTruncatedEnvelope
	}
	e := Envelope{
		Caller:  common.BytesToAddress(data[12:32]),
		From:    common.BytesToAddress(data[44:64]),
		To:      common.BytesToAddress(data[76:96]),
		TokenID: common.BytesToHash(data[96:128]),
	}
	n := binary.BigEndian.Uint64(data[152:160])
	if uint64(len(data)-envelopeHeadWords*32) < n {
		return Envelope{}, ErrTruncatedEnvelope
	}
	if n > 0 {
		e.Data = make([]byte, n)
		copy(e.Data, data[160:160+n])
	}
	return e, nil
}

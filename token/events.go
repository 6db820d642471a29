// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/luxfi/geth/common"
)

// TokenLedgerAddress is the well-known address the asset ledger emits
// audit records from.
var TokenLedgerAddress = common.HexToAddress("0x0000000000000000000000000000000000009210")

// Audit record ABI. Transfer covers mint (from = 0) and burn (to = 0)
// as well as reassignment; caller is the account that initiated the
// operation, which for operator-driven transfers differs from "from".
// OperatorRevoked carries whether the operator was actually notified,
// since operators cleared mechanically on transfer or burn are not.
const eventsABI = `[
	{
		"type": "event",
		"name": "Transfer",
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "tokenId", "type": "bytes32", "indexed": true},
			{"name": "caller", "type": "address", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "OperatorAuthorized",
		"inputs": [
			{"name": "owner", "type": "address", "indexed": true},
			{"name": "operator", "type": "address", "indexed": true},
			{"name": "tokenId", "type": "bytes32", "indexed": true},
			{"name": "note", "type": "bytes", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "OperatorRevoked",
		"inputs": [
			{"name": "owner", "type": "address", "indexed": true},
			{"name": "operator", "type": "address", "indexed": true},
			{"name": "tokenId", "type": "bytes32", "indexed": true},
			{"name": "notified", "type": "bool", "indexed": false},
			{"name": "note", "type": "bytes", "indexed": false}
		]
	}
]`

// TokenABI is the parsed audit record ABI.
var TokenABI = ParseABI(eventsABI)

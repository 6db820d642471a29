// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package position

import (
	"github.com/luxfi/geth/common"

	"github.com/Universal-Swaps/protocol-contracts/token"
)

// PositionManagerAddress is the well-known address the position
// manager emits audit records from.
var PositionManagerAddress = common.HexToAddress("0x0000000000000000000000000000000000009211")

// Position audit record ABI. Ownership records (Transfer and the
// operator pair) come from the underlying token ledger; these cover
// the liquidity lifecycle only.
const eventsABI = `[
	{
		"type": "event",
		"name": "LiquidityIncreased",
		"inputs": [
			{"name": "tokenId", "type": "bytes32", "indexed": true},
			{"name": "caller", "type": "address", "indexed": true},
			{"name": "liquidityDelta", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "LiquidityDecreased",
		"inputs": [
			{"name": "tokenId", "type": "bytes32", "indexed": true},
			{"name": "caller", "type": "address", "indexed": true},
			{"name": "liquidityDelta", "type": "uint256", "indexed": false},
			{"name": "amount0", "type": "uint256", "indexed": false},
			{"name": "amount1", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "FeesCollected",
		"inputs": [
			{"name": "tokenId", "type": "bytes32", "indexed": true},
			{"name": "recipient", "type": "address", "indexed": true},
			{"name": "amount0", "type": "uint256", "indexed": false},
			{"name": "amount1", "type": "uint256", "indexed": false}
		]
	}
]`

// ManagerABI is the parsed position audit record ABI.
var ManagerABI = token.ParseABI(eventsABI)

// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain defines the read-only projection of the local block
// store that the eth server, downloader and notifier consult. The
// storage engine itself is an external collaborator (spec.md §1); this
// package only names the interfaces and one in-memory adapter (Memory)
// used by tests and the dev-mode entrypoint.
package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Reader is the non-blocking, snapshot-consistent read surface of
// spec.md §4.A. Absent entries return ok=false; they never error.
type Reader interface {
	HeaderByHash(hash common.Hash) (*types.Header, bool)
	HeaderByNumber(number uint64) (*types.Header, bool)
	BodyByHash(hash common.Hash) (*types.Body, bool)
	ReceiptsByHash(hash common.Hash) ([]*types.Receipt, bool)

	// ChainHead returns the current head hash, header and cumulative
	// total difficulty.
	ChainHead() (common.Hash, *types.Header, *uint256.Int)

	GenesisHash() common.Hash
}

// AddedEvent is delivered by Watcher whenever a new block is appended
// to the canonical chain.
type AddedEvent struct {
	Block     *types.Block
	Receipts  []*types.Receipt
	TotalDiff *uint256.Int
}

// Watcher is the chain-added event source consumed by the observer
// bridge (spec.md §4.H, §6 "Chain store (consumed)").
type Watcher interface {
	Watch() <-chan AddedEvent
}

// StateDB is the minimal state-trie lookup the eth server needs to
// answer GET_NODE_DATA. Left unwired (nil) in test contexts that want
// to exercise the explicit not-supported path described in
// SPEC_FULL.md §4.D.1.
type StateDB interface {
	Get(hash common.Hash) ([]byte, bool)
}

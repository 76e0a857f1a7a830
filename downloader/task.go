// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package downloader implements the retrying, peer-selecting,
// linkage-validating header fetcher of spec.md §4.F.
//
// Grounded on graft/coreth/sync/blocksync/syncer.go's BlockSyncer: walk
// backward from a reference point via GET_BLOCK_HEADERS-style requests,
// write nothing until the whole run validates, and return a typed
// error when the peer cannot produce a usable chain of ancestors.
package downloader

import (
	"github.com/ethereum/go-ethereum/core/types"
)

// Task is the bookkeeping for one in-flight header download, named
// after spec.md §3's HeaderDownloadTask. Fetch constructs and drives
// one internally and does not hand it to its caller.
type Task struct {
	Reference         *types.Header
	Count             uint32
	AttemptsRemaining uint16
	Received          []*types.Header
}

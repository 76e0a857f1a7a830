// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/chaincore/ethwire/chain"
	"github.com/chaincore/ethwire/protocol"
)

// buildChain inserts headers numbered 0..n-1, each linked to the
// previous by parent hash, and returns the store plus the headers in
// ascending order.
func buildChain(n int) (*chain.Memory, []*types.Header) {
	mem := chain.NewMemory(0)
	headers := make([]*types.Header, n)
	var parent common.Hash
	for i := 0; i < n; i++ {
		h := &types.Header{
			Number:     big.NewInt(int64(i)),
			ParentHash: parent,
			Extra:      []byte(extraFor(i)),
		}
		headers[i] = h
		parent = h.Hash()
		mem.Insert(h, nil, nil, nil)
	}
	return mem, headers
}

// extraFor makes each header's extra bytes unique, and therefore its
// hash unique, across the small test chain.
func extraFor(i int) []byte {
	b := make([]byte, 8)
	for j := range b {
		b[j] = byte(i >> (8 * j))
	}
	return b
}

func numbers(headers protocol.BlockHeadersPacket) []uint64 {
	out := make([]uint64, len(headers))
	for i, h := range headers {
		out[i] = h.Number.Uint64()
	}
	return out
}

func TestGetBlockHeaders_ForwardRange(t *testing.T) {
	mem, headers := buildChain(21) // S1: chain heads 0..20
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	req := &protocol.GetBlockHeadersPacket{OriginNumber: 5, Amount: 5, Skip: 0, Reverse: false}
	got := srv.GetBlockHeaders(req)

	require.Equal(t, []uint64{5, 6, 7, 8, 9}, numbers(got))
	_ = headers
}

func TestGetBlockHeaders_RequestLimitClamp(t *testing.T) {
	mem, _ := buildChain(21)
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 5}) // S2: limit=5

	req := &protocol.GetBlockHeadersPacket{OriginNumber: 5, Amount: 10, Skip: 0, Reverse: false}
	got := srv.GetBlockHeaders(req)

	require.Equal(t, []uint64{5, 6, 7, 8, 9}, numbers(got))
}

func TestGetBlockHeaders_ReversedWithSkip(t *testing.T) {
	mem, _ := buildChain(21)
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	req := &protocol.GetBlockHeadersPacket{OriginNumber: 10, Amount: 5, Skip: 1, Reverse: true}
	got := srv.GetBlockHeaders(req)

	require.Equal(t, []uint64{10, 8, 6, 4, 2}, numbers(got)) // S3
}

func TestGetBlockHeaders_PartialAtTip(t *testing.T) {
	mem, headers := buildChain(11) // head = 10
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	head := headers[len(headers)-1].Number.Uint64()
	req := &protocol.GetBlockHeadersPacket{OriginNumber: head - 1, Amount: 5, Skip: 0, Reverse: false}
	got := srv.GetBlockHeaders(req)

	require.Equal(t, []uint64{head - 1, head}, numbers(got)) // S4
}

func TestGetBlockHeaders_BelowGenesisTruncation(t *testing.T) {
	mem, _ := buildChain(21)
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	req := &protocol.GetBlockHeadersPacket{OriginNumber: 1, Amount: 13, Skip: 0, Reverse: true}
	got := srv.GetBlockHeaders(req)

	require.Equal(t, []uint64{1, 0}, numbers(got)) // S5
}

func TestGetBlockHeaders_MissingOrigin(t *testing.T) {
	mem, _ := buildChain(5)
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	req := &protocol.GetBlockHeadersPacket{OriginNumber: 999, Amount: 5}
	got := srv.GetBlockHeaders(req)

	require.Empty(t, got)
}

func TestGetBlockHeaders_ByHash(t *testing.T) {
	mem, headers := buildChain(10)
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	req := &protocol.GetBlockHeadersPacket{OriginHash: headers[3].Hash(), Amount: 2}
	got := srv.GetBlockHeaders(req)

	require.Equal(t, []uint64{3, 4}, numbers(got))
}

// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/chaincore/ethwire/protocol"
)

func TestGetBlockBodies_SkipsAbsentHashes(t *testing.T) {
	mem, headers := buildChain(5)
	body := &types.Body{}
	mem.Insert(headers[2], body, nil, nil)

	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	req := protocol.GetBlockBodiesPacket{headers[2].Hash(), common.Hash{0xaa}}
	got := srv.GetBlockBodies(req)

	require.Len(t, got, 1) // S7: one present, one absent, absent dropped
}

func TestGetBlockBodies_ClampedToLimit(t *testing.T) {
	mem, headers := buildChain(5)
	for _, h := range headers {
		mem.Insert(h, &types.Body{}, nil, nil)
	}
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 2})

	req := make(protocol.GetBlockBodiesPacket, 0, len(headers))
	for _, h := range headers {
		req = append(req, h.Hash())
	}
	got := srv.GetBlockBodies(req)

	require.Len(t, got, 2)
}

func TestGetReceipts_SkipsAbsentHashes(t *testing.T) {
	mem, headers := buildChain(3)
	mem.Insert(headers[1], nil, []*types.Receipt{{Status: 1}}, nil)

	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})
	req := protocol.GetReceiptsPacket{headers[1].Hash(), headers[2].Hash()}
	got := srv.GetReceipts(req)

	require.Len(t, got, 1)
}

func TestGetNodeData_UnsupportedWithoutStateDB(t *testing.T) {
	mem, _ := buildChain(1)
	srv := New(mem, nil, RequestLimits{MaxItemsPerResponse: 192})

	_, err := srv.GetNodeData(protocol.GetNodeDataPacket{common.Hash{0x01}})
	require.Error(t, err) // no state wired -> explicit non-support
}

type fakeStateDB struct{ data map[common.Hash][]byte }

func (f fakeStateDB) Get(hash common.Hash) ([]byte, bool) {
	v, ok := f.data[hash]
	return v, ok
}

func TestGetNodeData_ServesWiredState(t *testing.T) {
	mem, _ := buildChain(1)
	key := common.Hash{0x02}
	state := fakeStateDB{data: map[common.Hash][]byte{key: []byte("trie-node")}}
	srv := New(mem, state, RequestLimits{MaxItemsPerResponse: 192})

	got, err := srv.GetNodeData(protocol.GetNodeDataPacket{key, common.Hash{0x99}})
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("trie-node")}, [][]byte(got))
}

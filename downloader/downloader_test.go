// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package downloader

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p"
	"github.com/stretchr/testify/require"

	"github.com/chaincore/ethwire/ethcore"
	"github.com/chaincore/ethwire/ibftlegacy"
	"github.com/chaincore/ethwire/protocol"
	"github.com/chaincore/ethwire/server"
	"github.com/chaincore/ethwire/session"
)

// linkedHeaders builds n headers numbered 0..n-1, parent-linked by
// hash, each made distinct by its Extra field.
func linkedHeaders(n int) []*types.Header {
	headers := make([]*types.Header, n)
	var parent common.Hash
	for i := 0; i < n; i++ {
		h := &types.Header{
			Number:     big.NewInt(int64(i)),
			ParentHash: parent,
			Extra:      []byte{byte(i)},
		}
		headers[i] = h
		parent = h.Hash()
	}
	return headers
}

type fakePool struct{ peers []*session.Session }

func (f fakePool) ActiveSnapshot() []*session.Session { return f.peers }

// connectedSession brings up one Session to Active over an in-memory
// p2p pipe and returns it plus the remote end a test can script
// responses from.
func connectedSession(t *testing.T) (*session.Session, *p2p.MsgPipeRW) {
	t.Helper()
	local := session.Local{NetworkID: 1, GenesisHash: common.Hash{0x01}}
	ours, theirs := p2p.MsgPipe()
	t.Cleanup(func() { ours.Close(); theirs.Close() })

	s := session.New(ours, local, server.New(nil, nil, server.RequestLimits{}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)

	msg, err := theirs.ReadMsg() // drain our STATUS
	require.NoError(t, err)
	msg.Discard()
	require.NoError(t, protocol.Send(theirs, protocol.StatusMsg, &protocol.Status{
		ProtocolVersion: protocol.Version,
		NetworkID:       local.NetworkID,
		Genesis:         local.GenesisHash,
	}))
	require.Eventually(t, s.Active, time.Second, time.Millisecond)
	return s, theirs
}

func TestFetch_ValidatesLinkageAndReverses(t *testing.T) {
	chain := linkedHeaders(6) // numbers 0..5
	s, theirs := connectedSession(t)

	go func() {
		msg, err := theirs.ReadMsg()
		if err != nil {
			return
		}
		var req protocol.GetBlockHeadersPacket
		if err := protocol.Decode(msg, &req); err != nil {
			return
		}
		// Reversed request from number 4, amount 3: 4,3,2.
		resp := protocol.BlockHeadersPacket{chain[4], chain[3], chain[2]}
		protocol.Send(theirs, protocol.BlockHeadersMsg, resp)
	}()

	d := New(fakePool{peers: []*session.Session{s}}, Config{RequestTimeout: 2 * time.Second, MaxRetries: 1})
	got, err := d.Fetch(context.Background(), chain[5], 3)

	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(2), got[0].Number.Uint64())
	require.Equal(t, uint64(4), got[2].Number.Uint64())
}

func TestFetch_ShortResponseExhaustsRetriesWithOnePeer(t *testing.T) {
	chain := linkedHeaders(6)
	s, theirs := connectedSession(t)

	go func() {
		for {
			msg, err := theirs.ReadMsg()
			if err != nil {
				return
			}
			var req protocol.GetBlockHeadersPacket
			if err := protocol.Decode(msg, &req); err != nil {
				return
			}
			// Always answer with a single header, short of the three asked for.
			resp := protocol.BlockHeadersPacket{chain[4]}
			protocol.Send(theirs, protocol.BlockHeadersMsg, resp)
		}
	}()

	d := New(fakePool{peers: []*session.Session{s}}, Config{RequestTimeout: 2 * time.Second, MaxRetries: 2})
	_, err := d.Fetch(context.Background(), chain[5], 3)

	require.ErrorIs(t, err, ethcore.ErrMaxRetriesReached)
}

func TestFetchMany_RunsRangesConcurrently(t *testing.T) {
	chain := linkedHeaders(10)

	respond := func(theirs *p2p.MsgPipeRW) {
		for {
			msg, err := theirs.ReadMsg()
			if err != nil {
				return
			}
			var req protocol.GetBlockHeadersPacket
			if err := protocol.Decode(msg, &req); err != nil {
				return
			}
			n := int(req.OriginNumber)
			resp := make(protocol.BlockHeadersPacket, 0, req.Amount)
			for i := 0; i < int(req.Amount); i++ {
				resp = append(resp, chain[n-i])
			}
			protocol.Send(theirs, protocol.BlockHeadersMsg, resp)
		}
	}

	s1, rw1 := connectedSession(t)
	s2, rw2 := connectedSession(t)
	go respond(rw1)
	go respond(rw2)

	d := New(fakePool{peers: []*session.Session{s1, s2}}, Config{
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
		Parallelism:    2,
	})

	results, err := d.FetchMany(context.Background(), []RangeRequest{
		{Reference: chain[9], Count: 3},
		{Reference: chain[6], Count: 2},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results[0], 3)
	require.Len(t, results[1], 2)
}

func TestFetch_NoPeersAvailable(t *testing.T) {
	chain := linkedHeaders(3)
	d := New(fakePool{}, Config{})
	_, err := d.Fetch(context.Background(), chain[2], 2)
	require.Error(t, err)
}

// ibftLegacyChain builds n IBFT-legacy headers atop a single-validator
// genesis, each linked to its parent via SealHash (ibftlegacy.Propose
// sets ParentHash that way), the same linkage a real proposer produces.
func ibftLegacyChain(t *testing.T, n int) []*types.Header {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	validators := []common.Address{crypto.PubkeyToAddress(key.PublicKey)}

	extra := &ibftlegacy.ExtraData{Validators: validators}
	raw, err := extra.Encode()
	require.NoError(t, err)
	genesis := &types.Header{Number: big.NewInt(0), Extra: raw, GasLimit: 8_000_000}

	headers := make([]*types.Header, n)
	headers[0] = genesis
	for i := 1; i < n; i++ {
		block, err := ibftlegacy.Propose(headers[i-1], validators, key, nil)
		require.NoError(t, err)
		headers[i] = block.Header()
	}
	return headers
}

// respondReversed answers every GET_BLOCK_HEADERS request it reads from
// theirs with the reversed span it names, taken from chain.
func respondReversed(theirs *p2p.MsgPipeRW, chain []*types.Header) {
	for {
		msg, err := theirs.ReadMsg()
		if err != nil {
			return
		}
		var req protocol.GetBlockHeadersPacket
		if err := protocol.Decode(msg, &req); err != nil {
			return
		}
		n := int(req.OriginNumber)
		resp := make(protocol.BlockHeadersPacket, 0, req.Amount)
		for i := 0; i < int(req.Amount); i++ {
			resp = append(resp, chain[n-i])
		}
		protocol.Send(theirs, protocol.BlockHeadersMsg, resp)
	}
}

func TestFetch_IBFTLegacyChainNeedsInjectedHashFunc(t *testing.T) {
	chain := ibftLegacyChain(t, 6) // numbers 0..5

	s, theirs := connectedSession(t)
	go respondReversed(theirs, chain)

	d := New(fakePool{peers: []*session.Session{s}}, Config{
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
		HashFunc:       ibftlegacy.SealHash,
	})
	got, err := d.Fetch(context.Background(), chain[5], 3)

	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(2), got[0].Number.Uint64())
	require.Equal(t, uint64(4), got[2].Number.Uint64())
}

func TestFetch_IBFTLegacyChainFailsLinkageWithStockHashFunc(t *testing.T) {
	chain := ibftLegacyChain(t, 6)

	s, theirs := connectedSession(t)
	go respondReversed(theirs, chain)

	// No HashFunc override: falls back to types.Header.Hash, which
	// disagrees with the SealHash-based ParentHash a real proposer
	// writes, so every attempt fails linkage until retries run out.
	d := New(fakePool{peers: []*session.Session{s}}, Config{
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
	})
	_, err := d.Fetch(context.Background(), chain[5], 3)

	require.ErrorIs(t, err, ethcore.ErrMaxRetriesReached)
}

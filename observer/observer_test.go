// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package observer

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/chaincore/ethwire/chain"
)

func TestBridge_DeliversEventsInOrder(t *testing.T) {
	mem := chain.NewMemory(0)
	b := NewBridge(8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, mem)

	mem.Insert(&types.Header{Number: big.NewInt(0)}, nil, nil, nil)
	mem.Insert(&types.Header{Number: big.NewInt(1)}, nil, nil, nil)

	first := <-b.Queue()
	second := <-b.Queue()
	require.Equal(t, uint64(0), first.Header.Number.Uint64())
	require.Equal(t, uint64(1), second.Header.Number.Uint64())
	require.Zero(t, b.Dropped())
}

func TestBridge_DropsOldestOnOverflow(t *testing.T) {
	b := NewBridge(2)

	b.publish(NewChainHead{Header: &types.Header{Number: big.NewInt(0)}})
	b.publish(NewChainHead{Header: &types.Header{Number: big.NewInt(1)}})
	b.publish(NewChainHead{Header: &types.Header{Number: big.NewInt(2)}}) // overflow, drops 0

	require.Equal(t, uint64(1), b.Dropped())

	first := <-b.Queue()
	second := <-b.Queue()
	require.Equal(t, uint64(1), first.Header.Number.Uint64())
	require.Equal(t, uint64(2), second.Header.Number.Uint64())
}

func TestBridge_StopsOnContextCancel(t *testing.T) {
	mem := chain.NewMemory(0)
	b := NewBridge(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx, mem)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

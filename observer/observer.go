// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package observer bridges chain store events to the consensus
// event queue, per spec.md §4.H. Enqueue is non-blocking; on overflow
// the oldest queued event is dropped and a counter is recorded, per
// spec.md §5's "bounded MPSC channel" resource note.
package observer

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/chaincore/ethwire/chain"
)

// NewChainHead is the event the consensus core consumes, per spec.md
// §6 ("Consensus core (consumed & produced). Produces NewChainHead
// events").
type NewChainHead struct {
	Header *types.Header
}

// Bridge drains a chain.Watcher and republishes NewChainHead events
// onto a bounded queue that the consensus core reads from.
type Bridge struct {
	queue   chan NewChainHead
	dropped atomic.Uint64
}

// NewBridge creates a Bridge with the given queue capacity.
func NewBridge(capacity int) *Bridge {
	return &Bridge{queue: make(chan NewChainHead, capacity)}
}

// Queue exposes the consensus-facing read end.
func (b *Bridge) Queue() <-chan NewChainHead { return b.queue }

// Dropped returns the number of events dropped so far due to queue
// overflow.
func (b *Bridge) Dropped() uint64 { return b.dropped.Load() }

// Run drains watcher until ctx is cancelled, publishing one
// NewChainHead per AddedEvent. On overflow it discards the oldest
// queued event to make room, preferring to carry the newest chain
// head rather than stall the producer.
func (b *Bridge) Run(ctx context.Context, watcher chain.Watcher) {
	events := watcher.Watch()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.publish(NewChainHead{Header: ev.Block.Header()})
		}
	}
}

func (b *Bridge) publish(ev NewChainHead) {
	select {
	case b.queue <- ev:
		return
	default:
	}

	// Queue full: drop the oldest entry to make room, then retry once.
	select {
	case <-b.queue:
		b.dropped.Add(1)
		log.Warn("consensus event queue overflow, dropped oldest event", "total_dropped", b.dropped.Load())
	default:
	}

	select {
	case b.queue <- ev:
	default:
		// Another producer raced us for the freed slot; count this
		// event as dropped too rather than block.
		b.dropped.Add(1)
	}
}

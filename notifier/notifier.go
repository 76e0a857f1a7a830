// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package notifier fans a newly mined or received block out to every
// authenticated peer, per spec.md §4.E. A send failure to one peer
// must not prevent attempts to the others; ordering across peers is
// unspecified, but each peer's outbound traffic stays FIFO because
// Session.Send goes through the same per-session path as every other
// outbound frame.
package notifier

import (
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/chaincore/ethwire/protocol"
	"github.com/chaincore/ethwire/session"
)

// Notifier broadcasts NEW_BLOCK to the registry's active sessions.
type Notifier struct {
	registry *session.Registry
}

// New builds a Notifier over the given session registry.
func New(registry *session.Registry) *Notifier {
	return &Notifier{registry: registry}
}

// Announce sends NEW_BLOCK(block, td) to every currently Active
// session. It returns once every send has returned and does not retry
// failed sends; a failure
// transitions that peer's session independently (Session.Send already
// performs the Disconnected(RemoteConnectionReset) transition).
func (n *Notifier) Announce(block *types.Block, td *uint256.Int) {
	peers := n.registry.ActiveSnapshot()
	if len(peers) == 0 {
		return
	}

	packet := &protocol.NewBlockPacket{Block: block, TD: td}

	var wg sync.WaitGroup
	wg.Add(len(peers))
	for _, peer := range peers {
		peer := peer
		go func() {
			defer wg.Done()
			if err := peer.Send(protocol.NewBlockMsg, packet); err != nil {
				log.Debug("new block announcement dropped", "session", peer.ID(), "err", err)
			}
		}()
	}
	wg.Wait()
}

// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node wires the chain read model, session registry, eth
// server, notifier, downloader and observer bridge into one running
// process, the way the teacher's eth.New constructs an Ethereum
// backend from its sub-components (eth/backend.go: validate config,
// build the engine, build the blockchain, start the indexer, wire the
// miner, register APIs).
package node

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chaincore/ethwire/chain"
	"github.com/chaincore/ethwire/config"
	"github.com/chaincore/ethwire/downloader"
	"github.com/chaincore/ethwire/ibftlegacy"
	"github.com/chaincore/ethwire/notifier"
	"github.com/chaincore/ethwire/observer"
	"github.com/chaincore/ethwire/server"
	"github.com/chaincore/ethwire/session"
)

// Node is this core's process-wide wiring: one chain read model, read
// by the server and exposed as Chain; the notifier and downloader work
// from the session registry.
type Node struct {
	Config     config.Config
	Chain      chain.Reader
	Registry   *session.Registry
	Server     *server.Server
	Notifier   *notifier.Notifier
	Downloader *downloader.Downloader
	Observer   *observer.Bridge
}

// New validates cfg and builds a Node over the given chain store.
// state may be nil (see SPEC_FULL.md §4.D.1); watcher may be nil to
// skip wiring the observer bridge.
func New(cfg config.Config, reader chain.Reader, state chain.StateDB, watcher chain.Watcher) (*Node, error) {
	if cfg.NetworkID == 0 {
		return nil, fmt.Errorf("node: network id must be non-zero")
	}
	log.Info("initializing eth core", "network_id", cfg.NetworkID, "max_items_per_response", cfg.MaxItemsPerResponse)

	registry := session.NewRegistry()
	limits := server.RequestLimits{MaxItemsPerResponse: cfg.MaxItemsPerResponse}
	srv := server.New(reader, state, limits)

	n := &Node{
		Config:   cfg,
		Chain:    reader,
		Registry: registry,
		Server:   srv,
		Notifier: notifier.New(registry),
		Downloader: downloader.New(registry, downloader.Config{
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			Parallelism:    cfg.DownloaderParallelism,
			HashFunc:       ibftlegacy.SealHash,
		}),
	}

	if watcher != nil {
		n.Observer = observer.NewBridge(256)
	}

	return n, nil
}

// RunObserver drains the chain watcher into the consensus event queue
// until ctx is cancelled. No-op if no watcher was supplied to New.
func (n *Node) RunObserver(ctx context.Context, watcher chain.Watcher) {
	if n.Observer == nil || watcher == nil {
		return
	}
	n.Observer.Run(ctx, watcher)
}

// LocalStatus builds the Local handshake values a new session should
// advertise, derived from the current chain head.
func (n *Node) LocalStatus() session.Local {
	head, _, td := n.Chain.ChainHead()
	return session.Local{
		NetworkID:   n.Config.NetworkID,
		GenesisHash: n.Chain.GenesisHash(),
		HeadHash:    head,
		TotalDiff:   td,
	}
}

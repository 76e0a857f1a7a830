// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command ethwired wires configuration, logging and the eth core
// together into a runnable process. The devp2p transport itself (TCP
// listener, RLPx handshake, peer discovery) is an external
// collaborator per spec.md §6 and is not implemented here; this
// entrypoint demonstrates wiring a session once a p2p.MsgReadWriter
// has been established by that external layer.
package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/pflag"

	"github.com/chaincore/ethwire/chain"
	"github.com/chaincore/ethwire/config"
	"github.com/chaincore/ethwire/node"
)

func main() {
	fs := pflag.NewFlagSet("ethwired", pflag.ExitOnError)
	config.BindFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Crit("failed to load configuration", "err", err)
	}

	reader := chain.NewMemory(1024)
	reader.Insert(&types.Header{Number: big.NewInt(0)}, nil, nil, nil)

	n, err := node.New(cfg, reader, nil, reader)
	if err != nil {
		log.Crit("failed to initialize eth core", "err", err)
	}

	head, header, _ := n.Chain.ChainHead()
	log.Info("eth core ready", "network_id", cfg.NetworkID, "head", head, "head_number", headerNumber(header))
}

func headerNumber(h *types.Header) uint64 {
	if h == nil {
		return 0
	}
	return h.Number.Uint64()
}

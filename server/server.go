// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package server dispatches decoded eth sub-protocol requests to the
// chain read model and produces the bounded, partial-tolerant
// responses described in spec.md §4.D.
//
// Grounded on graft/coreth/sync/handlers/block_request.go's
// OnBlockRequest: walk a bounded chain of ancestors, stop at the first
// missing block or size cap, never return an error for a caller
// protocol violation (malformed input is the session's problem, not
// the handler's), and always tally stats on every return path.
package server

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/chaincore/ethwire/chain"
	"github.com/chaincore/ethwire/ethcore"
	"github.com/chaincore/ethwire/protocol"
	"github.com/chaincore/ethwire/server/metrics"
)

// Server answers the four bounded eth/63 request kinds by reading
// from a chain.Reader. It holds no per-peer state; the session layer
// owns peer identity and ordering.
type Server struct {
	chain  chain.Reader
	state  chain.StateDB
	limits RequestLimits
	stats  *metrics.RequestCounters
}

// New builds a Server over the given chain read model. state may be
// nil; see SPEC_FULL.md §4.D.1 for the resulting GET_NODE_DATA
// behavior.
func New(reader chain.Reader, state chain.StateDB, limits RequestLimits) *Server {
	if limits.MaxItemsPerResponse == 0 {
		limits.MaxItemsPerResponse = DefaultMaxItemsPerResponse
	}
	return &Server{chain: reader, state: state, limits: limits, stats: metrics.NewRequestCounters()}
}

// Stats exposes the per-kind request counters for observability
// wiring (metrics exporters, health checks); Stats().Registry() mounts
// behind promhttp.HandlerFor.
func (s *Server) Stats() *metrics.RequestCounters { return s.stats }

// GetBlockHeaders implements spec.md §4.D's GET_BLOCK_HEADERS rule.
func (s *Server) GetBlockHeaders(req *protocol.GetBlockHeadersPacket) protocol.BlockHeadersPacket {
	limit := req.Amount
	if max := uint64(s.limits.MaxItemsPerResponse); limit > max {
		limit = max
	}
	if limit == 0 {
		return nil
	}

	var origin *types.Header
	var ok bool
	if req.UsesHash() {
		origin, ok = s.chain.HeaderByHash(req.OriginHash)
	} else {
		origin, ok = s.chain.HeaderByNumber(req.OriginNumber)
	}
	if !ok {
		return nil
	}

	stride := req.Skip + 1
	headers := make(protocol.BlockHeadersPacket, 0, limit)
	current := origin.Number.Uint64()

	for uint64(len(headers)) < limit {
		header, ok := s.chain.HeaderByNumber(current)
		if !ok {
			break
		}
		headers = append(headers, header)

		if req.Reverse {
			if current < stride {
				// Next number would drop below genesis: stop.
				break
			}
			current -= stride
		} else {
			next := current + stride
			if next < current {
				// Integer overflow: tie-break as below-genesis, stop.
				break
			}
			current = next
		}
	}

	s.stats.Headers.IncServed(uint64(len(headers)))
	return headers
}

// GetBlockBodies implements spec.md §4.D's absent-skip law for
// bodies: iterate the request in order, take up to limit entries, and
// silently drop any hash that does not resolve.
func (s *Server) GetBlockBodies(req protocol.GetBlockBodiesPacket) protocol.BlockBodiesPacket {
	hashes := clampHashes(req, s.limits.MaxItemsPerResponse)
	out := make(protocol.BlockBodiesPacket, 0, len(hashes))
	for _, hash := range hashes {
		body, ok := s.chain.BodyByHash(hash)
		if !ok {
			s.stats.Bodies.IncSkipped(1)
			continue
		}
		out = append(out, body)
	}
	s.stats.Bodies.IncServed(uint64(len(out)))
	return out
}

// GetReceipts implements the same absent-skip discipline for receipts.
func (s *Server) GetReceipts(req protocol.GetReceiptsPacket) protocol.ReceiptsPacket {
	hashes := clampHashes(req, s.limits.MaxItemsPerResponse)
	out := make(protocol.ReceiptsPacket, 0, len(hashes))
	for _, hash := range hashes {
		receipts, ok := s.chain.ReceiptsByHash(hash)
		if !ok {
			s.stats.Receipts.IncSkipped(1)
			continue
		}
		out = append(out, receipts)
	}
	s.stats.Receipts.IncServed(uint64(len(out)))
	return out
}

// GetNodeData implements spec.md §4.D's GET_NODE_DATA rule, resolved
// per SPEC_FULL.md §4.D.1: with no state database wired, report
// explicit non-support rather than silently answering empty.
func (s *Server) GetNodeData(req protocol.GetNodeDataPacket) (protocol.NodeDataPacket, error) {
	if s.state == nil {
		return nil, ethcore.ErrNodeDataUnsupported
	}
	hashes := clampHashes(req, s.limits.MaxItemsPerResponse)
	out := make(protocol.NodeDataPacket, 0, len(hashes))
	for _, hash := range hashes {
		data, ok := s.state.Get(hash)
		if !ok {
			s.stats.NodeData.IncSkipped(1)
			continue
		}
		out = append(out, data)
	}
	s.stats.NodeData.IncServed(uint64(len(out)))
	return out, nil
}

func clampHashes(hashes []common.Hash, limit uint16) []common.Hash {
	if int(limit) > 0 && len(hashes) > int(limit) {
		return hashes[:limit]
	}
	return hashes
}

// logHandlerError is a shared log line for the four handlers' error
// paths; kept here so the session layer's disconnect decision and the
// server's log line stay consistent.
func logHandlerError(kind string, err error) {
	log.Debug("eth server request failed", "kind", kind, "err", err)
}

// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"github.com/ethereum/go-ethereum/p2p"

	"github.com/chaincore/ethwire/ethcore"
	"github.com/chaincore/ethwire/protocol"
)

// Dispatch decodes an inbound frame and answers it by code, writing
// the response to rw. It returns ethcore.ErrMalformedFrame when
// decoding fails and ethcore.ErrPeerGone when the response write
// fails; the session driver maps the former to a BreachOfProtocol
// disconnect and the latter to a RemoteConnectionReset disconnect with
// no further reply.
//
// Unrecognized codes are not an error here: Dispatch ignores them and
// sends no reply.
func (s *Server) Dispatch(rw p2p.MsgWriter, msg p2p.Msg) error {
	switch msg.Code {
	case protocol.GetBlockHeadersMsg:
		var req protocol.GetBlockHeadersPacket
		if err := protocol.Decode(msg, &req); err != nil {
			logHandlerError("GetBlockHeaders", err)
			s.stats.Headers.IncMalformed()
			return err
		}
		headers := s.GetBlockHeaders(&req)
		return protocol.Send(rw, protocol.BlockHeadersMsg, headers)

	case protocol.GetBlockBodiesMsg:
		var req protocol.GetBlockBodiesPacket
		if err := protocol.Decode(msg, &req); err != nil {
			logHandlerError("GetBlockBodies", err)
			s.stats.Bodies.IncMalformed()
			return err
		}
		bodies := s.GetBlockBodies(req)
		return protocol.Send(rw, protocol.BlockBodiesMsg, bodies)

	case protocol.GetReceiptsMsg:
		var req protocol.GetReceiptsPacket
		if err := protocol.Decode(msg, &req); err != nil {
			logHandlerError("GetReceipts", err)
			s.stats.Receipts.IncMalformed()
			return err
		}
		receipts := s.GetReceipts(req)
		return protocol.Send(rw, protocol.ReceiptsMsg, receipts)

	case protocol.GetNodeDataMsg:
		var req protocol.GetNodeDataPacket
		if err := protocol.Decode(msg, &req); err != nil {
			logHandlerError("GetNodeData", err)
			s.stats.NodeData.IncMalformed()
			return err
		}
		data, err := s.GetNodeData(req)
		if err != nil {
			// StorageUnavailable / not-supported: close the session with
			// SubprotocolTriggered rather than pretend an empty answer,
			// per SPEC_FULL.md §4.D.1. The session driver recognizes this
			// error and performs the transition; Dispatch just surfaces it.
			if err == ethcore.ErrNodeDataUnsupported {
				return err
			}
			return err
		}
		return protocol.Send(rw, protocol.NodeDataMsg, data)

	default:
		return nil
	}
}

// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"fmt"

	"github.com/ethereum/go-ethereum/p2p"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/chaincore/ethwire/ethcore"
)

// Decode reads and RLP-decodes the payload of an inbound frame into
// dst, releasing the frame's backing buffer on both the success and
// the failure path (msg.Discard is always safe to call twice).
//
// Grounded on the retrieval pack's handler.go dispatch loops, which
// call msg.Decode(&query) immediately after matching on msg.Code and
// always defer msg.Discard().
func Decode(msg p2p.Msg, dst interface{}) error {
	defer msg.Discard()
	if err := msg.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ethcore.ErrMalformedFrame, err)
	}
	return nil
}

// Send RLP-encodes payload and writes it as a frame with the given
// message code. Any write failure is surfaced to the caller as
// ethcore.ErrPeerGone so session-layer send sites have a single error
// to check, per spec.md §4.C.
func Send(rw p2p.MsgWriter, code uint64, payload interface{}) error {
	if err := p2p.Send(rw, code, payload); err != nil {
		return fmt.Errorf("%w: %v", ethcore.ErrPeerGone, err)
	}
	return nil
}

// EncodeStatus RLP-encodes a Status message body without framing it.
// The session handshake itself sends STATUS through Send.
func EncodeStatus(s *Status) ([]byte, error) {
	return rlp.EncodeToBytes(s)
}

// DecodeStatus RLP-decodes a Status message body.
func DecodeStatus(data []byte) (*Status, error) {
	var s Status
	if err := rlp.DecodeBytes(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ethcore.ErrMalformedFrame, err)
	}
	return &s, nil
}

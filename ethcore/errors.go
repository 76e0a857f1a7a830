// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ethcore holds the error and disconnect-reason taxonomy shared
// by the wire codec, the peer session, the eth server and the downloader.
package ethcore

import "errors"

// Sentinel errors shared across the protocol, session, server and
// downloader packages. Callers should compare with errors.Is, never
// string-match.
var (
	// ErrMalformedFrame is returned by the wire codec when an inbound
	// frame's RLP structure or field widths violate the message schema.
	ErrMalformedFrame = errors.New("ethwire: malformed frame")

	// ErrIncompatibleStatus is returned when a peer's STATUS message
	// advertises a network id or genesis hash that does not match ours.
	ErrIncompatibleStatus = errors.New("ethwire: incompatible status")

	// ErrPeerGone is returned by a session send when the underlying
	// transport has already failed or closed.
	ErrPeerGone = errors.New("ethwire: peer gone")

	// ErrRequestTimeout is returned when an outstanding request received
	// no response within the configured deadline.
	ErrRequestTimeout = errors.New("ethwire: request timeout")

	// ErrLinkageViolation is returned by the downloader when two
	// consecutive headers in a response do not chain by parent hash.
	ErrLinkageViolation = errors.New("ethwire: header linkage violation")

	// ErrMaxRetriesReached is returned by the downloader once its
	// retry budget is exhausted without a valid response.
	ErrMaxRetriesReached = errors.New("ethwire: max retries reached")

	// ErrCancelled is returned by the downloader when its cancellation
	// token fires before a task completes.
	ErrCancelled = errors.New("ethwire: cancelled")

	// ErrStorageUnavailable is returned by the chain read model's
	// adapters when the underlying store cannot be reached.
	ErrStorageUnavailable = errors.New("ethwire: storage unavailable")

	// ErrNodeDataUnsupported is returned by the server's GET_NODE_DATA
	// handler when no state database has been wired in.
	ErrNodeDataUnsupported = errors.New("ethwire: node data serving not supported")

	// ErrNoPeerAvailable is returned by the downloader when it has no
	// session to issue a request against.
	ErrNoPeerAvailable = errors.New("ethwire: no peer available")
)

// DisconnectReason is the closed set of reasons a peer session can end.
// The numeric values follow the devp2p wire disconnect codes so they can
// be sent on the wire before the transport closes.
type DisconnectReason byte

const (
	DisconnectRequested          DisconnectReason = 0x00
	DisconnectBreachOfProtocol   DisconnectReason = 0x02
	DisconnectUselessPeer        DisconnectReason = 0x03
	DisconnectTooManyPeers       DisconnectReason = 0x04
	DisconnectAlreadyConnected   DisconnectReason = 0x05
	DisconnectIncompatibleProto  DisconnectReason = 0x06
	DisconnectNullNodeIdentity   DisconnectReason = 0x07
	DisconnectClientQuit         DisconnectReason = 0x08
	DisconnectUnexpectedIdentity DisconnectReason = 0x09
	DisconnectRemoteReset        DisconnectReason = 0x0a
	DisconnectSubprotocol        DisconnectReason = 0x10
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectRequested:
		return "requested"
	case DisconnectBreachOfProtocol:
		return "breach of protocol"
	case DisconnectUselessPeer:
		return "useless peer"
	case DisconnectTooManyPeers:
		return "too many peers"
	case DisconnectAlreadyConnected:
		return "already connected"
	case DisconnectIncompatibleProto:
		return "incompatible protocol"
	case DisconnectNullNodeIdentity:
		return "null node identity"
	case DisconnectClientQuit:
		return "client quit"
	case DisconnectUnexpectedIdentity:
		return "unexpected identity"
	case DisconnectRemoteReset:
		return "remote connection reset"
	case DisconnectSubprotocol:
		return "subprotocol triggered"
	default:
		return "unknown disconnect reason"
	}
}

// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session implements the per-peer eth sub-protocol state
// machine: handshake, capability/network-id/genesis validation, and
// the serialized dispatch loop that feeds the eth server.
//
// Grounded on the retrieval pack's peer-handling loop shape (a single
// goroutine calling rw.ReadMsg() and dispatching by code, deferring
// msg.Discard on every path) and on the teacher's network/peer.go
// idiom of pairing a read loop with a Close-once disconnect.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p"
	"github.com/holiman/uint256"

	"github.com/chaincore/ethwire/ethcore"
	"github.com/chaincore/ethwire/protocol"
	"github.com/chaincore/ethwire/server"
)

// State is the session lifecycle named in spec.md §3.
type State int

const (
	StateOpened State = iota
	StateStatusSent
	StateStatusReceived
	StateActive
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateStatusSent:
		return "status-sent"
	case StateStatusReceived:
		return "status-received"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Local carries the identity values the local node advertises in its
// own STATUS message and checks the remote STATUS against.
type Local struct {
	NetworkID   uint64
	GenesisHash common.Hash
	HeadHash    common.Hash
	TotalDiff   *uint256.Int
}

// Session is the per-connection state machine of spec.md §4.C. The
// registry it is registered with holds it; other components (the
// notifier, the downloader) use the sessions of a registry snapshot for
// one operation. The session holds no reference to the registry; ID()
// returns its opaque identity token.
type Session struct {
	id     uint64
	local  Local
	server *server.Server
	rw     p2p.MsgReadWriter

	mu     sync.Mutex
	state  State
	reason ethcore.DisconnectReason
	peer   protocol.Status

	mailbox chan p2p.Msg
	done    chan struct{}
	once    sync.Once

	pendingCode uint64
	pendingCh   chan p2p.Msg
}

var nextID atomic.Uint64

// New creates a Session bound to the given frame reader/writer. Run
// must be called to drive the handshake and dispatch loop.
func New(rw p2p.MsgReadWriter, local Local, srv *server.Server) *Session {
	return &Session{
		id:      nextID.Add(1),
		local:   local,
		server:  srv,
		rw:      rw,
		state:   StateOpened,
		mailbox: make(chan p2p.Msg, 64),
		done:    make(chan struct{}),
	}
}

// ID returns this session's opaque identity token.
func (s *Session) ID() uint64 { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the handshake has completed successfully and
// the session has not since disconnected.
func (s *Session) Active() bool {
	return s.State() == StateActive
}

// PeerStatus returns the remote peer's handshake values. Only valid
// once Active() is true.
func (s *Session) PeerStatus() protocol.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run drives the handshake (local STATUS first, per spec.md §5(ii))
// then the inbound dispatch loop until ctx is cancelled, the
// connection fails, or a protocol violation forces a disconnect.
func (s *Session) Run(ctx context.Context) error {
	if err := s.sendStatus(); err != nil {
		s.Disconnect(ethcore.DisconnectRemoteReset)
		return err
	}
	s.setState(StateStatusSent)

	go s.drainMailbox(ctx)

	for {
		msg, err := s.rw.ReadMsg()
		if err != nil {
			s.Disconnect(ethcore.DisconnectRemoteReset)
			return fmt.Errorf("%w: %v", ethcore.ErrPeerGone, err)
		}

		if s.State() != StateActive {
			if err := s.handleHandshake(msg); err != nil {
				return err
			}
			continue
		}

		if s.tryDeliverResponse(msg) {
			continue
		}

		select {
		case s.mailbox <- msg:
		case <-ctx.Done():
			msg.Discard()
			s.Disconnect(ethcore.DisconnectClientQuit)
			return ctx.Err()
		case <-s.done:
			msg.Discard()
			return nil
		}
	}
}

// tryDeliverResponse routes an inbound frame to an outstanding
// request's waiter when its code matches what that request expects.
// eth/63 carries no request ID, so at most one request may be
// outstanding per session at a time (RequestHeaders refuses a second
// one, and the downloader prefers an idle peer); a matching frame is
// handed to the waiter instead of entering the server dispatch path.
func (s *Session) tryDeliverResponse(msg p2p.Msg) bool {
	s.mu.Lock()
	ch := s.pendingCh
	code := s.pendingCode
	s.mu.Unlock()

	if ch == nil || msg.Code != code {
		return false
	}
	select {
	case ch <- msg:
	default:
		// No one is listening anymore (the requester timed out or was
		// cancelled); discard per spec.md §4.F.5's cooperative
		// cancellation note.
		msg.Discard()
	}
	return true
}

// RequestHeaders issues GET_BLOCK_HEADERS and waits for the matching
// BLOCK_HEADERS response, used by the header-sequence downloader
// (spec.md §4.F). Only one request may be outstanding at a time.
func (s *Session) RequestHeaders(ctx context.Context, req *protocol.GetBlockHeadersPacket) (protocol.BlockHeadersPacket, error) {
	s.mu.Lock()
	if s.pendingCh != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("ethwire: session %d already has an outstanding request", s.id)
	}
	respCh := make(chan p2p.Msg, 1)
	s.pendingCode = protocol.BlockHeadersMsg
	s.pendingCh = respCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pendingCode = 0
		s.pendingCh = nil
		s.mu.Unlock()
	}()

	if err := s.Send(protocol.GetBlockHeadersMsg, req); err != nil {
		return nil, err
	}

	select {
	case msg := <-respCh:
		var headers protocol.BlockHeadersPacket
		if err := protocol.Decode(msg, &headers); err != nil {
			return nil, err
		}
		return headers, nil
	case <-ctx.Done():
		return nil, ethcore.ErrRequestTimeout
	case <-s.done:
		return nil, ethcore.ErrPeerGone
	}
}

func (s *Session) sendStatus() error {
	status := &protocol.Status{
		ProtocolVersion: protocol.Version,
		NetworkID:       s.local.NetworkID,
		TD:              s.local.TotalDiff,
		Head:            s.local.HeadHash,
		Genesis:         s.local.GenesisHash,
	}
	return protocol.Send(s.rw, protocol.StatusMsg, status)
}

// handleHandshake processes the single inbound frame expected before
// the session reaches Active: it must be STATUS, and it must match
// our network id and genesis hash. Any violation is
// Disconnected(BreachOfProtocol), per spec.md §8 laws 4 and 5.
func (s *Session) handleHandshake(msg p2p.Msg) error {
	if msg.Code != protocol.StatusMsg {
		msg.Discard()
		s.Disconnect(ethcore.DisconnectBreachOfProtocol)
		return fmt.Errorf("%w: first frame was code %#x, not STATUS", ethcore.ErrMalformedFrame, msg.Code)
	}

	var status protocol.Status
	if err := protocol.Decode(msg, &status); err != nil {
		s.Disconnect(ethcore.DisconnectBreachOfProtocol)
		return err
	}
	s.setState(StateStatusReceived)

	if status.NetworkID != s.local.NetworkID || status.Genesis != s.local.GenesisHash {
		s.Disconnect(ethcore.DisconnectBreachOfProtocol)
		return fmt.Errorf("%w: network=%d/%d genesis=%s/%s", ethcore.ErrIncompatibleStatus,
			status.NetworkID, s.local.NetworkID, status.Genesis, s.local.GenesisHash)
	}

	s.mu.Lock()
	s.peer = status
	s.state = StateActive
	s.mu.Unlock()

	log.Info("eth handshake complete", "session", s.id, "peer_network", status.NetworkID, "peer_head", status.Head)
	return nil
}

// drainMailbox is the single consumer goroutine that gives this
// session its FIFO dispatch guarantee: frames are processed in the
// order they were enqueued, one at a time, regardless of how many
// other sessions' handlers are concurrently in flight on the shared
// worker pool.
func (s *Session) drainMailbox(ctx context.Context) {
	for {
		select {
		case msg, ok := <-s.mailbox:
			if !ok {
				return
			}
			s.handleActive(ctx, msg)
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleActive(ctx context.Context, msg p2p.Msg) {
	err := s.server.Dispatch(s.rw, msg)
	switch {
	case err == nil:
		return
	case isPeerGone(err):
		// A write failure surfaces as PeerGone; spec.md §4.D treats this
		// as a silent no-op at the handler layer, but the session still
		// records the transition since the transport is in fact dead.
		log.Debug("session send failed, peer gone", "session", s.id, "err", err)
		s.Disconnect(ethcore.DisconnectRemoteReset)
	case isMalformed(err):
		log.Debug("session received malformed frame", "session", s.id, "err", err)
		s.Disconnect(ethcore.DisconnectBreachOfProtocol)
	case errors.Is(err, ethcore.ErrNodeDataUnsupported), errors.Is(err, ethcore.ErrStorageUnavailable):
		log.Debug("session request cannot be served", "session", s.id, "err", err)
		s.Disconnect(ethcore.DisconnectSubprotocol)
	default:
		log.Warn("session dispatch error", "session", s.id, "err", err)
		s.Disconnect(ethcore.DisconnectBreachOfProtocol)
	}
}

func isPeerGone(err error) bool {
	return errors.Is(err, ethcore.ErrPeerGone)
}

func isMalformed(err error) bool {
	return errors.Is(err, ethcore.ErrMalformedFrame)
}

// Send writes an outbound frame to the peer. Write failures are
// normalized to ethcore.ErrPeerGone and transition the session to
// Disconnected(RemoteConnectionReset), per spec.md §4.C.
func (s *Session) Send(code uint64, payload interface{}) error {
	if !s.Active() {
		return ethcore.ErrPeerGone
	}
	if err := protocol.Send(s.rw, code, payload); err != nil {
		s.Disconnect(ethcore.DisconnectRemoteReset)
		return err
	}
	return nil
}

// Disconnect moves the session to Disconnected(reason). Idempotent:
// repeated calls after the first are no-ops, per spec.md §4.C.
func (s *Session) Disconnect(reason ethcore.DisconnectReason) {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = StateDisconnected
		s.reason = reason
		s.mu.Unlock()
		close(s.done)
		log.Info("session disconnected", "session", s.id, "reason", reason)
	})
}

// DisconnectReason returns the reason the session ended, valid once
// State() == StateDisconnected.
func (s *Session) DisconnectReason() ethcore.DisconnectReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

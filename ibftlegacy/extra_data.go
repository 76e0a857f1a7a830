// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ibftlegacy implements the IBFT-legacy proposer glue of
// spec.md §4.G: candidate-block construction whose header encodes a
// validator set and proposer signature in extra_data and passes the
// attached IBFT-legacy validation ruleset against its parent.
//
// Grounded on original_source/consensus/ibftlegacy's Java
// IbftExtraData/IbftBlockCreator (visible via
// IbftBlockCreatorTest.java's imports of IbftExtraData,
// IbftBlockHeaderValidationRulesetFactory and IbftProtocolSchedule) and
// on the teacher's consensus/dummy engine for the Go shape of a
// pluggable consensus engine's header-production entry point.
package ibftlegacy

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// VanitySize is the fixed-width vanity prefix of extra_data, matching
// the Java original's 32-byte BytesValue.wrap(new byte[32]).
const VanitySize = 32

var errExtraDataTooShort = errors.New("ibftlegacy: extra_data shorter than vanity size")

// ExtraData is the IBFT-legacy structure encoded into a header's
// extra_data field, per spec.md §3.
type ExtraData struct {
	Vanity       [VanitySize]byte
	Validators   []common.Address
	Seals        [][]byte
	ProposerSeal []byte
}

// rlpExtraData mirrors ExtraData with a slice Vanity field so it
// round-trips through RLP, which has no fixed-size-array primitive
// beyond what the encoding package already supports for [N]byte.
type rlpExtraData struct {
	Vanity       []byte
	Validators   []common.Address
	Seals        [][]byte
	ProposerSeal []byte
}

// Encode serializes ExtraData into the bytes placed in
// header.Extra, per spec.md §3 ("Encodes to a single byte string").
func (e *ExtraData) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&rlpExtraData{
		Vanity:       e.Vanity[:],
		Validators:   e.Validators,
		Seals:        e.Seals,
		ProposerSeal: e.ProposerSeal,
	})
}

// DecodeExtraData parses a header's extra_data bytes into an
// ExtraData, per spec.md §8 law "extra-data round-trips."
func DecodeExtraData(data []byte) (*ExtraData, error) {
	var raw rlpExtraData
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Vanity) < VanitySize {
		return nil, errExtraDataTooShort
	}
	e := &ExtraData{
		Validators:   raw.Validators,
		Seals:        raw.Seals,
		ProposerSeal: raw.ProposerSeal,
	}
	copy(e.Vanity[:], raw.Vanity[:VanitySize])
	return e, nil
}

// withoutProposerSeal returns a copy of e with ProposerSeal cleared,
// used to compute the signature-free seal hash (spec.md §3 invariant).
func (e *ExtraData) withoutProposerSeal() *ExtraData {
	clone := *e
	clone.ProposerSeal = nil
	return &clone
}

// HasValidator reports whether addr is a member of the validator set.
func (e *ExtraData) HasValidator(addr common.Address) bool {
	for _, v := range e.Validators {
		if v == addr {
			return true
		}
	}
	return false
}

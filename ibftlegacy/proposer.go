// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ibftlegacy

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Proposer is the propose(parent) -> Block interface the consensus
// core consumes, per spec.md §6 ("consumes block-proposal requests
// (propose(parent) -> Block) served by 4.G").
type Proposer interface {
	Propose(ctx context.Context, parent *types.Header) (*types.Block, error)
}

// Builder adapts Propose into a Proposer bound to one node's signing
// key and gas-limit policy. ValidatorSet is read fresh on every call so
// the consensus core's vote-tally can update it between proposals, per
// SPEC_FULL.md's SUPPLEMENTED FEATURES item 2.
type Builder struct {
	Key            *ecdsa.PrivateKey
	GasLimitPolicy GasLimitPolicy
	ValidatorSet   func() []common.Address
}

// Propose implements Proposer. ctx is accepted for interface
// conformance with the rest of this core's suspending operations but
// is not currently consulted: block construction here is pure
// computation, not I/O.
func (b *Builder) Propose(_ context.Context, parent *types.Header) (*types.Block, error) {
	return Propose(parent, b.ValidatorSet(), b.Key, b.GasLimitPolicy)
}

// GasLimitPolicy computes a child block's gas limit from its parent's,
// the injected collaborator named in spec.md §4.G.
type GasLimitPolicy func(parentGasLimit uint64) uint64

// IdentityGasLimitPolicy keeps the gas limit constant across blocks,
// matching original_source/consensus/ibftlegacy's test double
// (`parentGasLimit -> parentGasLimit` in IbftBlockCreatorTest.java).
func IdentityGasLimitPolicy(parentGasLimit uint64) uint64 { return parentGasLimit }

// proposerDifficulty is the fixed difficulty IBFT-legacy blocks carry;
// IBFT has no PoW so difficulty does not encode work, only liveness.
var proposerDifficulty = big.NewInt(1)

// Propose builds a candidate block atop parent whose header embeds
// validators in extra_data and is signed by key, per spec.md §4.G. The
// returned block has an empty body: this core does not execute
// transactions (spec.md §4.G, final paragraph).
func Propose(parent *types.Header, validators []common.Address, key *ecdsa.PrivateKey, gasLimitPolicy GasLimitPolicy) (*types.Block, error) {
	if gasLimitPolicy == nil {
		gasLimitPolicy = IdentityGasLimitPolicy
	}

	parentHash, err := SealHash(parent)
	if err != nil {
		// Genesis and any header minted outside this package may not
		// carry IBFT extra_data yet; fall back to its own Hash() so the
		// very first IBFT block can still be proposed on top of it.
		parentHash = parent.Hash()
	}

	header := &types.Header{
		ParentHash: parentHash,
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		GasLimit:   gasLimitPolicy(parent.GasLimit),
		Time:       proposalTimestamp(parent),
		Coinbase:   crypto.PubkeyToAddress(key.PublicKey),
		Difficulty: new(big.Int).Set(proposerDifficulty),
	}

	extra := &ExtraData{Validators: validators}
	rawExtra, err := extra.Encode()
	if err != nil {
		return nil, err
	}
	header.Extra = rawExtra

	sealHash, err := rlpHash(header)
	if err != nil {
		return nil, err
	}
	seal, err := crypto.Sign(sealHash.Bytes(), key)
	if err != nil {
		return nil, err
	}
	extra.ProposerSeal = seal

	finalExtra, err := extra.Encode()
	if err != nil {
		return nil, err
	}
	header.Extra = finalExtra

	return types.NewBlockWithHeader(header), nil
}

// proposalTimestamp picks a timestamp strictly greater than the
// parent's, satisfying the monotonic-timestamp rule validated in
// Validate.
func proposalTimestamp(parent *types.Header) uint64 {
	now := uint64(time.Now().Unix())
	if now <= parent.Time {
		return parent.Time + 1
	}
	return now
}

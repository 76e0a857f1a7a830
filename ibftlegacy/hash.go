// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ibftlegacy

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// SealHash computes the header hash used by IBFT-legacy for both
// signing and chain linkage: the RLP encoding of the header with the
// proposer signature bytes stripped from extra_data, per spec.md §3's
// invariant ("for IBFT-legacy the hash function excludes the proposer
// signature bytes inside extra_data").
//
// This is the hash that must appear as a child header's ParentHash,
// and is also what the proposer signs to produce ProposerSeal.
func SealHash(header *types.Header) (common.Hash, error) {
	extra, err := DecodeExtraData(header.Extra)
	if err != nil {
		return common.Hash{}, err
	}
	stripped, err := extra.withoutProposerSeal().Encode()
	if err != nil {
		return common.Hash{}, err
	}

	sealed := types.CopyHeader(header)
	sealed.Extra = stripped
	return rlpHash(sealed)
}

func rlpHash(x interface{}) (common.Hash, error) {
	data, err := rlp.EncodeToBytes(x)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

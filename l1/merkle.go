// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package l1

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// hashMerkleBranches concatenates the two nodes and double-sha256 hashes them
func hashMerkleBranches(left, right *chainhash.Hash) *chainhash.Hash {
	var b [chainhash.HashSize * 2]byte
	copy(b[:chainhash.HashSize], left[:])
	copy(b[chainhash.HashSize:], right[:])
	h := chainhash.DoubleHashH(b[:])
	return &h
}

// CalcWitnessMerkleRoot computes the witness-transaction merkle root of a block under
// bitcoin rules: the coinbase wtxid is the zero hash, every other leaf is the
// transaction's witness hash, and an odd level duplicates its last node.
func CalcWitnessMerkleRoot(block *btcutil.Block) chainhash.Hash {
	txs := block.Transactions()
	level := make([]*chainhash.Hash, len(txs))
	level[0] = &chainhash.Hash{}
	for i := 1; i < len(txs); i++ {
		level[i] = txs[i].WitnessHash()
	}
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]*chainhash.Hash, len(level)/2)
		for i := range next {
			next[i] = hashMerkleBranches(level[2*i], level[2*i+1])
		}
		level = next
	}
	return *level[0]
}

// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mmr

import (
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/pkg/hash"
)

// Proof is an inclusion proof for one leaf: the merkle path within the leaf's mountain,
// plus the peaks of the mountains to its left and right for re-bagging the root.
type Proof struct {
	Siblings   []hash.Hash256
	PeaksLeft  []hash.Hash256
	PeaksRight []hash.Hash256
}

// GenProof produces an inclusion proof for leaves[index] against the accumulator that
// holds exactly the given leaf sequence.
func GenProof(leaves []hash.Hash256, index uint64) (*Proof, error) {
	if index >= uint64(len(leaves)) {
		return nil, errors.Wrapf(ErrLeafOutOfRange, "index %d, %d leaves", index, len(leaves))
	}
	k, local, heights := locateLeaf(uint64(len(leaves)), index)

	var base uint64
	for i := 0; i < k; i++ {
		base += uint64(1) << heights[i]
	}
	span := uint64(1) << heights[k]
	slab := leaves[base : base+span]

	// merkle path bottom-up inside the mountain
	proof := &Proof{}
	level := make([]hash.Hash256, len(slab))
	copy(level, slab)
	pos := local
	for len(level) > 1 {
		proof.Siblings = append(proof.Siblings, level[pos^1])
		next := level[:len(level)/2]
		for i := range next {
			next[i] = nodeHash(level[2*i], level[2*i+1])
		}
		level = next
		pos >>= 1
	}

	base = 0
	for i, h := range heights {
		span := uint64(1) << h
		if i != k {
			peak := peakOf(leaves[base : base+span])
			if i < k {
				proof.PeaksLeft = append(proof.PeaksLeft, peak)
			} else {
				proof.PeaksRight = append(proof.PeaksRight, peak)
			}
		}
		base += span
	}
	return proof, nil
}

// VerifyProof checks that leaf sits at the given index of the accumulator identified by
// root and leafCount. It returns ErrInvalidProof when the proof is malformed for the
// claimed position or does not hash up to the root.
func VerifyProof(root hash.Hash256, leaf hash.Hash256, index, leafCount uint64, proof *Proof) error {
	if index >= leafCount {
		return errors.Wrapf(ErrLeafOutOfRange, "index %d, %d leaves", index, leafCount)
	}
	k, local, heights := locateLeaf(leafCount, index)
	if uint(len(proof.Siblings)) != heights[k] ||
		len(proof.PeaksLeft) != k ||
		len(proof.PeaksRight) != len(heights)-k-1 {
		return errors.Wrap(ErrInvalidProof, "proof shape does not match claimed position")
	}

	cur := leaf
	pos := local
	for _, sib := range proof.Siblings {
		if pos&1 == 1 {
			cur = nodeHash(sib, cur)
		} else {
			cur = nodeHash(cur, sib)
		}
		pos >>= 1
	}

	peaks := make([]hash.Hash256, 0, len(heights))
	peaks = append(peaks, proof.PeaksLeft...)
	peaks = append(peaks, cur)
	peaks = append(peaks, proof.PeaksRight...)
	if bagPeaks(leafCount, peaks) != root {
		return errors.Wrap(ErrInvalidProof, "root mismatch")
	}
	return nil
}

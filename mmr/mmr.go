// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package mmr implements a Merkle Mountain Range, an append-only accumulator over an
// ordered sequence of leaf hashes. An MMR with n leaves is a forest of perfect binary
// trees ("mountains"), one per set bit of n, ordered from the highest mountain to the
// lowest. The root commits to the leaf count and the bagged peaks, so two accumulators
// with the same root contain exactly the same leaf sequence.
package mmr

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

var (
	// ErrInvalidProof indicates the proof does not verify against the root
	ErrInvalidProof = errors.New("invalid mmr proof")
	// ErrCorruptedEncoding indicates the accumulator bytes are malformed
	ErrCorruptedEncoding = errors.New("corrupted mmr encoding")
	// ErrLeafOutOfRange indicates the requested leaf index is not in the range
	ErrLeafOutOfRange = errors.New("leaf index out of range")
)

// Accumulator is the compact form of an MMR: the peak hashes and the leaf count.
// The zero value is an empty accumulator ready for use.
type Accumulator struct {
	peaks  []hash.Hash256
	leaves uint64
}

// LeafCount returns the number of leaves appended so far
func (a *Accumulator) LeafCount() uint64 { return a.leaves }

// AddLeaf appends a leaf hash, merging equal-height peaks as mountains complete
func (a *Accumulator) AddLeaf(leaf hash.Hash256) {
	a.peaks = append(a.peaks, leaf)
	a.leaves++
	// after appending leaf n, the lowest set bits of n tell how many merges close
	for merges := bits.TrailingZeros64(a.leaves); merges > 0; merges-- {
		right := a.peaks[len(a.peaks)-1]
		left := a.peaks[len(a.peaks)-2]
		a.peaks = a.peaks[:len(a.peaks)-2]
		a.peaks = append(a.peaks, nodeHash(left, right))
	}
}

// Root returns the accumulator root: the peaks bagged right to left, committed together
// with the leaf count. An empty accumulator has the zero root.
func (a *Accumulator) Root() hash.Hash256 {
	if a.leaves == 0 {
		return hash.ZeroHash256
	}
	return bagPeaks(a.leaves, a.peaks)
}

// Clone returns a deep copy of the accumulator
func (a *Accumulator) Clone() *Accumulator {
	peaks := make([]hash.Hash256, len(a.peaks))
	copy(peaks, a.peaks)
	return &Accumulator{peaks: peaks, leaves: a.leaves}
}

// Serialize returns the canonical encoding of the accumulator
func (a *Accumulator) Serialize() []byte {
	b := enc.Uint64ToBytes(a.leaves)
	for _, p := range a.peaks {
		b = append(b, p[:]...)
	}
	return b
}

// DeserializeAccumulator parses the canonical encoding of an accumulator
func DeserializeAccumulator(b []byte) (*Accumulator, error) {
	if len(b) < 8 {
		return nil, errors.Wrap(ErrCorruptedEncoding, "truncated leaf count")
	}
	leaves := enc.MachineEndian.Uint64(b[:8])
	numPeaks := bits.OnesCount64(leaves)
	if len(b) != 8+numPeaks*hash.Hash256Size {
		return nil, errors.Wrapf(ErrCorruptedEncoding, "want %d peaks", numPeaks)
	}
	peaks := make([]hash.Hash256, numPeaks)
	for i := range peaks {
		copy(peaks[i][:], b[8+i*hash.Hash256Size:])
	}
	return &Accumulator{peaks: peaks, leaves: leaves}, nil
}

func nodeHash(left, right hash.Hash256) hash.Hash256 {
	b := make([]byte, 0, 2*hash.Hash256Size)
	b = append(b, left[:]...)
	b = append(b, right[:]...)
	return hash.Hash256b(b)
}

func bagPeaks(leaves uint64, peaks []hash.Hash256) hash.Hash256 {
	acc := peaks[len(peaks)-1]
	for i := len(peaks) - 2; i >= 0; i-- {
		acc = nodeHash(peaks[i], acc)
	}
	return hash.Hash256b(append(enc.Uint64ToBytes(leaves), acc[:]...))
}

// mountainHeights returns the mountain heights for the given leaf count, highest first
func mountainHeights(leaves uint64) []uint {
	heights := make([]uint, 0, bits.OnesCount64(leaves))
	for b := 63; b >= 0; b-- {
		if leaves&(1<<uint(b)) != 0 {
			heights = append(heights, uint(b))
		}
	}
	return heights
}

// locateLeaf returns the mountain index and the leaf offset within that mountain
func locateLeaf(leaves, index uint64) (int, uint64, []uint) {
	heights := mountainHeights(leaves)
	var base uint64
	for k, h := range heights {
		span := uint64(1) << h
		if index < base+span {
			return k, index - base, heights
		}
		base += span
	}
	// callers check the range before locating
	return -1, 0, heights
}

// peakOf folds a slab of leaves into its mountain peak
func peakOf(slab []hash.Hash256) hash.Hash256 {
	level := make([]hash.Hash256, len(slab))
	copy(level, slab)
	for len(level) > 1 {
		next := level[:len(level)/2]
		for i := range next {
			next[i] = nodeHash(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

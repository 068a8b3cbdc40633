// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mmr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

func testLeaves(n int) []hash.Hash256 {
	leaves := make([]hash.Hash256, n)
	for i := range leaves {
		leaves[i] = hash.Hash256b(enc.Uint64ToBytes(uint64(i)))
	}
	return leaves
}

func TestAccumulatorEmpty(t *testing.T) {
	require := require.New(t)

	var a Accumulator
	require.Zero(a.LeafCount())
	require.Equal(hash.ZeroHash256, a.Root())
}

func TestAccumulatorDeterministic(t *testing.T) {
	require := require.New(t)

	leaves := testLeaves(17)
	var a, b Accumulator
	for _, l := range leaves {
		a.AddLeaf(l)
	}
	for _, l := range leaves {
		b.AddLeaf(l)
	}
	require.Equal(a.Root(), b.Root())

	// a different leaf order yields a different root
	var c Accumulator
	for i := len(leaves) - 1; i >= 0; i-- {
		c.AddLeaf(leaves[i])
	}
	require.NotEqual(a.Root(), c.Root())
}

func TestAccumulatorLeafCountInRoot(t *testing.T) {
	require := require.New(t)

	// accumulators of different sizes never share a root, even when one extends the other
	leaves := testLeaves(9)
	var a Accumulator
	seen := make(map[hash.Hash256]bool)
	for _, l := range leaves {
		a.AddLeaf(l)
		root := a.Root()
		require.False(seen[root])
		seen[root] = true
	}
}

func TestAccumulatorPeakShape(t *testing.T) {
	require := require.New(t)

	var a Accumulator
	for i, l := range testLeaves(64) {
		a.AddLeaf(l)
		n := uint64(i + 1)
		require.Equal(n, a.LeafCount())
		// one peak per set bit of the leaf count
		numPeaks := 0
		for m := n; m != 0; m &= m - 1 {
			numPeaks++
		}
		require.Len(a.peaks, numPeaks)
	}
}

func TestAccumulatorClone(t *testing.T) {
	require := require.New(t)

	var a Accumulator
	for _, l := range testLeaves(5) {
		a.AddLeaf(l)
	}
	b := a.Clone()
	require.Equal(a.Root(), b.Root())

	// growing the clone must not disturb the original
	root := a.Root()
	b.AddLeaf(hash.Hash256b([]byte("extra")))
	require.Equal(root, a.Root())
	require.NotEqual(root, b.Root())
}

func TestAccumulatorSerialize(t *testing.T) {
	require := require.New(t)

	for _, n := range []int{0, 1, 2, 3, 7, 8, 21} {
		var a Accumulator
		for _, l := range testLeaves(n) {
			a.AddLeaf(l)
		}
		b, err := DeserializeAccumulator(a.Serialize())
		require.NoError(err)
		require.Equal(a.LeafCount(), b.LeafCount())
		require.Equal(a.Root(), b.Root())
	}

	// truncated leaf count
	_, err := DeserializeAccumulator([]byte{1, 2, 3})
	require.ErrorIs(err, ErrCorruptedEncoding)
	// leaf count that promises more peaks than present
	_, err = DeserializeAccumulator(enc.Uint64ToBytes(3))
	require.ErrorIs(err, ErrCorruptedEncoding)
}

func TestProofRoundTrip(t *testing.T) {
	require := require.New(t)

	for n := 1; n <= 64; n++ {
		leaves := testLeaves(n)
		var a Accumulator
		for _, l := range leaves {
			a.AddLeaf(l)
		}
		root := a.Root()
		for i := uint64(0); i < uint64(n); i++ {
			proof, err := GenProof(leaves, i)
			require.NoError(err)
			require.NoError(VerifyProof(root, leaves[i], i, uint64(n), proof))
		}
	}
}

func TestProofRejections(t *testing.T) {
	require := require.New(t)

	leaves := testLeaves(13)
	var a Accumulator
	for _, l := range leaves {
		a.AddLeaf(l)
	}
	root := a.Root()
	proof, err := GenProof(leaves, 5)
	require.NoError(err)

	// out-of-range index
	_, err = GenProof(leaves, 13)
	require.ErrorIs(err, ErrLeafOutOfRange)
	require.ErrorIs(VerifyProof(root, leaves[5], 13, 13, proof), ErrLeafOutOfRange)

	// wrong leaf
	require.ErrorIs(VerifyProof(root, leaves[6], 5, 13, proof), ErrInvalidProof)
	// wrong index
	require.ErrorIs(VerifyProof(root, leaves[5], 4, 13, proof), ErrInvalidProof)
	// wrong leaf count
	require.ErrorIs(VerifyProof(root, leaves[5], 5, 12, proof), ErrInvalidProof)

	// tampered sibling
	tampered := *proof
	tampered.Siblings = append([]hash.Hash256{}, proof.Siblings...)
	tampered.Siblings[0][0] ^= 0xff
	require.ErrorIs(VerifyProof(root, leaves[5], 5, 13, &tampered), ErrInvalidProof)

	// tampered peak
	tampered = *proof
	tampered.PeaksRight = append([]hash.Hash256{}, proof.PeaksRight...)
	require.NotEmpty(tampered.PeaksRight)
	tampered.PeaksRight[0][0] ^= 0xff
	require.ErrorIs(VerifyProof(root, leaves[5], 5, 13, &tampered), ErrInvalidProof)

	// proof shape of another position
	wide, err := GenProof(leaves, 12)
	require.NoError(err)
	require.ErrorIs(VerifyProof(root, leaves[5], 5, 13, wide), ErrInvalidProof)
}

func TestProofAgainstGrownAccumulator(t *testing.T) {
	require := require.New(t)

	// a proof is bound to the accumulator size it was generated for
	leaves := testLeaves(8)
	var a Accumulator
	for _, l := range leaves {
		a.AddLeaf(l)
	}
	proof, err := GenProof(leaves, 3)
	require.NoError(err)
	require.NoError(VerifyProof(a.Root(), leaves[3], 3, 8, proof))

	a.AddLeaf(hash.Hash256b([]byte("ninth")))
	require.Error(VerifyProof(a.Root(), leaves[3], 3, 9, proof))
}

// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package store

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/anchorproject/anchor-core/asm"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/db"
	"github.com/anchorproject/anchor-core/mmr"
)

// buildChain returns the genesis state at height 100 and n child states with their
// manifests, one per height 101..100+n.
func buildChain(t *testing.T, n int) (*asm.AnchorState, []*asm.AnchorState, []*manifest.Manifest) {
	genesis := asm.NewAnchorState(
		asm.NewChainView(100, chainhash.Hash{0xaa}, nil),
		&mmr.Accumulator{},
		map[asm.SubprotocolID][]byte{1: {0x01}},
	)
	acc := genesis.ManifestMMR()
	var states []*asm.AnchorState
	var manifests []*manifest.Manifest
	for i := 0; i < n; i++ {
		h := uint64(101 + i)
		m := manifest.New(chainhash.Hash{byte(h)}, chainhash.Hash{byte(h), 1}, []manifest.LogEntry{
			{Source: 1, Type: 1, Data: []byte{byte(h)}},
		})
		acc.AddLeaf(m.Hash())
		states = append(states, asm.NewAnchorState(
			asm.NewChainView(h, chainhash.Hash{0xbb, byte(h)}, nil),
			acc,
			map[asm.SubprotocolID][]byte{1: {byte(h)}},
		))
		manifests = append(manifests, m)
	}
	return genesis, states, manifests
}

func TestAnchorStoreFresh(t *testing.T) {
	require := require.New(t)

	s := NewAnchorStore(db.NewMemKVStore())
	_, _, ok, err := s.GetLatest()
	require.NoError(err)
	require.False(ok)
}

func TestAnchorStoreRoundTrip(t *testing.T) {
	require := require.New(t)

	s := NewAnchorStore(db.NewMemKVStore())
	genesis, states, manifests := buildChain(t, 2)

	require.NoError(s.PutGenesis(genesis))
	c, latest, ok, err := s.GetLatest()
	require.NoError(err)
	require.True(ok)
	require.Equal(genesis.Commitment(), c)
	require.Equal(genesis.Serialize(), latest.Serialize())

	for i, state := range states {
		require.NoError(s.PutTransition(state, manifests[i]))
	}

	// latest tracks the last transition
	c, latest, ok, err = s.GetLatest()
	require.NoError(err)
	require.True(ok)
	require.Equal(states[1].Commitment(), c)
	require.Equal(states[1].Serialize(), latest.Serialize())

	// every snapshot stays addressable by its commitment
	got, err := s.Get(genesis.Commitment())
	require.NoError(err)
	require.Equal(genesis.Serialize(), got.Serialize())
	got, err = s.Get(states[0].Commitment())
	require.NoError(err)
	require.Equal(states[0].Serialize(), got.Serialize())
	_, err = s.Get(asm.L1BlockCommitment{Height: 999, BlockID: chainhash.Hash{9}})
	require.ErrorIs(err, db.ErrNotExist)

	// manifests index by height, leaves by MMR position
	m, leafIdx, err := s.GetManifest(101)
	require.NoError(err)
	require.Zero(leafIdx)
	require.Equal(manifests[0].Hash(), m.Hash())
	m, leafIdx, err = s.GetManifest(102)
	require.NoError(err)
	require.Equal(uint64(1), leafIdx)
	require.Equal(manifests[1].Hash(), m.Hash())
	_, _, err = s.GetManifest(103)
	require.ErrorIs(err, db.ErrNotExist)

	leaves, err := s.ManifestLeaves(2)
	require.NoError(err)
	require.Equal(manifests[0].Hash(), leaves[0])
	require.Equal(manifests[1].Hash(), leaves[1])

	// the recorded leaves rebuild the committed root
	var acc mmr.Accumulator
	for _, leaf := range leaves {
		acc.AddLeaf(leaf)
	}
	require.Equal(states[1].ManifestRoot(), acc.Root())
}

func TestPutTransitionRequiresLeaf(t *testing.T) {
	require := require.New(t)

	s := NewAnchorStore(db.NewMemKVStore())
	genesis, _, manifests := buildChain(t, 1)
	require.Error(s.PutTransition(genesis, manifests[0]))
}

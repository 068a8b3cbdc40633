// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package store persists anchor states, per-block manifests and manifest MMR leaves in
// a namespaced KV store. Each processed block maps to an immutable snapshot keyed by
// its L1 block commitment; a transition is written atomically in one batch together
// with the latest-commitment pointer.
package store

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/asm"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/db"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

const (
	// AnchorStateNS is the namespace of anchor state snapshots keyed by commitment
	AnchorStateNS = "AnchorState"
	// ManifestNS is the namespace of per-block manifests keyed by height
	ManifestNS = "Manifest"
	// ManifestLeafNS is the namespace of manifest MMR leaves keyed by leaf index
	ManifestLeafNS = "ManifestLeaf"
	// MetaNS holds the latest-commitment pointer
	MetaNS = "Meta"

	_commitmentKeySize = 8 + chainhash.HashSize
)

var _latestKey = []byte("latest")

// AnchorStore records anchor states and manifests over a KV store. Reads may run from
// multiple goroutines; writes for a given child block must be serialized by the caller.
type AnchorStore struct {
	kv db.KVStore
}

// NewAnchorStore creates an anchor store over the given KV store
func NewAnchorStore(kv db.KVStore) *AnchorStore {
	return &AnchorStore{kv: kv}
}

// commitmentKey is height ‖ block id, big-endian height so key order equals chain order
func commitmentKey(c asm.L1BlockCommitment) []byte {
	k := make([]byte, 0, _commitmentKeySize)
	k = append(k, enc.Uint64ToBytesBE(c.Height)...)
	k = append(k, c.BlockID[:]...)
	return k
}

func parseCommitmentKey(k []byte) (asm.L1BlockCommitment, error) {
	if len(k) != _commitmentKeySize {
		return asm.L1BlockCommitment{}, errors.Errorf("commitment key must be %d bytes, got %d", _commitmentKeySize, len(k))
	}
	c := asm.L1BlockCommitment{Height: enc.BytesToUint64BE(k[:8])}
	copy(c.BlockID[:], k[8:])
	return c, nil
}

// PutGenesis writes the genesis anchor state and points latest at it
func (s *AnchorStore) PutGenesis(state *asm.AnchorState) error {
	key := commitmentKey(state.Commitment())
	b := db.NewBatch()
	b.Put(AnchorStateNS, key, state.Serialize())
	b.Put(MetaNS, _latestKey, key)
	return s.kv.Commit(b)
}

// PutTransition atomically writes the child state, its manifest, the manifest's MMR
// leaf and the latest pointer. The manifest's leaf index is the last leaf of the child
// state's accumulator.
func (s *AnchorStore) PutTransition(state *asm.AnchorState, m *manifest.Manifest) error {
	if state.ManifestLeafCount() == 0 {
		return errors.New("transition state carries no manifest leaf")
	}
	leafIndex := state.ManifestLeafCount() - 1
	leaf := m.Hash()
	key := commitmentKey(state.Commitment())

	b := db.NewBatch()
	b.Put(AnchorStateNS, key, state.Serialize())
	mv := append(enc.Uint64ToBytesBE(leafIndex), m.Serialize()...)
	b.Put(ManifestNS, enc.Uint64ToBytesBE(state.Commitment().Height), mv)
	b.Put(ManifestLeafNS, enc.Uint64ToBytesBE(leafIndex), leaf[:])
	b.Put(MetaNS, _latestKey, key)
	return s.kv.Commit(b)
}

// Get loads the anchor state for a block commitment
func (s *AnchorStore) Get(c asm.L1BlockCommitment) (*asm.AnchorState, error) {
	raw, err := s.kv.Get(AnchorStateNS, commitmentKey(c))
	if err != nil {
		return nil, errors.Wrapf(err, "anchor state at height %d", c.Height)
	}
	return asm.Deserialize(raw)
}

// GetLatest returns the most recently committed state, or ok=false on a fresh store
func (s *AnchorStore) GetLatest() (asm.L1BlockCommitment, *asm.AnchorState, bool, error) {
	key, err := s.kv.Get(MetaNS, _latestKey)
	if err != nil {
		if errors.Is(err, db.ErrNotExist) || errors.Is(err, db.ErrBucketNotExist) {
			return asm.L1BlockCommitment{}, nil, false, nil
		}
		return asm.L1BlockCommitment{}, nil, false, err
	}
	c, err := parseCommitmentKey(key)
	if err != nil {
		return asm.L1BlockCommitment{}, nil, false, err
	}
	state, err := s.Get(c)
	if err != nil {
		return asm.L1BlockCommitment{}, nil, false, err
	}
	return c, state, true, nil
}

// GetManifest returns the manifest recorded for a block height and its MMR leaf index
func (s *AnchorStore) GetManifest(height uint64) (*manifest.Manifest, uint64, error) {
	raw, err := s.kv.Get(ManifestNS, enc.Uint64ToBytesBE(height))
	if err != nil {
		return nil, 0, errors.Wrapf(err, "manifest at height %d", height)
	}
	if len(raw) < 8 {
		return nil, 0, errors.Errorf("manifest record at height %d is truncated", height)
	}
	m, err := manifest.Deserialize(raw[8:])
	if err != nil {
		return nil, 0, err
	}
	return m, enc.BytesToUint64BE(raw[:8]), nil
}

// ManifestLeaves returns the recorded MMR leaves for indexes [0, count)
func (s *AnchorStore) ManifestLeaves(count uint64) ([]hash.Hash256, error) {
	leaves := make([]hash.Hash256, 0, count)
	for i := uint64(0); i < count; i++ {
		raw, err := s.kv.Get(ManifestLeafNS, enc.Uint64ToBytesBE(i))
		if err != nil {
			return nil, errors.Wrapf(err, "manifest leaf %d", i)
		}
		leaves = append(leaves, hash.BytesToHash256(raw))
	}
	return leaves, nil
}

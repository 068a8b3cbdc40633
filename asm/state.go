// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"math/big"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/mmr"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

const _stateEncodingVersion = 1

// ErrCorruptedState indicates anchor state bytes that do not decode
var ErrCorruptedState = errors.New("corrupted anchor state encoding")

// L1BlockCommitment identifies a processed L1 block by height and block id. Every
// persisted anchor state is keyed by the commitment of the block that produced it.
type L1BlockCommitment struct {
	Height  uint64
	BlockID chainhash.Hash
}

type section struct {
	id   SubprotocolID
	data []byte
}

// AnchorState is the composite state after processing one L1 block: the validated
// chain view, the running manifest MMR, and one opaque serialized section per
// registered subprotocol. A state is an immutable snapshot; transitions always build a
// fresh value.
type AnchorState struct {
	view     ChainView
	acc      *mmr.Accumulator
	sections []section
}

// NewAnchorState assembles a state snapshot. Sections are stored in ascending id order
// so the encoding is canonical regardless of registry declaration order.
func NewAnchorState(view ChainView, acc *mmr.Accumulator, sections map[SubprotocolID][]byte) *AnchorState {
	s := &AnchorState{view: view, acc: acc.Clone()}
	ids := make([]int, 0, len(sections))
	for id := range sections {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.sections = append(s.sections, section{id: SubprotocolID(id), data: sections[SubprotocolID(id)]})
	}
	return s
}

// View returns the chain view of the state
func (s *AnchorState) View() ChainView { return s.view }

// Commitment returns the L1 block commitment this state belongs to
func (s *AnchorState) Commitment() L1BlockCommitment {
	return L1BlockCommitment{Height: s.view.Height, BlockID: s.view.BlockID}
}

// ManifestMMR returns a copy of the manifest MMR accumulator
func (s *AnchorState) ManifestMMR() *mmr.Accumulator { return s.acc.Clone() }

// ManifestRoot returns the root of the manifest MMR
func (s *AnchorState) ManifestRoot() hash.Hash256 { return s.acc.Root() }

// ManifestLeafCount returns the number of manifest leaves committed so far
func (s *AnchorState) ManifestLeafCount() uint64 { return s.acc.LeafCount() }

// Section returns the opaque section owned by the given subprotocol
func (s *AnchorState) Section(id SubprotocolID) ([]byte, bool) {
	for _, sec := range s.sections {
		if sec.id == id {
			return sec.data, true
		}
	}
	return nil, false
}

// SubprotocolIDs returns the ids present in the state, in ascending order
func (s *AnchorState) SubprotocolIDs() []SubprotocolID {
	ids := make([]SubprotocolID, len(s.sections))
	for i, sec := range s.sections {
		ids[i] = sec.id
	}
	return ids
}

// Serialize returns the canonical encoding of the state
func (s *AnchorState) Serialize() []byte {
	b := []byte{_stateEncodingVersion}
	b = append(b, enc.Uint64ToBytes(s.view.Height)...)
	b = append(b, s.view.BlockID[:]...)
	work := s.view.TotalWork.Bytes()
	b = append(b, enc.Uint32ToBytes(uint32(len(work)))...)
	b = append(b, work...)
	acc := s.acc.Serialize()
	b = append(b, enc.Uint32ToBytes(uint32(len(acc)))...)
	b = append(b, acc...)
	var count [2]byte
	enc.MachineEndian.PutUint16(count[:], uint16(len(s.sections)))
	b = append(b, count[:]...)
	for _, sec := range s.sections {
		b = append(b, byte(sec.id))
		b = append(b, enc.Uint32ToBytes(uint32(len(sec.data)))...)
		b = append(b, sec.data...)
	}
	return b
}

// Deserialize parses a canonical anchor state encoding
func Deserialize(b []byte) (*AnchorState, error) {
	if len(b) < 1 || b[0] != _stateEncodingVersion {
		return nil, errors.Wrap(ErrCorruptedState, "unknown encoding version")
	}
	off := 1
	if len(b) < off+8+chainhash.HashSize+4 {
		return nil, errors.Wrap(ErrCorruptedState, "truncated chain view")
	}
	s := &AnchorState{}
	s.view.Height = enc.MachineEndian.Uint64(b[off : off+8])
	off += 8
	copy(s.view.BlockID[:], b[off:off+chainhash.HashSize])
	off += chainhash.HashSize
	workLen := int(enc.MachineEndian.Uint32(b[off : off+4]))
	off += 4
	if len(b) < off+workLen+4 {
		return nil, errors.Wrap(ErrCorruptedState, "truncated total work")
	}
	s.view.TotalWork = new(big.Int).SetBytes(b[off : off+workLen])
	off += workLen
	accLen := int(enc.MachineEndian.Uint32(b[off : off+4]))
	off += 4
	if len(b) < off+accLen+2 {
		return nil, errors.Wrap(ErrCorruptedState, "truncated mmr accumulator")
	}
	acc, err := mmr.DeserializeAccumulator(b[off : off+accLen])
	if err != nil {
		return nil, errors.Wrap(ErrCorruptedState, err.Error())
	}
	s.acc = acc
	off += accLen
	count := int(enc.MachineEndian.Uint16(b[off : off+2]))
	off += 2
	var prev int = -1
	for i := 0; i < count; i++ {
		if len(b) < off+5 {
			return nil, errors.Wrapf(ErrCorruptedState, "truncated section %d", i)
		}
		id := SubprotocolID(b[off])
		if int(id) <= prev {
			return nil, errors.Wrap(ErrCorruptedState, "section ids not strictly ascending")
		}
		prev = int(id)
		size := int(enc.MachineEndian.Uint32(b[off+1 : off+5]))
		off += 5
		if len(b) < off+size {
			return nil, errors.Wrapf(ErrCorruptedState, "truncated section %d data", i)
		}
		data := make([]byte, size)
		copy(data, b[off:off+size])
		off += size
		s.sections = append(s.sections, section{id: id, data: data})
	}
	if off != len(b) {
		return nil, errors.Wrap(ErrCorruptedState, "trailing bytes")
	}
	return s, nil
}

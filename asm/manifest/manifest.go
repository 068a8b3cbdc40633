// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package manifest defines the per-block commitment record of the anchor state machine.
// A manifest aggregates every log entry the subprotocols emitted for one L1 block,
// together with the block's own identity fields. Its content hash becomes the next leaf
// of the global manifest MMR, which is how later blocks request and verify ranges of
// historical logs.
package manifest

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/hash"
)

// ErrCorruptedEncoding indicates manifest bytes that do not decode
var ErrCorruptedEncoding = errors.New("corrupted manifest encoding")

// LogEntry is one opaque, typed log record emitted by a subprotocol during block
// processing. Entries are ordered; the order is fixed once the manifest is built.
type LogEntry struct {
	Source l1.SubprotocolID
	Type   uint16
	Data   []byte
}

// Manifest is the immutable per-block record committed into the manifest MMR
type Manifest struct {
	BlockRoot chainhash.Hash
	WtxRoot   chainhash.Hash
	Logs      []LogEntry
}

// New builds a manifest. The log slice is captured as-is; callers hand over ownership
// and must not mutate it afterwards.
func New(blockRoot, wtxRoot chainhash.Hash, logs []LogEntry) *Manifest {
	return &Manifest{BlockRoot: blockRoot, WtxRoot: wtxRoot, Logs: logs}
}

// Serialize returns the canonical byte encoding of the manifest
func (m *Manifest) Serialize() []byte {
	b := make([]byte, 0, 2*chainhash.HashSize+4)
	b = append(b, m.BlockRoot[:]...)
	b = append(b, m.WtxRoot[:]...)
	b = append(b, enc.Uint32ToBytes(uint32(len(m.Logs)))...)
	for _, l := range m.Logs {
		b = append(b, byte(l.Source))
		var t [2]byte
		enc.MachineEndian.PutUint16(t[:], l.Type)
		b = append(b, t[:]...)
		b = append(b, enc.Uint32ToBytes(uint32(len(l.Data)))...)
		b = append(b, l.Data...)
	}
	return b
}

// Deserialize parses a canonical manifest encoding
func Deserialize(b []byte) (*Manifest, error) {
	if len(b) < 2*chainhash.HashSize+4 {
		return nil, errors.Wrap(ErrCorruptedEncoding, "truncated header")
	}
	m := &Manifest{}
	copy(m.BlockRoot[:], b[:chainhash.HashSize])
	copy(m.WtxRoot[:], b[chainhash.HashSize:2*chainhash.HashSize])
	off := 2 * chainhash.HashSize
	count := enc.MachineEndian.Uint32(b[off : off+4])
	off += 4
	for i := uint32(0); i < count; i++ {
		if len(b) < off+7 {
			return nil, errors.Wrapf(ErrCorruptedEncoding, "truncated log entry %d", i)
		}
		entry := LogEntry{
			Source: l1.SubprotocolID(b[off]),
			Type:   enc.MachineEndian.Uint16(b[off+1 : off+3]),
		}
		size := int(enc.MachineEndian.Uint32(b[off+3 : off+7]))
		off += 7
		if len(b) < off+size {
			return nil, errors.Wrapf(ErrCorruptedEncoding, "truncated log data %d", i)
		}
		entry.Data = make([]byte, size)
		copy(entry.Data, b[off:off+size])
		off += size
		m.Logs = append(m.Logs, entry)
	}
	if off != len(b) {
		return nil, errors.Wrap(ErrCorruptedEncoding, "trailing bytes")
	}
	return m, nil
}

// Hash returns the content hash of the manifest, the leaf appended to the manifest MMR
func (m *Manifest) Hash() hash.Hash256 {
	return hash.Hash256b(m.Serialize())
}

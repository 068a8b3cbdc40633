// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package checkpoint implements the checkpoint subprotocol. A checkpoint transaction
// commits to a range of historical per-block manifests; the subprotocol requests the
// manifest leaves for that range, verifies coverage against its own high-water mark and
// records the advance as a CheckpointUpdate log entry.
package checkpoint

import (
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/asm"
	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/pkg/hash"
	"github.com/anchorproject/anchor-core/pkg/log"
)

const (
	// ProtocolID is the checkpoint subprotocol's stable id
	ProtocolID = asm.SubprotocolID(1)

	// TxTypeCommit is the only transaction type the subprotocol accepts
	TxTypeCommit = uint8(1)

	// LogTypeCheckpointUpdate records an accepted checkpoint advance
	LogTypeCheckpointUpdate = uint16(1)

	// commit aux bytes: epoch u32 ‖ start u64 ‖ end u64
	_commitAuxSize = 20

	_stateSize = 12
)

// Params is the genesis configuration of the checkpoint subprotocol
type Params struct {
	// MaxRangeSpan caps the number of manifest leaves one commit may reference
	MaxRangeSpan uint64 `yaml:"maxRangeSpan"`
}

// State is the checkpoint subprotocol state: the last accepted epoch and the height the
// manifest history is verified up to
type State struct {
	LastEpoch  uint32
	VerifiedTo uint64
}

// Msg is the checkpoint message type; the subprotocol accepts no messages
type Msg struct{}

// AuxInput maps a committing transaction's in-block index to its verified manifest leaves
type AuxInput struct {
	Leaves map[uint32][]hash.Hash256
}

type commit struct {
	epoch uint32
	start uint64
	end   uint64
}

// Protocol implements the checkpoint subprotocol
type Protocol struct {
	maxSpan uint64
}

// NewHandler wraps the checkpoint subprotocol for registration
func NewHandler(params Params) asm.Handler {
	return asm.NewHandler[State, Msg, AuxInput, Params](&Protocol{maxSpan: params.MaxRangeSpan}, params)
}

// ID returns the subprotocol id
func (p *Protocol) ID() asm.SubprotocolID { return ProtocolID }

// Init returns the genesis state
func (p *Protocol) Init(_ Params) (State, error) {
	return State{}, nil
}

// parseCommit decodes a commit from tag aux bytes; malformed commits are excluded, not errors
func parseCommit(tag l1.TagPayload) (commit, bool) {
	if tag.TxType != TxTypeCommit || len(tag.AuxData) != _commitAuxSize {
		return commit{}, false
	}
	return commit{
		epoch: enc.MachineEndian.Uint32(tag.AuxData[:4]),
		start: enc.MachineEndian.Uint64(tag.AuxData[4:12]),
		end:   enc.MachineEndian.Uint64(tag.AuxData[12:20]),
	}, true
}

// PreProcessTxs registers one manifest-range request per well-formed commit
func (p *Protocol) PreProcessTxs(state *State, txs []l1.TaggedTx, collector *aux.Collector, view asm.ChainView) error {
	for _, tx := range txs {
		c, ok := parseCommit(tx.Tag)
		if !ok {
			log.L().Debug("Skipping malformed checkpoint commit.")
			continue
		}
		if c.end < c.start || c.end >= view.Height {
			continue
		}
		if p.maxSpan > 0 && c.end-c.start+1 > p.maxSpan {
			continue
		}
		if err := collector.RequestManifestRange(tx.Ref.Index, c.start, c.end); err != nil {
			return err
		}
	}
	return nil
}

// BuildAuxInput collects the verified leaves for every well-formed commit
func (p *Protocol) BuildAuxInput(verified *aux.Verified, txs []l1.TaggedTx) (AuxInput, error) {
	in := AuxInput{Leaves: make(map[uint32][]hash.Hash256)}
	for _, tx := range txs {
		c, ok := parseCommit(tx.Tag)
		if !ok || c.end < c.start {
			continue
		}
		leaves, err := verified.ManifestRangeForIndex(tx.Ref.Index)
		if err != nil {
			if errors.Is(err, aux.ErrMissingResponse) {
				// range was rejected during pre-processing
				continue
			}
			return AuxInput{}, err
		}
		in.Leaves[tx.Ref.Index] = leaves
	}
	return in, nil
}

// ProcessTxs accepts commits whose epoch and range advance the checkpoint high-water mark
func (p *Protocol) ProcessTxs(
	state *State,
	txs []l1.TaggedTx,
	view asm.ChainView,
	auxInput AuxInput,
	_ asm.MsgRelayer,
) ([]manifest.LogEntry, error) {
	var logs []manifest.LogEntry
	for _, tx := range txs {
		c, ok := parseCommit(tx.Tag)
		if !ok {
			continue
		}
		leaves, ok := auxInput.Leaves[tx.Ref.Index]
		if !ok {
			continue
		}
		if c.epoch <= state.LastEpoch && state.VerifiedTo != 0 {
			continue
		}
		if c.end <= state.VerifiedTo {
			continue
		}
		state.LastEpoch = c.epoch
		state.VerifiedTo = c.end
		logs = append(logs, manifest.LogEntry{
			Type: LogTypeCheckpointUpdate,
			Data: encodeUpdate(c, leaves),
		})
	}
	return logs, nil
}

// encodeUpdate commits the accepted range and a digest of its manifest leaves
func encodeUpdate(c commit, leaves []hash.Hash256) []byte {
	digest := make([]byte, 0, len(leaves)*hash.Hash256Size)
	for _, leaf := range leaves {
		digest = append(digest, leaf[:]...)
	}
	sum := hash.Hash256b(digest)
	b := make([]byte, 0, _commitAuxSize+hash.Hash256Size)
	b = append(b, enc.Uint32ToBytes(c.epoch)...)
	b = append(b, enc.Uint64ToBytes(c.start)...)
	b = append(b, enc.Uint64ToBytes(c.end)...)
	b = append(b, sum[:]...)
	return b
}

// ProcessMsgs is a no-op; the checkpoint subprotocol accepts no messages
func (p *Protocol) ProcessMsgs(_ *State, msgs []Msg) ([]manifest.LogEntry, error) {
	if len(msgs) > 0 {
		return nil, errors.New("checkpoint subprotocol accepts no messages")
	}
	return nil, nil
}

// EncodeState produces the canonical state section
func (p *Protocol) EncodeState(state *State) ([]byte, error) {
	b := make([]byte, 0, _stateSize)
	b = append(b, enc.Uint32ToBytes(state.LastEpoch)...)
	b = append(b, enc.Uint64ToBytes(state.VerifiedTo)...)
	return b, nil
}

// DecodeState parses a state section
func (p *Protocol) DecodeState(section []byte) (State, error) {
	if len(section) != _stateSize {
		return State{}, errors.Errorf("checkpoint section must be %d bytes, got %d", _stateSize, len(section))
	}
	return State{
		LastEpoch:  enc.MachineEndian.Uint32(section[:4]),
		VerifiedTo: enc.MachineEndian.Uint64(section[4:12]),
	}, nil
}

// DecodeMsg always fails; no message is addressed to the checkpoint subprotocol
func (p *Protocol) DecodeMsg(_ []byte) (Msg, error) {
	return Msg{}, errors.New("checkpoint subprotocol accepts no messages")
}

// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package admin implements the administration subprotocol: on-chain parameter updates,
// versioned as a parameter table. Operator-set changes are relayed to the bridge
// subprotocol as buffered messages within the same block.
package admin

import (
	"github.com/pkg/errors"

	"github.com/anchorproject/anchor-core/asm"
	aux "github.com/anchorproject/anchor-core/asm/auxiliary"
	"github.com/anchorproject/anchor-core/asm/manifest"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/enc"
	"github.com/anchorproject/anchor-core/subprotocols/bridge"
)

const (
	// ProtocolID is the admin subprotocol's stable id
	ProtocolID = asm.SubprotocolID(3)

	// TxTypeParamUpdate tags a parameter update transaction
	TxTypeParamUpdate = uint8(1)

	// LogTypeParamUpdated records an applied parameter update
	LogTypeParamUpdated = uint16(1)

	// ParamOperatorSet is the parameter id whose updates are relayed to the bridge
	ParamOperatorSet = uint8(1)

	// param update aux bytes: param id u8 ‖ value u32
	_updateAuxSize = 5

	_stateSize = 8
)

// Params is the genesis configuration of the admin subprotocol
type Params struct {
	// InitialOperatorSet is the operator-set version the chain starts with
	InitialOperatorSet uint32 `yaml:"initialOperatorSet"`
}

// State is the admin subprotocol state
type State struct {
	ParamVersion       uint32
	OperatorSetVersion uint32
}

// Msg is the admin message type; the subprotocol accepts no messages
type Msg struct{}

// AuxInput is empty; the admin subprotocol requests no auxiliary data
type AuxInput struct{}

// Protocol implements the admin subprotocol
type Protocol struct{}

// NewHandler wraps the admin subprotocol for registration
func NewHandler(params Params) asm.Handler {
	return asm.NewHandler[State, Msg, AuxInput, Params](&Protocol{}, params)
}

// ID returns the subprotocol id
func (p *Protocol) ID() asm.SubprotocolID { return ProtocolID }

// Init returns the genesis state
func (p *Protocol) Init(params Params) (State, error) {
	return State{OperatorSetVersion: params.InitialOperatorSet}, nil
}

// PreProcessTxs is a no-op; parameter updates carry their payload in the tag itself
func (p *Protocol) PreProcessTxs(_ *State, _ []l1.TaggedTx, _ *aux.Collector, _ asm.ChainView) error {
	return nil
}

// BuildAuxInput returns the empty aux input
func (p *Protocol) BuildAuxInput(_ *aux.Verified, _ []l1.TaggedTx) (AuxInput, error) {
	return AuxInput{}, nil
}

// ProcessTxs applies parameter updates and relays operator-set changes to the bridge
func (p *Protocol) ProcessTxs(
	state *State,
	txs []l1.TaggedTx,
	_ asm.ChainView,
	_ AuxInput,
	relayer asm.MsgRelayer,
) ([]manifest.LogEntry, error) {
	var logs []manifest.LogEntry
	for _, tx := range txs {
		if tx.Tag.TxType != TxTypeParamUpdate || len(tx.Tag.AuxData) != _updateAuxSize {
			continue
		}
		param := tx.Tag.AuxData[0]
		value := enc.MachineEndian.Uint32(tx.Tag.AuxData[1:5])
		state.ParamVersion++
		if param == ParamOperatorSet {
			state.OperatorSetVersion = value
			relayer.Relay(bridge.ProtocolID, bridge.EncodeMsg(bridge.Msg{OperatorSetVersion: value}))
		}
		data := make([]byte, 0, _updateAuxSize+4)
		data = append(data, param)
		data = append(data, enc.Uint32ToBytes(value)...)
		data = append(data, enc.Uint32ToBytes(state.ParamVersion)...)
		logs = append(logs, manifest.LogEntry{Type: LogTypeParamUpdated, Data: data})
	}
	return logs, nil
}

// ProcessMsgs is a no-op; the admin subprotocol accepts no messages
func (p *Protocol) ProcessMsgs(_ *State, msgs []Msg) ([]manifest.LogEntry, error) {
	if len(msgs) > 0 {
		return nil, errors.New("admin subprotocol accepts no messages")
	}
	return nil, nil
}

// EncodeState produces the canonical state section
func (p *Protocol) EncodeState(state *State) ([]byte, error) {
	b := make([]byte, 0, _stateSize)
	b = append(b, enc.Uint32ToBytes(state.ParamVersion)...)
	b = append(b, enc.Uint32ToBytes(state.OperatorSetVersion)...)
	return b, nil
}

// DecodeState parses a state section
func (p *Protocol) DecodeState(section []byte) (State, error) {
	if len(section) != _stateSize {
		return State{}, errors.Errorf("admin section must be %d bytes, got %d", _stateSize, len(section))
	}
	return State{
		ParamVersion:       enc.MachineEndian.Uint32(section[:4]),
		OperatorSetVersion: enc.MachineEndian.Uint32(section[4:8]),
	}, nil
}

// DecodeMsg always fails; no message is addressed to the admin subprotocol
func (p *Protocol) DecodeMsg(_ []byte) (Msg, error) {
	return Msg{}, errors.New("admin subprotocol accepts no messages")
}
